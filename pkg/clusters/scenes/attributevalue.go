package scenes

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/backkem/matter-dimmer/pkg/clusters"
	"github.com/backkem/matter-dimmer/pkg/datamodel"
	"github.com/backkem/matter-dimmer/pkg/tlv"
)

// AttributeValuePair field tags.
const (
	tagAttributeID     = 0
	tagValueUnsigned8  = 1
	tagValueUnsigned16 = 3
	tagValueUnsigned32 = 5
)

// AttributeValuePair is one saved attribute of a scene extension field
// set. At most one value field is set.
type AttributeValuePair struct {
	AttributeID     datamodel.AttributeID
	ValueUnsigned8  *uint8
	ValueUnsigned16 *uint16
	ValueUnsigned32 *uint32
}

// MarshalTLV writes the pair as an anonymous structure.
func (p AttributeValuePair) MarshalTLV(w *tlv.Writer) error {
	if err := w.StartStructure(tlv.Anonymous()); err != nil {
		return err
	}
	if err := w.PutUint(tlv.ContextTag(tagAttributeID), uint64(p.AttributeID)); err != nil {
		return err
	}
	if p.ValueUnsigned8 != nil {
		if err := w.PutUint(tlv.ContextTag(tagValueUnsigned8), uint64(*p.ValueUnsigned8)); err != nil {
			return err
		}
	}
	if p.ValueUnsigned16 != nil {
		if err := w.PutUint(tlv.ContextTag(tagValueUnsigned16), uint64(*p.ValueUnsigned16)); err != nil {
			return err
		}
	}
	if p.ValueUnsigned32 != nil {
		if err := w.PutUint(tlv.ContextTag(tagValueUnsigned32), uint64(*p.ValueUnsigned32)); err != nil {
			return err
		}
	}
	return w.EndContainer()
}

// UnmarshalTLV reads the pair structure r sits on.
func (p *AttributeValuePair) UnmarshalTLV(r *tlv.Reader) error {
	var haveID bool
	err := clusters.DecodeFields(r, func(tag uint8) error {
		switch tag {
		case tagAttributeID:
			v, err := r.Uint()
			if err != nil || v > 0xFFFFFFFF {
				return fmt.Errorf("%w: attribute id", ErrInvalidArgument)
			}
			p.AttributeID = datamodel.AttributeID(v)
			haveID = true
		case tagValueUnsigned8:
			v, err := r.Uint8()
			if err != nil {
				return fmt.Errorf("%w: valueUnsigned8: %v", ErrInvalidArgument, err)
			}
			p.ValueUnsigned8 = &v
		case tagValueUnsigned16:
			v, err := r.Uint16()
			if err != nil {
				return fmt.Errorf("%w: valueUnsigned16: %v", ErrInvalidArgument, err)
			}
			p.ValueUnsigned16 = &v
		case tagValueUnsigned32:
			v, err := r.Uint()
			if err != nil || v > 0xFFFFFFFF {
				return fmt.Errorf("%w: valueUnsigned32", ErrInvalidArgument)
			}
			v32 := uint32(v)
			p.ValueUnsigned32 = &v32
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidArgument) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if !haveID {
		return fmt.Errorf("%w: %v: attribute id", ErrInvalidArgument, clusters.ErrMissingField)
	}
	return nil
}

// EncodeAttributeValueList encodes pairs as an anonymous array.
func EncodeAttributeValueList(pairs []AttributeValuePair) ([]byte, error) {
	var buf bytes.Buffer
	w := tlv.NewWriter(&buf)
	if err := w.StartArray(tlv.Anonymous()); err != nil {
		return nil, err
	}
	for _, p := range pairs {
		if err := p.MarshalTLV(w); err != nil {
			return nil, err
		}
	}
	if err := w.EndContainer(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeAttributeValueList decodes an array written by
// EncodeAttributeValueList.
func DecodeAttributeValueList(data []byte) ([]AttributeValuePair, error) {
	r := tlv.NewReader(bytes.NewReader(data))
	if err := r.Next(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if r.Type() != tlv.ElementTypeArray {
		return nil, fmt.Errorf("%w: attribute value list is %s", ErrInvalidArgument, r.Type())
	}
	if err := r.EnterContainer(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	var pairs []AttributeValuePair
	for {
		if err := r.Next(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		if r.IsEndOfContainer() {
			break
		}
		var p AttributeValuePair
		if err := p.UnmarshalTLV(r); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	if err := r.ExitContainer(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return pairs, nil
}
