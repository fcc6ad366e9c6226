package clusters

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/backkem/matter-dimmer/pkg/datamodel"
	"github.com/backkem/matter-dimmer/pkg/tlv"
)

// ErrMissingField is wrapped into ErrInvalidCommand when a mandatory
// command field is absent.
var ErrMissingField = errors.New("missing required field")

// TLVUnmarshaler is implemented by command request payloads.
type TLVUnmarshaler interface {
	UnmarshalTLV(r *tlv.Reader) error
}

// TLVMarshaler is implemented by payloads that encode themselves.
type TLVMarshaler interface {
	MarshalTLV(w *tlv.Writer) error
}

// EncodeRequest encodes a command payload to bytes.
func EncodeRequest(m TLVMarshaler) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.MarshalTLV(tlv.NewWriter(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeRequest decodes data into req.
func DecodeRequest(data []byte, req TLVUnmarshaler) error {
	return req.UnmarshalTLV(tlv.NewReader(bytes.NewReader(data)))
}

// InvalidCommand wraps a decode failure as datamodel.ErrInvalidCommand.
func InvalidCommand(err error) error {
	return fmt.Errorf("%w: %v", datamodel.ErrInvalidCommand, err)
}

// DecodeStruct reads the next element as a structure and decodes it with
// DecodeFields.
func DecodeStruct(r *tlv.Reader, field func(tag uint8) error) error {
	if err := r.Next(); err != nil {
		return InvalidCommand(err)
	}
	return DecodeFields(r, field)
}

// DecodeFields enters the structure r sits on and calls field for every
// context-tagged member, with r positioned on it. Members the callback
// does not consume are skipped. TLV errors are reported as invalid
// commands; errors returned by field pass through unchanged.
func DecodeFields(r *tlv.Reader, field func(tag uint8) error) error {
	if r.Type() != tlv.ElementTypeStruct {
		return InvalidCommand(tlv.ErrTypeMismatch)
	}
	if err := r.EnterContainer(); err != nil {
		return InvalidCommand(err)
	}
	for {
		if err := r.Next(); err != nil {
			return InvalidCommand(err)
		}
		if r.IsEndOfContainer() {
			break
		}
		if !r.Tag().IsContext() {
			continue
		}
		if err := field(r.Tag().TagNumber()); err != nil {
			return err
		}
	}
	if err := r.ExitContainer(); err != nil {
		return InvalidCommand(err)
	}
	return nil
}

// ReadUint8 reads the current element as a uint8 field.
func ReadUint8(r *tlv.Reader) (uint8, error) {
	v, err := r.Uint8()
	if err != nil {
		return 0, InvalidCommand(err)
	}
	return v, nil
}

// ReadNullableUint8 reads the current element as a nullable uint8.
func ReadNullableUint8(r *tlv.Reader) (*uint8, error) {
	if r.IsNull() {
		return nil, r.Null()
	}
	v, err := ReadUint8(r)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ReadNullableUint16 reads the current element as a nullable uint16.
func ReadNullableUint16(r *tlv.Reader) (*uint16, error) {
	if r.IsNull() {
		return nil, r.Null()
	}
	v, err := r.Uint16()
	if err != nil {
		return nil, InvalidCommand(err)
	}
	return &v, nil
}

// PutNullableUint8 writes v, or null when v is nil.
func PutNullableUint8(w *tlv.Writer, tag tlv.Tag, v *uint8) error {
	if v == nil {
		return w.PutNull(tag)
	}
	return w.PutUint(tag, uint64(*v))
}

// PutNullableUint16 writes v, or null when v is nil.
func PutNullableUint16(w *tlv.Writer, tag tlv.Tag, v *uint16) error {
	if v == nil {
		return w.PutNull(tag)
	}
	return w.PutUint(tag, uint64(*v))
}

// ReadValue positions r on the single value of an attribute write.
func ReadValue(r *tlv.Reader) error {
	if err := r.Next(); err != nil {
		return InvalidCommand(err)
	}
	return nil
}
