package tlv

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"
)

// Reader decodes TLV elements from an io.Reader.
//
// Call Next to position on an element, then one accessor to consume it.
// Unconsumed values are skipped by the following Next.
type Reader struct {
	r     io.Reader
	depth int

	has      bool
	consumed bool
	typ      ElementType
	tag      Tag
	scalar   uint64
	length   uint64
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next advances to the next element. It returns io.EOF at the end of input.
func (r *Reader) Next() error {
	if r.has && !r.consumed {
		if err := r.discard(); err != nil {
			return err
		}
	}
	r.has = false

	var ctrl [1]byte
	if _, err := io.ReadFull(r.r, ctrl[:]); err != nil {
		return err
	}
	typ, tc := ParseControlOctet(ctrl[0])
	if typ > ElementTypeEnd {
		return ErrInvalidElementType
	}
	tag, err := ReadTag(r.r, tc)
	if err != nil {
		return err
	}

	r.typ, r.tag, r.scalar, r.length = typ, tag, 0, 0
	switch {
	case typ.IsInt() || typ.IsFloat():
		if r.scalar, err = r.readLE(typ.ValueSize()); err != nil {
			return err
		}
	case typ.IsString():
		if r.length, err = r.readLE(typ.LengthFieldSize()); err != nil {
			return err
		}
	}

	r.has, r.consumed = true, false
	return nil
}

func (r *Reader) readLE(n int) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r.r, buf[:n]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// Type returns the current element type.
func (r *Reader) Type() ElementType { return r.typ }

// Tag returns the current element tag.
func (r *Reader) Tag() Tag { return r.tag }

// HasElement reports whether Next positioned the reader on an element.
func (r *Reader) HasElement() bool { return r.has }

func (r *Reader) take(ok func(ElementType) bool) error {
	if !r.has {
		return ErrNoElement
	}
	if r.consumed {
		return ErrValueAlreadyRead
	}
	if !ok(r.typ) {
		return ErrTypeMismatch
	}
	r.consumed = true
	return nil
}

// Uint returns the current unsigned integer.
func (r *Reader) Uint() (uint64, error) {
	if err := r.take(ElementType.IsUnsignedInt); err != nil {
		return 0, err
	}
	return r.scalar, nil
}

// Int returns the current signed integer, sign-extended from its encoded width.
func (r *Reader) Int() (int64, error) {
	if err := r.take(ElementType.IsSignedInt); err != nil {
		return 0, err
	}
	switch r.typ {
	case ElementTypeInt8:
		return int64(int8(r.scalar)), nil
	case ElementTypeInt16:
		return int64(int16(r.scalar)), nil
	case ElementTypeInt32:
		return int64(int32(r.scalar)), nil
	default:
		return int64(r.scalar), nil
	}
}

// Uint8 returns the current unsigned integer, failing with ErrOverflow above 255.
func (r *Reader) Uint8() (uint8, error) {
	v, err := r.Uint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint8 {
		return 0, ErrOverflow
	}
	return uint8(v), nil
}

// Uint16 returns the current unsigned integer, failing with ErrOverflow above 65535.
func (r *Reader) Uint16() (uint16, error) {
	v, err := r.Uint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint16 {
		return 0, ErrOverflow
	}
	return uint16(v), nil
}

// Bool returns the current boolean.
func (r *Reader) Bool() (bool, error) {
	if err := r.take(ElementType.IsBool); err != nil {
		return false, err
	}
	return r.typ == ElementTypeTrue, nil
}

// Null consumes the current null element.
func (r *Reader) Null() error {
	return r.take(func(t ElementType) bool { return t == ElementTypeNull })
}

// IsNull reports whether the current element is null without consuming it.
func (r *Reader) IsNull() bool {
	return r.has && r.typ == ElementTypeNull
}

// Bytes returns the current octet string.
func (r *Reader) Bytes() ([]byte, error) {
	if err := r.take(ElementType.IsBytes); err != nil {
		return nil, err
	}
	return r.payload()
}

// String returns the current UTF-8 string.
func (r *Reader) String() (string, error) {
	if err := r.take(ElementType.IsUTF8String); err != nil {
		return "", err
	}
	b, err := r.payload()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

func (r *Reader) payload() ([]byte, error) {
	b := make([]byte, r.length)
	if _, err := io.ReadFull(r.r, b); err != nil {
		return nil, io.ErrUnexpectedEOF
	}
	return b, nil
}

// EnterContainer descends into the current structure, array or list.
func (r *Reader) EnterContainer() error {
	if err := r.take(ElementType.IsContainer); err != nil {
		return err
	}
	r.depth++
	r.has = false
	return nil
}

// ExitContainer skips the rest of the innermost container, including its
// end marker, and returns to the parent level.
func (r *Reader) ExitContainer() error {
	if r.depth == 0 {
		return ErrNotInContainer
	}
	if r.IsEndOfContainer() {
		r.depth--
		r.has = false
		return nil
	}
	for nested := 0; ; {
		if err := r.Next(); err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		switch {
		case r.typ == ElementTypeEnd && nested == 0:
			r.depth--
			r.has = false
			return nil
		case r.typ == ElementTypeEnd:
			nested--
		case r.typ.IsContainer():
			r.consumed = true
			nested++
		}
	}
}

// ContainerDepth returns how many containers the reader has entered.
func (r *Reader) ContainerDepth() int { return r.depth }

// IsEndOfContainer reports whether the reader sits on an end-of-container marker.
func (r *Reader) IsEndOfContainer() bool {
	return r.has && r.typ == ElementTypeEnd
}

// Skip consumes the current element, including nested content.
func (r *Reader) Skip() error {
	if !r.has {
		return ErrNoElement
	}
	if r.typ.IsContainer() && !r.consumed {
		if err := r.EnterContainer(); err != nil {
			return err
		}
		return r.ExitContainer()
	}
	return r.discard()
}

func (r *Reader) discard() error {
	if r.consumed {
		return nil
	}
	r.consumed = true
	if r.typ.IsContainer() {
		// Unentered containers are skipped wholesale.
		r.depth++
		return r.ExitContainer()
	}
	if r.typ.IsString() && r.length > 0 {
		_, err := io.CopyN(io.Discard, r.r, int64(r.length))
		return err
	}
	return nil
}
