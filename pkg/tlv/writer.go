package tlv

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"
)

// Writer encodes TLV elements to an io.Writer.
type Writer struct {
	w     io.Writer
	depth int
}

// NewWriter returns a Writer that appends elements to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) header(t ElementType, tag Tag) error {
	if _, err := w.w.Write([]byte{BuildControlOctet(t, tag.Control())}); err != nil {
		return err
	}
	_, err := tag.WriteTo(w.w)
	return err
}

func (w *Writer) fixed(base ElementType, tag Tag, v uint64) error {
	var buf [8]byte
	var size int
	t := base
	switch {
	case v <= math.MaxUint8:
		buf[0], size = byte(v), 1
	case v <= math.MaxUint16:
		binary.LittleEndian.PutUint16(buf[:], uint16(v))
		size, t = 2, base+1
	case v <= math.MaxUint32:
		binary.LittleEndian.PutUint32(buf[:], uint32(v))
		size, t = 4, base+2
	default:
		binary.LittleEndian.PutUint64(buf[:], v)
		size, t = 8, base+3
	}
	if err := w.header(t, tag); err != nil {
		return err
	}
	_, err := w.w.Write(buf[:size])
	return err
}

// PutUint writes an unsigned integer using the narrowest encoding.
func (w *Writer) PutUint(tag Tag, v uint64) error {
	return w.fixed(ElementTypeUInt8, tag, v)
}

// PutInt writes a signed integer using the narrowest encoding.
func (w *Writer) PutInt(tag Tag, v int64) error {
	var buf [8]byte
	var size int
	var t ElementType
	switch {
	case v >= math.MinInt8 && v <= math.MaxInt8:
		buf[0], size, t = byte(v), 1, ElementTypeInt8
	case v >= math.MinInt16 && v <= math.MaxInt16:
		binary.LittleEndian.PutUint16(buf[:], uint16(v))
		size, t = 2, ElementTypeInt16
	case v >= math.MinInt32 && v <= math.MaxInt32:
		binary.LittleEndian.PutUint32(buf[:], uint32(v))
		size, t = 4, ElementTypeInt32
	default:
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		size, t = 8, ElementTypeInt64
	}
	if err := w.header(t, tag); err != nil {
		return err
	}
	_, err := w.w.Write(buf[:size])
	return err
}

// PutBool writes a boolean.
func (w *Writer) PutBool(tag Tag, v bool) error {
	if v {
		return w.header(ElementTypeTrue, tag)
	}
	return w.header(ElementTypeFalse, tag)
}

// PutNull writes a null value.
func (w *Writer) PutNull(tag Tag) error {
	return w.header(ElementTypeNull, tag)
}

// PutString writes a UTF-8 string.
func (w *Writer) PutString(tag Tag, s string) error {
	if !utf8.ValidString(s) {
		return ErrInvalidUTF8
	}
	return w.lengthPrefixed(ElementTypeUTF8_1, tag, []byte(s))
}

// PutBytes writes an octet string.
func (w *Writer) PutBytes(tag Tag, b []byte) error {
	return w.lengthPrefixed(ElementTypeBytes1, tag, b)
}

func (w *Writer) lengthPrefixed(base ElementType, tag Tag, b []byte) error {
	n := uint64(len(b))
	var lenBuf [8]byte
	var size int
	t := base
	switch {
	case n <= math.MaxUint8:
		lenBuf[0], size = byte(n), 1
	case n <= math.MaxUint16:
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(n))
		size, t = 2, base+1
	default:
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(n))
		size, t = 4, base+2
	}
	if err := w.header(t, tag); err != nil {
		return err
	}
	if _, err := w.w.Write(lenBuf[:size]); err != nil {
		return err
	}
	_, err := w.w.Write(b)
	return err
}

// StartStructure opens a structure. Close it with EndContainer.
func (w *Writer) StartStructure(tag Tag) error {
	return w.open(ElementTypeStruct, tag)
}

// StartArray opens an array. Close it with EndContainer.
func (w *Writer) StartArray(tag Tag) error {
	return w.open(ElementTypeArray, tag)
}

// StartList opens a list. Close it with EndContainer.
func (w *Writer) StartList(tag Tag) error {
	return w.open(ElementTypeList, tag)
}

func (w *Writer) open(t ElementType, tag Tag) error {
	if err := w.header(t, tag); err != nil {
		return err
	}
	w.depth++
	return nil
}

// EndContainer closes the innermost open container.
func (w *Writer) EndContainer() error {
	if w.depth == 0 {
		return ErrNotInContainer
	}
	w.depth--
	_, err := w.w.Write([]byte{byte(ElementTypeEnd)})
	return err
}

// Depth returns the number of containers currently open.
func (w *Writer) Depth() int {
	return w.depth
}
