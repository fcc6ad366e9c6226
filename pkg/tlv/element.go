// Package tlv implements the subset of Matter TLV encoding used by cluster
// payloads: integers, booleans, null, strings, and the three container kinds,
// addressed with anonymous or context-specific tags.
package tlv

// ElementType is the low five bits of a control octet.
type ElementType int

const (
	ElementTypeInt8    ElementType = 0x00
	ElementTypeInt16   ElementType = 0x01
	ElementTypeInt32   ElementType = 0x02
	ElementTypeInt64   ElementType = 0x03
	ElementTypeUInt8   ElementType = 0x04
	ElementTypeUInt16  ElementType = 0x05
	ElementTypeUInt32  ElementType = 0x06
	ElementTypeUInt64  ElementType = 0x07
	ElementTypeFalse   ElementType = 0x08
	ElementTypeTrue    ElementType = 0x09
	ElementTypeFloat32 ElementType = 0x0A
	ElementTypeFloat64 ElementType = 0x0B
	ElementTypeUTF8_1  ElementType = 0x0C
	ElementTypeUTF8_2  ElementType = 0x0D
	ElementTypeUTF8_4  ElementType = 0x0E
	ElementTypeUTF8_8  ElementType = 0x0F
	ElementTypeBytes1  ElementType = 0x10
	ElementTypeBytes2  ElementType = 0x11
	ElementTypeBytes4  ElementType = 0x12
	ElementTypeBytes8  ElementType = 0x13
	ElementTypeNull    ElementType = 0x14
	ElementTypeStruct  ElementType = 0x15
	ElementTypeArray   ElementType = 0x16
	ElementTypeList    ElementType = 0x17
	ElementTypeEnd     ElementType = 0x18
)

var elementTypeNames = map[ElementType]string{
	ElementTypeInt8:    "Int8",
	ElementTypeInt16:   "Int16",
	ElementTypeInt32:   "Int32",
	ElementTypeInt64:   "Int64",
	ElementTypeUInt8:   "UInt8",
	ElementTypeUInt16:  "UInt16",
	ElementTypeUInt32:  "UInt32",
	ElementTypeUInt64:  "UInt64",
	ElementTypeFalse:   "False",
	ElementTypeTrue:    "True",
	ElementTypeFloat32: "Float32",
	ElementTypeFloat64: "Float64",
	ElementTypeUTF8_1:  "UTF8String1",
	ElementTypeUTF8_2:  "UTF8String2",
	ElementTypeUTF8_4:  "UTF8String4",
	ElementTypeUTF8_8:  "UTF8String8",
	ElementTypeBytes1:  "ByteString1",
	ElementTypeBytes2:  "ByteString2",
	ElementTypeBytes4:  "ByteString4",
	ElementTypeBytes8:  "ByteString8",
	ElementTypeNull:    "Null",
	ElementTypeStruct:  "Structure",
	ElementTypeArray:   "Array",
	ElementTypeList:    "List",
	ElementTypeEnd:     "EndOfContainer",
}

func (e ElementType) String() string {
	if s, ok := elementTypeNames[e]; ok {
		return s
	}
	return "Unknown"
}

// IsSignedInt reports whether e is one of the signed integer encodings.
func (e ElementType) IsSignedInt() bool { return e >= ElementTypeInt8 && e <= ElementTypeInt64 }

// IsUnsignedInt reports whether e is one of the unsigned integer encodings.
func (e ElementType) IsUnsignedInt() bool { return e >= ElementTypeUInt8 && e <= ElementTypeUInt64 }

// IsInt reports whether e is any integer encoding.
func (e ElementType) IsInt() bool { return e.IsSignedInt() || e.IsUnsignedInt() }

// IsBool reports whether e is a boolean.
func (e ElementType) IsBool() bool { return e == ElementTypeFalse || e == ElementTypeTrue }

// IsFloat reports whether e is a floating point encoding.
func (e ElementType) IsFloat() bool { return e == ElementTypeFloat32 || e == ElementTypeFloat64 }

// IsUTF8String reports whether e is a UTF-8 string.
func (e ElementType) IsUTF8String() bool { return e >= ElementTypeUTF8_1 && e <= ElementTypeUTF8_8 }

// IsBytes reports whether e is an octet string.
func (e ElementType) IsBytes() bool { return e >= ElementTypeBytes1 && e <= ElementTypeBytes8 }

// IsString reports whether e carries a length-prefixed payload.
func (e ElementType) IsString() bool { return e.IsUTF8String() || e.IsBytes() }

// IsContainer reports whether e opens a structure, array or list.
func (e ElementType) IsContainer() bool { return e >= ElementTypeStruct && e <= ElementTypeList }

// widthCode is the two-bit size selector shared by integers, floats and
// string length fields: 0→1, 1→2, 2→4, 3→8 octets.
func (e ElementType) widthCode() int {
	return int(e) & 0x03
}

// ValueSize returns the fixed payload size of scalar types, or 0.
func (e ElementType) ValueSize() int {
	switch {
	case e.IsInt():
		return 1 << e.widthCode()
	case e == ElementTypeFloat32:
		return 4
	case e == ElementTypeFloat64:
		return 8
	default:
		return 0
	}
}

// LengthFieldSize returns the size of the length prefix of string types, or 0.
func (e ElementType) LengthFieldSize() int {
	if !e.IsString() {
		return 0
	}
	return 1 << e.widthCode()
}

const (
	elementTypeMask = 0x1F
	tagControlShift = 5
)

// ParseControlOctet splits a control octet into element type and tag control.
func ParseControlOctet(b byte) (ElementType, TagControl) {
	return ElementType(b & elementTypeMask), TagControl(b >> tagControlShift)
}

// BuildControlOctet assembles a control octet.
func BuildControlOctet(elemType ElementType, tagCtrl TagControl) byte {
	return byte(tagCtrl)<<tagControlShift | byte(elemType)&elementTypeMask
}
