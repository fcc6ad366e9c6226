package tlv

import "errors"

var (
	// ErrInvalidElementType is returned for control octets outside the known element range.
	ErrInvalidElementType = errors.New("tlv: invalid element type")

	// ErrInvalidTagControl is returned for tag forms this codec does not carry.
	// Only anonymous and context-specific tags are supported.
	ErrInvalidTagControl = errors.New("tlv: invalid tag control")

	// ErrTypeMismatch is returned when a value is read as the wrong type.
	ErrTypeMismatch = errors.New("tlv: type mismatch")

	// ErrNotInContainer is returned by ExitContainer and EndContainer at top level.
	ErrNotInContainer = errors.New("tlv: not in container")

	// ErrInvalidUTF8 is returned when a UTF-8 string element holds invalid sequences.
	ErrInvalidUTF8 = errors.New("tlv: invalid UTF-8 string")

	// ErrNoElement is returned when a value is accessed before Next.
	ErrNoElement = errors.New("tlv: no current element")

	// ErrValueAlreadyRead is returned when the same value is consumed twice.
	ErrValueAlreadyRead = errors.New("tlv: value already read")

	// ErrOverflow is returned when a decoded value does not fit the requested width.
	ErrOverflow = errors.New("tlv: value overflow")
)
