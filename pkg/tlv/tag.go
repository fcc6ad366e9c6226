package tlv

import (
	"fmt"
	"io"
)

// TagControl is the high three bits of a control octet.
type TagControl uint8

const (
	TagControlAnonymous       TagControl = 0
	TagControlContextSpecific TagControl = 1
)

func (tc TagControl) String() string {
	switch tc {
	case TagControlAnonymous:
		return "Anonymous"
	case TagControlContextSpecific:
		return "Context"
	default:
		return fmt.Sprintf("TagControl(%d)", uint8(tc))
	}
}

// Tag identifies an element within its container.
type Tag struct {
	control TagControl
	number  uint8
}

// Anonymous returns the tag used for top-level values and array/list members.
func Anonymous() Tag {
	return Tag{control: TagControlAnonymous}
}

// ContextTag returns a context-specific tag, as used for structure fields.
func ContextTag(n uint8) Tag {
	return Tag{control: TagControlContextSpecific, number: n}
}

// Control returns the tag form.
func (t Tag) Control() TagControl { return t.control }

// IsAnonymous reports whether t carries no tag number.
func (t Tag) IsAnonymous() bool { return t.control == TagControlAnonymous }

// IsContext reports whether t is context-specific.
func (t Tag) IsContext() bool { return t.control == TagControlContextSpecific }

// TagNumber returns the context tag number, or 0 for anonymous tags.
func (t Tag) TagNumber() uint8 { return t.number }

func (t Tag) String() string {
	if t.IsContext() {
		return fmt.Sprintf("ctx(%d)", t.number)
	}
	return "anon"
}

// WriteTo writes the tag bytes that follow the control octet.
func (t Tag) WriteTo(w io.Writer) (int64, error) {
	if !t.IsContext() {
		return 0, nil
	}
	n, err := w.Write([]byte{t.number})
	return int64(n), err
}

// ReadTag reads the tag bytes for the given control.
func ReadTag(r io.Reader, ctrl TagControl) (Tag, error) {
	switch ctrl {
	case TagControlAnonymous:
		return Anonymous(), nil
	case TagControlContextSpecific:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Tag{}, err
		}
		return ContextTag(b[0]), nil
	default:
		return Tag{}, ErrInvalidTagControl
	}
}
