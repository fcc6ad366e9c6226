package clusters

import (
	"bytes"
	"errors"
	"testing"

	"github.com/backkem/matter-dimmer/pkg/datamodel"
	"github.com/backkem/matter-dimmer/pkg/tlv"
)

// testRequest carries a mandatory level and an optional nullable time.
type testRequest struct {
	Level uint8
	Time  *uint16

	hasLevel bool
}

func (r *testRequest) MarshalTLV(w *tlv.Writer) error {
	if err := w.StartStructure(tlv.Anonymous()); err != nil {
		return err
	}
	if err := w.PutUint(tlv.ContextTag(0), uint64(r.Level)); err != nil {
		return err
	}
	if err := PutNullableUint16(w, tlv.ContextTag(1), r.Time); err != nil {
		return err
	}
	if err := w.PutString(tlv.ContextTag(7), "ignored"); err != nil {
		return err
	}
	return w.EndContainer()
}

func (r *testRequest) UnmarshalTLV(rd *tlv.Reader) error {
	err := DecodeStruct(rd, func(tag uint8) error {
		var err error
		switch tag {
		case 0:
			r.Level, err = ReadUint8(rd)
			r.hasLevel = err == nil
		case 1:
			r.Time, err = ReadNullableUint16(rd)
		}
		return err
	})
	if err != nil {
		return err
	}
	if !r.hasLevel {
		return InvalidCommand(ErrMissingField)
	}
	return nil
}

func encode(t *testing.T, fn func(w *tlv.Writer) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := fn(tlv.NewWriter(&buf)); err != nil {
		t.Fatalf("encode error = %v", err)
	}
	return buf.Bytes()
}

func TestEncodeRequest_DecodeRequest(t *testing.T) {
	tt := uint16(300)
	tests := []struct {
		name string
		in   testRequest
	}{
		{"null time", testRequest{Level: 42}},
		{"with time", testRequest{Level: 254, Time: &tt}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := EncodeRequest(&tc.in)
			if err != nil {
				t.Fatalf("EncodeRequest() error = %v", err)
			}
			var out testRequest
			if err := DecodeRequest(data, &out); err != nil {
				t.Fatalf("DecodeRequest() error = %v", err)
			}
			if out.Level != tc.in.Level {
				t.Errorf("Level = %d, want %d", out.Level, tc.in.Level)
			}
			switch {
			case tc.in.Time == nil && out.Time != nil:
				t.Errorf("Time = %d, want null", *out.Time)
			case tc.in.Time != nil && (out.Time == nil || *out.Time != *tc.in.Time):
				t.Errorf("Time = %v, want %d", out.Time, *tc.in.Time)
			}
		})
	}
}

func TestDecodeRequest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a structure", encode(t, func(w *tlv.Writer) error {
			return w.PutUint(tlv.Anonymous(), 1)
		})},
		{"missing level", encode(t, func(w *tlv.Writer) error {
			if err := w.StartStructure(tlv.Anonymous()); err != nil {
				return err
			}
			return w.EndContainer()
		})},
		{"level overflow", encode(t, func(w *tlv.Writer) error {
			if err := w.StartStructure(tlv.Anonymous()); err != nil {
				return err
			}
			if err := w.PutUint(tlv.ContextTag(0), 300); err != nil {
				return err
			}
			return w.EndContainer()
		})},
		{"level wrong type", encode(t, func(w *tlv.Writer) error {
			if err := w.StartStructure(tlv.Anonymous()); err != nil {
				return err
			}
			if err := w.PutString(tlv.ContextTag(0), "high"); err != nil {
				return err
			}
			return w.EndContainer()
		})},
		{"unterminated", encode(t, func(w *tlv.Writer) error {
			if err := w.StartStructure(tlv.Anonymous()); err != nil {
				return err
			}
			return w.PutUint(tlv.ContextTag(0), 1)
		})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out testRequest
			err := DecodeRequest(tc.data, &out)
			if !errors.Is(err, datamodel.ErrInvalidCommand) {
				t.Errorf("DecodeRequest() error = %v, want ErrInvalidCommand", err)
			}
		})
	}
}

func TestDecodeFields_CallbackError(t *testing.T) {
	data := encode(t, func(w *tlv.Writer) error {
		if err := w.StartStructure(tlv.Anonymous()); err != nil {
			return err
		}
		if err := w.PutUint(tlv.ContextTag(0), 1); err != nil {
			return err
		}
		return w.EndContainer()
	})
	want := errors.New("stop")
	err := DecodeStruct(tlv.NewReader(bytes.NewReader(data)), func(uint8) error { return want })
	if !errors.Is(err, want) {
		t.Errorf("DecodeStruct() error = %v, want %v", err, want)
	}
	if errors.Is(err, datamodel.ErrInvalidCommand) {
		t.Error("callback error was wrapped as ErrInvalidCommand")
	}
}

func TestPutNullableUint8(t *testing.T) {
	v := uint8(7)
	for _, in := range []*uint8{nil, &v} {
		data := encode(t, func(w *tlv.Writer) error {
			return PutNullableUint8(w, tlv.Anonymous(), in)
		})
		r := tlv.NewReader(bytes.NewReader(data))
		if err := ReadValue(r); err != nil {
			t.Fatalf("ReadValue() error = %v", err)
		}
		got, err := ReadNullableUint8(r)
		if err != nil {
			t.Fatalf("ReadNullableUint8() error = %v", err)
		}
		if (got == nil) != (in == nil) || (got != nil && *got != *in) {
			t.Errorf("ReadNullableUint8() = %v, want %v", got, in)
		}
	}
}
