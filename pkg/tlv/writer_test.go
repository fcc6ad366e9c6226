package tlv

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestWriterEncodings(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer) error
		want  string
	}{
		{"uint8 anonymous", func(w *Writer) error { return w.PutUint(Anonymous(), 42) }, "042a"},
		{"uint16 context", func(w *Writer) error { return w.PutUint(ContextTag(1), 300) }, "25012c01"},
		{"uint32", func(w *Writer) error { return w.PutUint(Anonymous(), 70000) }, "0670110100"},
		{"int8 negative", func(w *Writer) error { return w.PutInt(Anonymous(), -1) }, "00ff"},
		{"int16", func(w *Writer) error { return w.PutInt(Anonymous(), 1000) }, "01e803"},
		{"true", func(w *Writer) error { return w.PutBool(Anonymous(), true) }, "09"},
		{"false context", func(w *Writer) error { return w.PutBool(ContextTag(3), false) }, "2803"},
		{"null context", func(w *Writer) error { return w.PutNull(ContextTag(2)) }, "3402"},
		{"string", func(w *Writer) error { return w.PutString(Anonymous(), "hi") }, "0c026869"},
		{"bytes", func(w *Writer) error { return w.PutBytes(Anonymous(), []byte{1, 2}) }, "10020102"},
		{"empty structure", func(w *Writer) error {
			if err := w.StartStructure(Anonymous()); err != nil {
				return err
			}
			return w.EndContainer()
		}, "1518"},
		{"array of uint", func(w *Writer) error {
			if err := w.StartArray(Anonymous()); err != nil {
				return err
			}
			if err := w.PutUint(Anonymous(), 1); err != nil {
				return err
			}
			return w.EndContainer()
		}, "16040118"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tc.write(NewWriter(&buf)); err != nil {
				t.Fatalf("write: %v", err)
			}
			if got := hex.EncodeToString(buf.Bytes()); got != tc.want {
				t.Errorf("encoding = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestWriterEndContainerAtTopLevel(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	if err := w.EndContainer(); err != ErrNotInContainer {
		t.Errorf("EndContainer() = %v, want ErrNotInContainer", err)
	}
}

func TestWriterRejectsInvalidUTF8(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	if err := w.PutString(Anonymous(), string([]byte{0xff, 0xfe})); err != ErrInvalidUTF8 {
		t.Errorf("PutString() = %v, want ErrInvalidUTF8", err)
	}
}

func TestWriterDepth(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	_ = w.StartStructure(Anonymous())
	_ = w.StartList(ContextTag(0))
	if w.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", w.Depth())
	}
	_ = w.EndContainer()
	_ = w.EndContainer()
	if w.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", w.Depth())
	}
}
