package terrane

import (
	"bytes"
	"io"
	"testing"
)

type memStream struct {
	*bytes.Reader
}

func newMemStream(b []byte) *memStream {
	return &memStream{Reader: bytes.NewReader(b)}
}

func TestByteWriterReaderRoundTrip(t *testing.T) {
	w := NewByteWriter()
	w.WriteU8(0xAB)
	w.WriteI16(-42)
	w.WriteU32(123456789)
	w.WriteF64(3.14159265)
	w.WriteUTF8("hello", 8)

	r := NewByteReader(newMemStream(w.Bytes()))

	u8, err := r.ReadU8()
	if err != nil || u8 != 0xAB {
		t.Fatalf("ReadU8 = %v, %v", u8, err)
	}
	i16, err := r.ReadI16()
	if err != nil || i16 != -42 {
		t.Fatalf("ReadI16 = %v, %v", i16, err)
	}
	u32, err := r.ReadU32()
	if err != nil || u32 != 123456789 {
		t.Fatalf("ReadU32 = %v, %v", u32, err)
	}
	f64, err := r.ReadF64()
	if err != nil || f64 != 3.14159265 {
		t.Fatalf("ReadF64 = %v, %v", f64, err)
	}
	s, err := r.ReadUTF8(8)
	if err != nil || s != "hello" {
		t.Fatalf("ReadUTF8 = %q, %v", s, err)
	}
}

func TestByteReaderShortReadIsIoError(t *testing.T) {
	r := NewByteReader(newMemStream([]byte{0x01}))
	if _, err := r.ReadU32(); err != ErrIo {
		t.Fatalf("expected ErrIo, got %v", err)
	}
}

func TestByteReaderSeekAdvanceTell(t *testing.T) {
	r := NewByteReader(newMemStream([]byte{0, 1, 2, 3, 4, 5, 6, 7}))
	if err := r.Seek(4); err != nil {
		t.Fatal(err)
	}
	pos, err := r.Tell()
	if err != nil || pos != 4 {
		t.Fatalf("Tell = %d, %v", pos, err)
	}
	v, err := r.ReadU8()
	if err != nil || v != 4 {
		t.Fatalf("ReadU8 after seek = %v, %v", v, err)
	}
	if err := r.Advance(2); err != nil {
		t.Fatal(err)
	}
	v, err = r.ReadU8()
	if err != nil || v != 7 {
		t.Fatalf("ReadU8 after advance = %v, %v", v, err)
	}
}

func TestByteWriterPadding(t *testing.T) {
	w := NewByteWriter()
	w.WriteU8(1)
	w.WriteU8(2)
	w.WriteU8(3)
	w.Padding()
	if w.Len()%4 != 0 {
		t.Fatalf("expected length multiple of 4, got %d", w.Len())
	}
}

func TestByteReaderPaddingAdvancesToBoundary(t *testing.T) {
	r := NewByteReader(newMemStream(make([]byte, 16)))
	if err := r.Advance(3); err != nil {
		t.Fatal(err)
	}
	if err := r.Padding(); err != nil {
		t.Fatal(err)
	}
	pos, _ := r.Tell()
	if pos != 4 {
		t.Fatalf("expected position 4, got %d", pos)
	}
}

func TestReadUTF8TruncatesAtNul(t *testing.T) {
	buf := make([]byte, 10)
	copy(buf, "abc")
	r := NewByteReader(newMemStream(buf))
	s, err := r.ReadUTF8(10)
	if err != nil {
		t.Fatal(err)
	}
	if s != "abc" {
		t.Fatalf("expected %q, got %q", "abc", s)
	}
}

var _ io.Seeker = (*memStream)(nil)
