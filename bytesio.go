package terrane

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Stream is the generic seekable byte source that ByteReader decodes from.
// A single file on disk, an in-memory buffer, or a section of a larger
// container (e.g. the LAS entry inside a zip archive) all satisfy it. This
// mirrors the teacher's own Stream interface in reader.go, generalized from
// "tiledb handle or bytes.Reader" to "anything seekable".
type Stream interface {
	io.Reader
	io.Seeker
}

// ByteReader is a sequential and random-access little-endian binary cursor,
// per spec.md §4.1. It never recovers position on a failed read; the caller
// is expected to treat a ByteReader as consumed after an error.
type ByteReader struct {
	s Stream
}

// NewByteReader wraps a seekable byte source for little-endian decoding.
func NewByteReader(s Stream) *ByteReader {
	return &ByteReader{s: s}
}

// Tell reports the current cursor position.
func (r *ByteReader) Tell() (int64, error) {
	return r.s.Seek(0, io.SeekCurrent)
}

// Seek moves the cursor to an absolute byte position.
func (r *ByteReader) Seek(position int64) error {
	_, err := r.s.Seek(position, io.SeekStart)
	return err
}

// Advance moves the cursor forward n bytes relative to its current position.
func (r *ByteReader) Advance(n int64) error {
	_, err := r.s.Seek(n, io.SeekCurrent)
	return err
}

// Padding seeks forward to the next 4-byte boundary, per the LAS/ZLidar
// alignment requirement in spec.md §4.4.2.
func (r *ByteReader) Padding() error {
	pos, err := r.Tell()
	if err != nil {
		return err
	}
	pad := (4 - pos%4) % 4
	return r.Advance(pad)
}

func (r *ByteReader) read(buf []byte) error {
	_, err := io.ReadFull(r.s, buf)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return ErrIo
		}
		return err
	}
	return nil
}

func (r *ByteReader) ReadU8() (uint8, error) {
	var buf [1]byte
	if err := r.read(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (r *ByteReader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

func (r *ByteReader) ReadU16() (uint16, error) {
	var buf [2]byte
	if err := r.read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func (r *ByteReader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

func (r *ByteReader) ReadU32() (uint32, error) {
	var buf [4]byte
	if err := r.read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (r *ByteReader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *ByteReader) ReadU64() (uint64, error) {
	var buf [8]byte
	if err := r.read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func (r *ByteReader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

func (r *ByteReader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	return math.Float32frombits(v), err
}

func (r *ByteReader) ReadF64() (float64, error) {
	v, err := r.ReadU64()
	return math.Float64frombits(v), err
}

// ReadUTF8 reads exactly n bytes and decodes them as lossy UTF-8, stopping
// at the first NUL byte, per spec.md §4.1. Invalid byte sequences are
// replaced rather than causing a read failure; only a short read is an
// error.
func (r *ByteReader) ReadUTF8(n int) (string, error) {
	buf := make([]byte, n)
	if err := r.read(buf); err != nil {
		return "", err
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	decoder := unicode.UTF8.NewDecoder()
	sanitized, _, err := transform.Bytes(decoder, buf)
	if err != nil {
		// fall back to Go's own lossy conversion rather than failing the read;
		// a malformed string field is not grounds for aborting the file.
		return string(buf), nil
	}
	return string(sanitized), nil
}

// ByteWriter is the little-endian mirror of ByteReader, used by the LAS and
// ZLidar writers.
type ByteWriter struct {
	buf *bytes.Buffer
}

// NewByteWriter creates an in-memory little-endian byte writer.
func NewByteWriter() *ByteWriter {
	return &ByteWriter{buf: new(bytes.Buffer)}
}

func (w *ByteWriter) Bytes() []byte { return w.buf.Bytes() }
func (w *ByteWriter) Len() int      { return w.buf.Len() }

// WriteBytes appends a raw byte slice, used by callers that have already
// assembled a payload (e.g. a compressed ZLidar block).
func (w *ByteWriter) WriteBytes(b []byte) { w.buf.Write(b) }

func (w *ByteWriter) WriteU8(v uint8)   { w.buf.WriteByte(v) }
func (w *ByteWriter) WriteI8(v int8)    { w.buf.WriteByte(byte(v)) }

func (w *ByteWriter) WriteU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *ByteWriter) WriteI16(v int16) { w.WriteU16(uint16(v)) }

func (w *ByteWriter) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *ByteWriter) WriteI32(v int32) { w.WriteU32(uint32(v)) }

func (w *ByteWriter) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *ByteWriter) WriteI64(v int64) { w.WriteU64(uint64(v)) }

func (w *ByteWriter) WriteF32(v float32) { w.WriteU32(math.Float32bits(v)) }
func (w *ByteWriter) WriteF64(v float64) { w.WriteU64(math.Float64bits(v)) }

// WriteUTF8 writes s truncated/padded to exactly n bytes, NUL-padded.
func (w *ByteWriter) WriteUTF8(s string, n int) {
	b := make([]byte, n)
	copy(b, s)
	w.buf.Write(b)
}

// Padding writes zero bytes until the writer's length is a multiple of 4.
func (w *ByteWriter) Padding() {
	pad := (4 - w.Len()%4) % 4
	for i := 0; i < pad; i++ {
		w.buf.WriteByte(0)
	}
}
