package lidar

import (
	"bytes"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
)

// CompressionMethod selects the block codec used by a ZLidar file's
// columnar payloads, per spec.md §4.4.3's compression_byte low 3 bits.
type CompressionMethod uint8

const (
	CompressionDeflate CompressionMethod = 0
	CompressionBrotli  CompressionMethod = 1
)

// compressionByte packs method (low 3 bits) and level (high 5 bits) into
// the single byte the ZLidar v1.1 prelude carries.
func compressionByte(method CompressionMethod, level int) byte {
	return byte(method&0x07) | byte((level&0x1F)<<3)
}

func decodeCompressionByte(b byte) (CompressionMethod, int) {
	return CompressionMethod(b & 0x07), int((b >> 3) & 0x1F)
}

func compressBlock(data []byte, method CompressionMethod, level int) ([]byte, error) {
	var buf bytes.Buffer
	switch method {
	case CompressionBrotli:
		w := brotli.NewWriterLevel(&buf, level)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	default:
		w, err := flate.NewWriter(&buf, level)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decompressBlock(data []byte, method CompressionMethod) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyBlock
	}
	var r io.Reader
	switch method {
	case CompressionBrotli:
		r = brotli.NewReader(bytes.NewReader(data))
	default:
		r = flate.NewReader(bytes.NewReader(data))
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if c, ok := r.(io.Closer); ok {
		_ = c.Close()
	}
	return out, nil
}
