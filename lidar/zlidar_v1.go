package lidar

import (
	"encoding/binary"
	"os"
	"time"

	terrane "github.com/kestrel-gis/terrane"
)

// This file implements the legacy columnar v1.0 ZLidar layout described in
// spec.md §4.4.3: a per-block field table of (code, offset, length) triples
// into a single uncompressed raw buffer, with coordinates stored as plain
// first-order deltas rather than the v1.1 context-predicted scheme. It
// exists purely for back-compatibility with files stamped version 1.0;
// WriteZLidar (zlidar.go) always produces v1.1 output.

// v1FieldEntry describes one field's byte range within a v1.0 block's raw
// payload buffer.
type v1FieldEntry struct {
	code   uint8
	offset uint32
	length uint32
}

// v1FieldList mirrors the v1.1 field set but omits the change byte, which
// is a v1.1-only bookkeeping field with no v1.0 equivalent.
func v1FieldList(caps Capabilities) []uint8 {
	fields := []uint8{fieldScannerChannel, fieldReturnNumber, fieldNumberOfReturns,
		fieldX, fieldY, fieldZ, fieldIntensity, fieldFlags, fieldClassification,
		fieldUserData, fieldScanAngle, fieldPointSourceID}
	if caps.GPSTime {
		fields = append(fields, fieldGPSTime)
	}
	if caps.RGB {
		fields = append(fields, fieldRed, fieldGreen, fieldBlue)
	}
	if caps.NIR {
		fields = append(fields, fieldNIR)
	}
	return fields
}

// encodeCoordAxisV1 stores values as plain first-order deltas from the
// previous point in the block (block-global, not split by scanner channel),
// per spec.md §4.4.3's "raw 4-byte deltas for coordinates" description of
// version 1.0.
func encodeCoordAxisV1(values []int32, start, count int) []byte {
	buf := make([]byte, count*4)
	var last int32
	for k := 0; k < count; k++ {
		v := values[start+k]
		d := v - last
		binary.LittleEndian.PutUint32(buf[k*4:], uint32(d))
		last = v
	}
	return buf
}

func decodeCoordAxisV1(data []byte, count int) []int32 {
	out := make([]int32, count)
	var last int32
	for k := 0; k < count; k++ {
		d := int32(binary.LittleEndian.Uint32(data[k*4:]))
		v := last + d
		out[k] = v
		last = v
	}
	return out
}

// encodeFieldV1 returns code's raw, uncompressed payload for points
// [start,start+count), or nil for an unknown code.
func encodeFieldV1(points *PointCloud, start, count int, code uint8) []byte {
	switch code {
	case fieldScannerChannel:
		return append([]byte(nil), points.ScannerChannel[start:start+count]...)
	case fieldReturnNumber:
		return append([]byte(nil), points.ReturnNumber[start:start+count]...)
	case fieldNumberOfReturns:
		return append([]byte(nil), points.NumberOfReturns[start:start+count]...)
	case fieldX:
		return encodeCoordAxisV1(points.X, start, count)
	case fieldY:
		return encodeCoordAxisV1(points.Y, start, count)
	case fieldZ:
		return encodeCoordAxisV1(points.Z, start, count)
	case fieldIntensity:
		return encodeU16Slice(points.Intensity, start, count)
	case fieldFlags:
		return encodeFlagsByte(points, start, count)
	case fieldClassification:
		return append([]byte(nil), points.Classification[start:start+count]...)
	case fieldUserData:
		return append([]byte(nil), points.UserData[start:start+count]...)
	case fieldScanAngle:
		return encodeScanAngle(points, start, count)
	case fieldPointSourceID:
		return encodeU16Slice(points.PointSourceID, start, count)
	case fieldGPSTime:
		return encodeGPSTime(points, start, count)
	case fieldRed:
		return encodeU16Slice(points.Red, start, count)
	case fieldGreen:
		return encodeU16Slice(points.Green, start, count)
	case fieldBlue:
		return encodeU16Slice(points.Blue, start, count)
	case fieldNIR:
		return encodeU16Slice(points.NIR, start, count)
	default:
		return nil
	}
}

func decodeFieldV1(points *PointCloud, start, count int, code uint8, data []byte) {
	switch code {
	case fieldScannerChannel:
		copy(points.ScannerChannel[start:start+count], data)
	case fieldReturnNumber:
		copy(points.ReturnNumber[start:start+count], data)
	case fieldNumberOfReturns:
		copy(points.NumberOfReturns[start:start+count], data)
	case fieldX:
		copy(points.X[start:start+count], decodeCoordAxisV1(data, count))
	case fieldY:
		copy(points.Y[start:start+count], decodeCoordAxisV1(data, count))
	case fieldZ:
		copy(points.Z[start:start+count], decodeCoordAxisV1(data, count))
	case fieldIntensity:
		decodeU16Slice(points.Intensity, start, count, data)
	case fieldFlags:
		decodeFlagsByte(points, start, count, data)
	case fieldClassification:
		copy(points.Classification[start:start+count], data)
	case fieldUserData:
		copy(points.UserData[start:start+count], data)
	case fieldScanAngle:
		decodeScanAngle(points, start, count, data)
	case fieldPointSourceID:
		decodeU16Slice(points.PointSourceID, start, count, data)
	case fieldGPSTime:
		decodeGPSTime(points, start, count, data)
	case fieldRed:
		decodeU16Slice(points.Red, start, count, data)
	case fieldGreen:
		decodeU16Slice(points.Green, start, count, data)
	case fieldBlue:
		decodeU16Slice(points.Blue, start, count, data)
	case fieldNIR:
		decodeU16Slice(points.NIR, start, count, data)
	}
}

// encodeBlockV1 writes one v1.0 block: point count, field table, then the
// concatenated raw payload the table's offsets index into.
func encodeBlockV1(w *terrane.ByteWriter, points *PointCloud, start, count int, fields []uint8) {
	w.WriteU32(uint32(count))
	w.WriteU8(uint8(len(fields)))

	payloads := make([][]byte, len(fields))
	var offset uint32
	for i, code := range fields {
		payloads[i] = encodeFieldV1(points, start, count, code)
		w.WriteU8(code)
		w.WriteU32(offset)
		w.WriteU32(uint32(len(payloads[i])))
		offset += uint32(len(payloads[i]))
	}

	w.WriteU32(offset)
	for _, p := range payloads {
		w.WriteBytes(p)
	}
}

// WriteZLidarV1 writes points in the legacy columnar v1.0 layout. Present
// for symmetry with readZLidarV1 and for tests exercising the
// back-compatibility path; current tooling always writes v1.1 via
// WriteZLidar.
func WriteZLidarV1(path string, h *Header, points *PointCloud) error {
	out := *h
	out.VersionMajor, out.VersionMinor = 1, 0
	out.NumberOfPoints = uint64(points.Len())
	out.StampCreationDate(time.Now())

	const headerSize = 235
	out.HeaderSize = headerSize
	out.OffsetToPoints = headerSize

	w := terrane.NewByteWriter()
	WriteHeader(w, &out, true)

	caps := CapabilitiesFor(points.Format)
	fields := v1FieldList(caps)

	n := points.Len()
	start := 0
	for {
		count := BlockSize
		if start+count > n {
			count = n - start
		}
		encodeBlockV1(w, points, start, count, fields)
		start += count
		if start >= n {
			break
		}
	}

	return os.WriteFile(path, w.Bytes(), 0o644)
}

// readZLidarV1 reads the legacy columnar v1.0 layout, recognised for
// back-compatibility per spec.md §4.4.3.
func readZLidarV1(r *terrane.ByteReader, h *Header) (*LasFile, error) {
	if err := r.Seek(int64(h.HeaderSize)); err != nil {
		return nil, err
	}

	points := NewPointCloud(h.PointFormat, int(h.NumberOfPoints))

	remaining := int(h.NumberOfPoints)
	pos := 0
	for remaining > 0 || pos == 0 {
		count32, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		count := int(count32)

		numFields, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		entries := make([]v1FieldEntry, numFields)
		for i := range entries {
			code, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			off, err := r.ReadU32()
			if err != nil {
				return nil, err
			}
			length, err := r.ReadU32()
			if err != nil {
				return nil, err
			}
			entries[i] = v1FieldEntry{code: code, offset: off, length: length}
		}

		totalLen, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		raw, err := readNBytes(r, int(totalLen))
		if err != nil {
			return nil, err
		}

		for _, e := range entries {
			if e.length == 0 {
				continue
			}
			data := raw[e.offset : e.offset+e.length]
			decodeFieldV1(points, pos, count, e.code, data)
		}

		pos += count
		remaining -= count
		if count == 0 {
			break
		}
	}

	return &LasFile{Header: h, Points: points}, nil
}
