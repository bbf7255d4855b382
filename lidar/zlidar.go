package lidar

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"time"

	terrane "github.com/kestrel-gis/terrane"
)

// BlockSize is the fixed point count per ZLidar block, per spec.md §4.4.3.
const BlockSize = 50000

// Field codes for the columnar v1.1 (version >= 1.1) layout.
const (
	fieldChangeByte      = 0
	fieldScannerChannel  = 1
	fieldReturnNumber    = 2
	fieldNumberOfReturns = 3
	fieldX               = 4
	fieldY               = 5
	fieldZ               = 6
	fieldIntensity       = 7
	fieldFlags           = 8
	fieldClassification  = 9
	fieldUserData        = 10
	fieldScanAngle       = 11
	fieldPointSourceID   = 12
	fieldGPSTime         = 13
	fieldRed             = 14
	fieldGreen           = 15
	fieldBlue            = 16
	fieldNIR             = 17
)

// returnPositionClass classifies a return by its position within its pulse:
// 0 = only, 1 = last, 2 = intermediate, 3 = first — the ordering spec.md
// §4.4.3 uses to build the 16-value coordinate predictor context.
func returnPositionClass(returnNumber, numberOfReturns uint8) uint8 {
	if numberOfReturns <= 1 {
		return 0
	}
	if returnNumber >= numberOfReturns {
		return 1
	}
	if returnNumber <= 1 {
		return 3
	}
	return 2
}

// tagEncode maps a signed delta onto the 4-bit tag scheme of §4.4.3's
// coordinate streams, returning the tag and any extra bytes (little-endian
// signed) that must follow in the value stream.
func tagEncode(delta int32) (tag uint8, extra []byte) {
	if delta >= -6 && delta <= 6 {
		return uint8(delta + 6), nil
	}
	if delta >= -128 && delta <= 127 {
		return 13, []byte{byte(int8(delta))}
	}
	if delta >= -32768 && delta <= 32767 {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(int16(delta)))
		return 14, b
	}
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(delta))
	return 15, b
}

func tagDecodeExtraLen(tag uint8) int {
	switch tag {
	case 13:
		return 1
	case 14:
		return 2
	case 15:
		return 4
	default:
		return 0
	}
}

func tagDecode(tag uint8, extra []byte) int32 {
	switch tag {
	case 13:
		return int32(int8(extra[0]))
	case 14:
		return int32(int16(binary.LittleEndian.Uint16(extra)))
	case 15:
		return int32(binary.LittleEndian.Uint32(extra))
	default:
		return int32(tag) - 6
	}
}

// nibbleWriter packs 4-bit tags two-to-a-byte.
type nibbleWriter struct {
	buf  bytes.Buffer
	high bool
	cur  byte
}

func (w *nibbleWriter) write(tag uint8) {
	if !w.high {
		w.cur = tag & 0x0F
		w.high = true
	} else {
		w.buf.WriteByte(w.cur | (tag&0x0F)<<4)
		w.high = false
	}
}

func (w *nibbleWriter) bytes() []byte {
	if w.high {
		w.buf.WriteByte(w.cur)
	}
	return w.buf.Bytes()
}

type nibbleReader struct {
	data []byte
	pos  int
	high bool
}

func newNibbleReader(data []byte) *nibbleReader { return &nibbleReader{data: data} }

func (r *nibbleReader) read() uint8 {
	b := r.data[r.pos]
	if !r.high {
		r.high = true
		return b & 0x0F
	}
	r.high = false
	r.pos++
	return (b >> 4) & 0x0F
}

// channelState carries the coordinate/z predictor registers for one
// scanner channel across an encode or decode pass, reset at the start of
// every block.
type channelState struct {
	lastX, lastY  int32
	ctxX, ctxY    [16]int32
	zLate, zEarly int32
	lastGPS       float64
}

func newChannelStates() map[uint8]*channelState {
	return make(map[uint8]*channelState)
}

func stateFor(states map[uint8]*channelState, channel uint8) *channelState {
	s, ok := states[channel]
	if !ok {
		s = &channelState{}
		states[channel] = s
	}
	return s
}

// coordStream holds the packed tag nibbles and the value-stream bytes for
// one coordinate axis across a block.
type coordStream struct {
	tags   *nibbleWriter
	values bytes.Buffer
}

func encodeCoordAxis(values []int32, start, count int, channel []uint8, returnNumber, numberOfReturns []uint8) (tagBytes, valueBytes []byte) {
	states := newChannelStates()
	tw := &nibbleWriter{}
	var vw bytes.Buffer
	var prevClass uint8

	for k := 0; k < count; k++ {
		i := start + k
		st := stateFor(states, channel[i])
		cls := returnPositionClass(returnNumber[i], numberOfReturns[i])

		if k == 0 {
			tag, extra := tagEncode(values[i])
			tw.write(tag)
			vw.Write(extra)
			st.lastX = values[i]
			prevClass = cls
			continue
		}

		d1 := values[i] - st.lastX
		ctx := cls*4 + prevClass
		d2 := d1 - st.ctxX[ctx]

		tag, extra := tagEncode(d2)
		tw.write(tag)
		vw.Write(extra)

		st.ctxX[ctx] = d1
		st.lastX = values[i]
		prevClass = cls
	}

	return tw.bytes(), vw.Bytes()
}

// encodeYAxis mirrors encodeCoordAxis but keeps Y's registers distinct from
// X's (both share the channelState struct, using its ctxY/lastY fields).
func encodeYAxis(values []int32, start, count int, channel []uint8, returnNumber, numberOfReturns []uint8) (tagBytes, valueBytes []byte) {
	states := newChannelStates()
	tw := &nibbleWriter{}
	var vw bytes.Buffer
	var prevClass uint8

	for k := 0; k < count; k++ {
		i := start + k
		st := stateFor(states, channel[i])
		cls := returnPositionClass(returnNumber[i], numberOfReturns[i])

		if k == 0 {
			tag, extra := tagEncode(values[i])
			tw.write(tag)
			vw.Write(extra)
			st.lastY = values[i]
			prevClass = cls
			continue
		}

		d1 := values[i] - st.lastY
		ctx := cls*4 + prevClass
		d2 := d1 - st.ctxY[ctx]

		tag, extra := tagEncode(d2)
		tw.write(tag)
		vw.Write(extra)

		st.ctxY[ctx] = d1
		st.lastY = values[i]
		prevClass = cls
	}

	return tw.bytes(), vw.Bytes()
}

func encodeZAxis(values []int32, start, count int, channel []uint8, isLate []bool) (tagBytes, valueBytes []byte) {
	states := newChannelStates()
	tw := &nibbleWriter{}
	var vw bytes.Buffer

	for k := 0; k < count; k++ {
		i := start + k
		st := stateFor(states, channel[i])

		var predicted int32
		if isLate[i] {
			predicted = st.zLate
		} else {
			predicted = st.zEarly
		}
		delta := values[i] - predicted
		tag, extra := tagEncode(delta)
		tw.write(tag)
		vw.Write(extra)

		if isLate[i] {
			st.zLate = values[i]
		} else {
			st.zEarly = values[i]
		}
	}

	return tw.bytes(), vw.Bytes()
}

func decodeCoordAxisX(tagData, valueData []byte, count int, channel []uint8, returnNumber, numberOfReturns []uint8) []int32 {
	states := newChannelStates()
	nr := newNibbleReader(tagData)
	vpos := 0
	out := make([]int32, count)
	var prevClass uint8

	for k := 0; k < count; k++ {
		st := stateFor(states, channel[k])
		cls := returnPositionClass(returnNumber[k], numberOfReturns[k])
		tag := nr.read()
		n := tagDecodeExtraLen(tag)
		extra := valueData[vpos : vpos+n]
		vpos += n
		raw := tagDecode(tag, extra)

		if k == 0 {
			out[k] = raw
			st.lastX = raw
			prevClass = cls
			continue
		}

		ctx := cls*4 + prevClass
		d1 := raw + st.ctxX[ctx]
		x := st.lastX + d1

		out[k] = x
		st.ctxX[ctx] = d1
		st.lastX = x
		prevClass = cls
	}
	return out
}

func decodeCoordAxisY(tagData, valueData []byte, count int, channel []uint8, returnNumber, numberOfReturns []uint8) []int32 {
	states := newChannelStates()
	nr := newNibbleReader(tagData)
	vpos := 0
	out := make([]int32, count)
	var prevClass uint8

	for k := 0; k < count; k++ {
		st := stateFor(states, channel[k])
		cls := returnPositionClass(returnNumber[k], numberOfReturns[k])
		tag := nr.read()
		n := tagDecodeExtraLen(tag)
		extra := valueData[vpos : vpos+n]
		vpos += n
		raw := tagDecode(tag, extra)

		if k == 0 {
			out[k] = raw
			st.lastY = raw
			prevClass = cls
			continue
		}

		ctx := cls*4 + prevClass
		d1 := raw + st.ctxY[ctx]
		y := st.lastY + d1

		out[k] = y
		st.ctxY[ctx] = d1
		st.lastY = y
		prevClass = cls
	}
	return out
}

func decodeZAxis(tagData, valueData []byte, count int, channel []uint8, isLate []bool) []int32 {
	states := newChannelStates()
	nr := newNibbleReader(tagData)
	vpos := 0
	out := make([]int32, count)

	for k := 0; k < count; k++ {
		st := stateFor(states, channel[k])
		tag := nr.read()
		n := tagDecodeExtraLen(tag)
		extra := valueData[vpos : vpos+n]
		vpos += n
		delta := tagDecode(tag, extra)

		var predicted int32
		if isLate[k] {
			predicted = st.zLate
		} else {
			predicted = st.zEarly
		}
		z := predicted + delta
		out[k] = z
		if isLate[k] {
			st.zLate = z
		} else {
			st.zEarly = z
		}
	}
	return out
}

// WriteZLidarV1(path, ...) lives in zlidar_v1.go; this file implements the
// columnar v2 (version >= 1.1) layout described in spec.md §4.4.3.

// WriteZLidar writes points as a ZLidar v1.1 file. method/level select the
// pluggable block compressor.
func WriteZLidar(path string, h *Header, points *PointCloud, method CompressionMethod, level int) error {
	out := *h
	out.VersionMajor, out.VersionMinor = 1, 1
	out.NumberOfPoints = uint64(points.Len())
	out.StampCreationDate(time.Now())

	caps := CapabilitiesFor(points.Format)
	fieldList := []uint8{fieldChangeByte, fieldScannerChannel, fieldReturnNumber, fieldNumberOfReturns,
		fieldX, fieldY, fieldZ, fieldIntensity, fieldFlags, fieldClassification, fieldUserData,
		fieldScanAngle, fieldPointSourceID}
	if caps.GPSTime {
		fieldList = append(fieldList, fieldGPSTime)
	}
	if caps.RGB {
		fieldList = append(fieldList, fieldRed, fieldGreen, fieldBlue)
	}
	if caps.NIR {
		fieldList = append(fieldList, fieldNIR)
	}

	const headerSize = 235
	out.HeaderSize = headerSize
	out.OffsetToPoints = headerSize

	w := terrane.NewByteWriter()
	WriteHeader(w, &out, true)

	w.WriteU8(uint8(len(fieldList)))
	w.WriteU8(compressionByte(method, level))
	w.WriteU8(1) // major
	w.WriteU8(1) // minor

	n := points.Len()
	for start := 0; start < n || (n == 0 && start == 0); start += BlockSize {
		count := BlockSize
		if start+count > n {
			count = n - start
		}
		if n == 0 {
			count = 0
		}
		if err := encodeBlock(w, points, start, count, fieldList, method, level); err != nil {
			return err
		}
		if n == 0 {
			break
		}
	}

	return os.WriteFile(path, w.Bytes(), 0o644)
}

func isLateSlice(points *PointCloud, start, count int) []bool {
	out := make([]bool, points.Len())
	for k := 0; k < count; k++ {
		i := start + k
		out[i] = points.IsLateReturn(i)
	}
	return out
}

func encodeBlock(w *terrane.ByteWriter, points *PointCloud, start, count int, fields []uint8, method CompressionMethod, level int) error {
	w.WriteU32(uint32(count))

	isLate := isLateSlice(points, start, count)

	for _, code := range fields {
		var payload []byte
		var tagPayload []byte
		hasTwoStreams := false

		switch code {
		case fieldChangeByte:
			payload = encodeChangeBytes(points, start, count)
		case fieldScannerChannel:
			payload = points.ScannerChannel[start : start+count]
		case fieldReturnNumber:
			payload = points.ReturnNumber[start : start+count]
		case fieldNumberOfReturns:
			payload = points.NumberOfReturns[start : start+count]
		case fieldX:
			tagPayload, payload = encodeCoordAxis(points.X, start, count, points.ScannerChannel, points.ReturnNumber, points.NumberOfReturns)
			hasTwoStreams = true
		case fieldY:
			tagPayload, payload = encodeYAxis(points.Y, start, count, points.ScannerChannel, points.ReturnNumber, points.NumberOfReturns)
			hasTwoStreams = true
		case fieldZ:
			tagPayload, payload = encodeZAxis(points.Z, start, count, points.ScannerChannel, isLate)
			hasTwoStreams = true
		case fieldIntensity:
			payload = encodeIntensity(points, start, count)
		case fieldFlags:
			payload = encodeFlagsByte(points, start, count)
		case fieldClassification:
			payload = points.Classification[start : start+count]
		case fieldUserData:
			payload = points.UserData[start : start+count]
		case fieldScanAngle:
			payload = encodeScanAngle(points, start, count)
		case fieldPointSourceID:
			payload = encodeU16Slice(points.PointSourceID, start, count)
		case fieldGPSTime:
			payload = encodeGPSTime(points, start, count)
		case fieldRed:
			payload = encodeU16Slice(points.Red, start, count)
		case fieldGreen:
			payload = encodeU16Slice(points.Green, start, count)
		case fieldBlue:
			payload = encodeU16Slice(points.Blue, start, count)
		case fieldNIR:
			payload = encodeU16Slice(points.NIR, start, count)
		}

		compressed, err := compressBlock(payload, method, level)
		if err != nil {
			return err
		}

		w.WriteU8(code)
		if hasTwoStreams {
			compressedTag, err := compressBlock(tagPayload, method, level)
			if err != nil {
				return err
			}
			w.WriteU32(uint32(len(compressedTag)))
			w.WriteBytes(compressedTag)
		}
		w.WriteU32(uint32(len(compressed)))
		w.WriteBytes(compressed)
	}

	return nil
}

func encodeChangeBytes(points *PointCloud, start, count int) []byte {
	out := make([]byte, count)
	for k := 0; k < count; k++ {
		i := start + k
		var b byte
		if k > 0 {
			prev := start + k - 1
			if points.ScannerChannel[i] != points.ScannerChannel[prev] {
				b |= 0x01
			}
			if gpsChanged(points, i, prev) {
				b |= 0x02
			}
			switch int(points.ReturnNumber[i]) - int(points.ReturnNumber[prev]) {
			case 0:
				// bits 2-3 = 0
			case 1:
				b |= 0x04
			case -1:
				b |= 0x08
			default:
				b |= 0x0C
			}
			if points.NumberOfReturns[i] != points.NumberOfReturns[prev] {
				b |= 0x10
			}
			if points.Classification[i] != points.Classification[prev] {
				b |= 0x20
			}
			if points.ScanAngle[i] != points.ScanAngle[prev] {
				b |= 0x40
			}
		} else {
			b |= 0x0C // first point: explicit return-number value
		}
		if points.Intensity[i] >= 256 {
			b |= 0x80
		}
		out[k] = b
	}
	return out
}

func gpsChanged(points *PointCloud, i, prev int) bool {
	if points.GPSTime == nil {
		return false
	}
	return points.GPSTime[i] != points.GPSTime[prev]
}

// encodeIntensity stores a leading packed bitmap marking which points need
// the wide (2-byte) encoding, per the change-byte's bit 7 semantics in
// spec.md §4.4.3, followed by the variable-width value stream itself.
func encodeIntensity(points *PointCloud, start, count int) []byte {
	bitmap := make([]byte, (count+7)/8)
	for k := 0; k < count; k++ {
		if points.Intensity[start+k] >= 256 {
			bitmap[k/8] |= 1 << uint(k%8)
		}
	}
	var buf bytes.Buffer
	buf.Write(bitmap)
	for k := 0; k < count; k++ {
		v := points.Intensity[start+k]
		if v < 256 {
			buf.WriteByte(byte(v))
		} else {
			b := make([]byte, 2)
			binary.LittleEndian.PutUint16(b, v)
			buf.Write(b)
		}
	}
	return buf.Bytes()
}

func encodeFlagsByte(points *PointCloud, start, count int) []byte {
	out := make([]byte, count)
	for k := 0; k < count; k++ {
		i := start + k
		var b byte
		if points.ScanDirectionFlag[i] {
			b |= 0x01
		}
		if points.EdgeOfFlightLine[i] {
			b |= 0x02
		}
		if points.Synthetic[i] {
			b |= 0x04
		}
		if points.KeyPoint[i] {
			b |= 0x08
		}
		if points.Withheld[i] {
			b |= 0x10
		}
		if points.Overlap[i] {
			b |= 0x20
		}
		out[k] = b
	}
	return out
}

func encodeScanAngle(points *PointCloud, start, count int) []byte {
	var buf bytes.Buffer
	for k := 0; k < count; k++ {
		v := int16(points.ScanAngle[start+k] / 0.006)
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(v))
		buf.Write(b)
	}
	return buf.Bytes()
}

func encodeU16Slice(values []uint16, start, count int) []byte {
	buf := make([]byte, count*2)
	for k := 0; k < count; k++ {
		binary.LittleEndian.PutUint16(buf[k*2:], values[start+k])
	}
	return buf
}

func encodeGPSTime(points *PointCloud, start, count int) []byte {
	var buf bytes.Buffer
	for k := 0; k < count; k++ {
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, math.Float64bits(points.GPSTime[start+k]))
		buf.Write(b)
	}
	return buf.Bytes()
}

// ReadZLidar reads a ZLidar file (either on-disk version) and returns a
// decoded LasFile, dispatching on the header's stored version.
func ReadZLidar(path string) (*LasFile, error) {
	buf, err := readWholeFile(path)
	if err != nil {
		return nil, err
	}
	r := terrane.NewByteReader(bytes.NewReader(buf))
	h, err := ReadHeader(r, true)
	if err != nil {
		return nil, err
	}

	if h.VersionMajor == 1 && h.VersionMinor == 0 {
		return readZLidarV1(r, h)
	}
	return readZLidarV1_1(r, h)
}

// ReadZLidarHeaderOnly mirrors ReadLASHeaderOnly for the ZLDR signature,
// letting the tile pipeline's planning phase learn a ZLidar input's bbox in
// O(header size) the same way it does for a bare LAS file.
func ReadZLidarHeaderOnly(path string) (*Header, []*VLR, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, terrane.ErrIo
	}
	defer f.Close()
	r := terrane.NewByteReader(f)
	h, err := ReadHeader(r, true)
	if err != nil {
		return nil, nil, err
	}
	if err := r.Seek(int64(h.HeaderSize)); err != nil {
		return nil, nil, err
	}
	vlrs, err := ReadVLRs(r, h.NumberOfVLRs)
	if err != nil {
		return nil, nil, err
	}
	return h, vlrs, nil
}

func readZLidarV1_1(r *terrane.ByteReader, h *Header) (*LasFile, error) {
	if err := r.Seek(int64(h.HeaderSize)); err != nil {
		return nil, err
	}
	numFields, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	compByte, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	method, _ := decodeCompressionByte(compByte)
	if _, err := r.ReadU8(); err != nil { // major
		return nil, err
	}
	if _, err := r.ReadU8(); err != nil { // minor
		return nil, err
	}

	caps := CapabilitiesFor(h.PointFormat)
	points := NewPointCloud(h.PointFormat, int(h.NumberOfPoints))

	remaining := int(h.NumberOfPoints)
	pos := 0
	for remaining > 0 || pos == 0 {
		count32, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		count := int(count32)
		if err := decodeBlock(r, points, pos, count, int(numFields), method, caps); err != nil {
			return nil, err
		}
		pos += count
		remaining -= count
		if count == 0 {
			break
		}
	}

	return &LasFile{Header: h, Points: points}, nil
}

func decodeBlock(r *terrane.ByteReader, points *PointCloud, start, count, numFields int, method CompressionMethod, caps Capabilities) error {
	isLate := make([]bool, count)

	var xTag, xVal, yTag, yVal, zTag, zVal []byte

	for f := 0; f < numFields; f++ {
		code, err := r.ReadU8()
		if err != nil {
			return err
		}
		twoStreams := code == fieldX || code == fieldY || code == fieldZ

		var tagBytes, valBytes []byte
		if twoStreams {
			tagLen, err := r.ReadU32()
			if err != nil {
				return err
			}
			tagRaw, err := readNBytes(r, int(tagLen))
			if err != nil {
				return err
			}
			tagBytes, err = decompressBlock(tagRaw, method)
			if err != nil {
				return err
			}
		}
		valLen, err := r.ReadU32()
		if err != nil {
			return err
		}
		valRaw, err := readNBytes(r, int(valLen))
		if err != nil {
			return err
		}
		valBytes, err = decompressBlock(valRaw, method)
		if err != nil {
			return err
		}

		switch code {
		case fieldChangeByte:
			decodeChangeBytes(points, start, count, valBytes)
		case fieldScannerChannel:
			copy(points.ScannerChannel[start:start+count], valBytes)
		case fieldReturnNumber:
			copy(points.ReturnNumber[start:start+count], valBytes)
		case fieldNumberOfReturns:
			copy(points.NumberOfReturns[start:start+count], valBytes)
		case fieldX:
			xTag, xVal = tagBytes, valBytes
		case fieldY:
			yTag, yVal = tagBytes, valBytes
		case fieldZ:
			zTag, zVal = tagBytes, valBytes
		case fieldIntensity:
			decodeIntensity(points, start, count, valBytes)
		case fieldFlags:
			decodeFlagsByte(points, start, count, valBytes)
		case fieldClassification:
			copy(points.Classification[start:start+count], valBytes)
		case fieldUserData:
			copy(points.UserData[start:start+count], valBytes)
		case fieldScanAngle:
			decodeScanAngle(points, start, count, valBytes)
		case fieldPointSourceID:
			decodeU16Slice(points.PointSourceID, start, count, valBytes)
		case fieldGPSTime:
			decodeGPSTime(points, start, count, valBytes)
		case fieldRed:
			decodeU16Slice(points.Red, start, count, valBytes)
		case fieldGreen:
			decodeU16Slice(points.Green, start, count, valBytes)
		case fieldBlue:
			decodeU16Slice(points.Blue, start, count, valBytes)
		case fieldNIR:
			decodeU16Slice(points.NIR, start, count, valBytes)
		}
	}

	for k := 0; k < count; k++ {
		isLate[k] = points.ReturnNumber[start+k] == 0 || points.ReturnNumber[start+k] >= points.NumberOfReturns[start+k]
	}

	if xVal != nil {
		xs := decodeCoordAxisX(xTag, xVal, count, points.ScannerChannel[start:start+count], points.ReturnNumber[start:start+count], points.NumberOfReturns[start:start+count])
		copy(points.X[start:start+count], xs)
	}
	if yVal != nil {
		ys := decodeCoordAxisY(yTag, yVal, count, points.ScannerChannel[start:start+count], points.ReturnNumber[start:start+count], points.NumberOfReturns[start:start+count])
		copy(points.Y[start:start+count], ys)
	}
	if zVal != nil {
		zs := decodeZAxis(zTag, zVal, count, points.ScannerChannel[start:start+count], isLate)
		copy(points.Z[start:start+count], zs)
	}

	return nil
}

func readNBytes(r *terrane.ByteReader, n int) ([]byte, error) {
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		b, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		buf[i] = b
	}
	return buf, nil
}

// decodeChangeBytes is a no-op on read: every other field in v1.1 is
// self-describing (either a fixed-width raw column or, for intensity, its
// own leading width bitmap), so the change byte carries no information the
// decoder needs to reconstruct point data — only an encoder-side hint
// about which columns were worth delta-coding.
func decodeChangeBytes(points *PointCloud, start, count int, data []byte) {}

func decodeIntensity(points *PointCloud, start, count int, data []byte) {
	bitmapLen := (count + 7) / 8
	bitmap := data[:bitmapLen]
	pos := bitmapLen
	for k := 0; k < count; k++ {
		wide := bitmap[k/8]&(1<<uint(k%8)) != 0
		if wide {
			points.Intensity[start+k] = binary.LittleEndian.Uint16(data[pos : pos+2])
			pos += 2
		} else {
			points.Intensity[start+k] = uint16(data[pos])
			pos++
		}
	}
}

func decodeFlagsByte(points *PointCloud, start, count int, data []byte) {
	for k := 0; k < count; k++ {
		i := start + k
		b := data[k]
		points.ScanDirectionFlag[i] = b&0x01 != 0
		points.EdgeOfFlightLine[i] = b&0x02 != 0
		points.Synthetic[i] = b&0x04 != 0
		points.KeyPoint[i] = b&0x08 != 0
		points.Withheld[i] = b&0x10 != 0
		points.Overlap[i] = b&0x20 != 0
	}
}

func decodeScanAngle(points *PointCloud, start, count int, data []byte) {
	for k := 0; k < count; k++ {
		v := int16(binary.LittleEndian.Uint16(data[k*2:]))
		points.ScanAngle[start+k] = float64(v) * 0.006
	}
}

func decodeU16Slice(dst []uint16, start, count int, data []byte) {
	if dst == nil {
		return
	}
	for k := 0; k < count; k++ {
		dst[start+k] = binary.LittleEndian.Uint16(data[k*2:])
	}
}

func decodeGPSTime(points *PointCloud, start, count int, data []byte) {
	if points.GPSTime == nil {
		return
	}
	for k := 0; k < count; k++ {
		bits := binary.LittleEndian.Uint64(data[k*8:])
		points.GPSTime[start+k] = math.Float64frombits(bits)
	}
}
