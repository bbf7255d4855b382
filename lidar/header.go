package lidar

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/soniakeys/meeus/v3/julian"

	terrane "github.com/kestrel-gis/terrane"
)

const (
	lasSignature   = "LASF"
	zlidarSignature = "ZLDR"
)

// Header is the LAS/ZLidar file header described in spec.md §3/§6. Both
// codecs share this exact layout; ZLidar differs only in its signature and
// in what follows the header.
type Header struct {
	FileSourceID     uint16
	GlobalEncoding   uint16
	HasProjectID     bool
	ProjectID        uuid.UUID
	VersionMajor     uint8
	VersionMinor     uint8
	SystemID         string
	GeneratingSW     string
	CreationDay      uint16
	CreationYear     uint16
	HeaderSize       uint16
	OffsetToPoints   uint32
	NumberOfVLRs     uint32
	PointFormat      uint8
	PointRecordLen   uint16
	NumberOfPoints   uint64
	PointsByReturn   [15]uint64
	XScale, YScale, ZScale    float64
	XOffset, YOffset, ZOffset float64
	MaxX, MaxY, MaxZ float64
	MinX, MinY, MinZ float64
	WaveformStart    uint64
}

func (h *Header) is14() bool { return h.VersionMajor == 1 && h.VersionMinor >= 4 }
func (h *Header) is13Plus() bool {
	return h.VersionMajor > 1 || (h.VersionMajor == 1 && h.VersionMinor >= 3)
}

// ReadHeader parses a LAS- or ZLidar-compatible header starting at the
// current cursor position, following the §4.4.1 ParseHeader phase: the
// version bytes may sit at offset 8 (no project id) or offset 24 (with
// project id); we peek and pick based on whether the candidate version
// looks sane.
func ReadHeader(r *terrane.ByteReader, expectZLidar bool) (*Header, error) {
	sig, err := r.ReadUTF8(4)
	if err != nil {
		return nil, err
	}
	want := lasSignature
	if expectZLidar {
		want = zlidarSignature
	}
	if sig != want {
		return nil, terrane.ErrInvalidData
	}

	h := &Header{}
	h.FileSourceID, err = r.ReadU16()
	if err != nil {
		return nil, err
	}
	h.GlobalEncoding, err = r.ReadU16()
	if err != nil {
		return nil, err
	}

	if err := r.Seek(8); err != nil {
		return nil, err
	}
	candidateMajor, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	candidateMinor, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	legacyNoProjectID := candidateMajor == 1 && candidateMinor <= 5

	if err := r.Seek(8); err != nil {
		return nil, err
	}
	if legacyNoProjectID {
		h.HasProjectID = false
	} else {
		h.HasProjectID = true
		guidBytes := make([]byte, 16)
		for i := range guidBytes {
			b, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			guidBytes[i] = b
		}
		if id, err := uuid.FromBytes(guidBytes); err == nil {
			h.ProjectID = id
		}
	}

	h.VersionMajor, err = r.ReadU8()
	if err != nil {
		return nil, err
	}
	h.VersionMinor, err = r.ReadU8()
	if err != nil {
		return nil, err
	}
	if h.VersionMajor != 1 || h.VersionMinor > 4 {
		return nil, ErrUnsupportedVersion
	}

	h.SystemID, err = r.ReadUTF8(32)
	if err != nil {
		return nil, err
	}
	h.GeneratingSW, err = r.ReadUTF8(32)
	if err != nil {
		return nil, err
	}
	h.CreationDay, err = r.ReadU16()
	if err != nil {
		return nil, err
	}
	h.CreationYear, err = r.ReadU16()
	if err != nil {
		return nil, err
	}
	h.HeaderSize, err = r.ReadU16()
	if err != nil {
		return nil, err
	}
	h.OffsetToPoints, err = r.ReadU32()
	if err != nil {
		return nil, err
	}
	h.NumberOfVLRs, err = r.ReadU32()
	if err != nil {
		return nil, err
	}
	h.PointFormat, err = r.ReadU8()
	if err != nil {
		return nil, err
	}
	h.PointRecordLen, err = r.ReadU16()
	if err != nil {
		return nil, err
	}

	numPoints32, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	h.NumberOfPoints = uint64(numPoints32)

	var byReturn5 [5]uint32
	for i := range byReturn5 {
		v, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		byReturn5[i] = v
		h.PointsByReturn[i] = lo.Max([]uint64{h.PointsByReturn[i], uint64(v)})
	}

	h.XScale, err = r.ReadF64()
	if err != nil {
		return nil, err
	}
	h.YScale, err = r.ReadF64()
	if err != nil {
		return nil, err
	}
	h.ZScale, err = r.ReadF64()
	if err != nil {
		return nil, err
	}
	h.XOffset, err = r.ReadF64()
	if err != nil {
		return nil, err
	}
	h.YOffset, err = r.ReadF64()
	if err != nil {
		return nil, err
	}
	h.ZOffset, err = r.ReadF64()
	if err != nil {
		return nil, err
	}
	h.MaxX, err = r.ReadF64()
	if err != nil {
		return nil, err
	}
	h.MaxY, err = r.ReadF64()
	if err != nil {
		return nil, err
	}
	h.MaxZ, err = r.ReadF64()
	if err != nil {
		return nil, err
	}
	h.MinX, err = r.ReadF64()
	if err != nil {
		return nil, err
	}
	h.MinY, err = r.ReadF64()
	if err != nil {
		return nil, err
	}
	h.MinZ, err = r.ReadF64()
	if err != nil {
		return nil, err
	}

	if h.is13Plus() {
		h.WaveformStart, err = r.ReadU64()
		if err != nil {
			return nil, err
		}
	}

	if h.is14() {
		numPoints64, err := r.ReadU64()
		if err != nil {
			return nil, err
		}
		if numPoints32 == 0 && numPoints64 != 0 {
			h.NumberOfPoints = numPoints64
		}
		for i := 0; i < 15; i++ {
			v, err := r.ReadU64()
			if err != nil {
				return nil, err
			}
			h.PointsByReturn[i] = lo.Max([]uint64{h.PointsByReturn[i], v})
		}
	}

	return h, nil
}

// WriteHeader serialises h in the fixed 235-byte LAS 1.3 layout (or ZLidar,
// if zlidar is true). h.HeaderSize is written as given; no padding is added
// to reach it.
func WriteHeader(w *terrane.ByteWriter, h *Header, zlidar bool) {
	if zlidar {
		w.WriteUTF8(zlidarSignature, 4)
	} else {
		w.WriteUTF8(lasSignature, 4)
	}
	w.WriteU16(h.FileSourceID)
	w.WriteU16(h.GlobalEncoding)

	guid := h.ProjectID
	if guid == uuid.Nil {
		guid = uuid.New()
	}
	guidBytes, _ := guid.MarshalBinary()
	for _, b := range guidBytes {
		w.WriteU8(b)
	}

	w.WriteU8(h.VersionMajor)
	w.WriteU8(h.VersionMinor)
	w.WriteUTF8(h.SystemID, 32)
	w.WriteUTF8(h.GeneratingSW, 32)
	w.WriteU16(h.CreationDay)
	w.WriteU16(h.CreationYear)
	w.WriteU16(h.HeaderSize)
	w.WriteU32(h.OffsetToPoints)
	w.WriteU32(h.NumberOfVLRs)
	w.WriteU8(h.PointFormat)
	w.WriteU16(h.PointRecordLen)
	w.WriteU32(uint32(h.NumberOfPoints))
	for i := 0; i < 5; i++ {
		w.WriteU32(uint32(h.PointsByReturn[i]))
	}
	w.WriteF64(h.XScale)
	w.WriteF64(h.YScale)
	w.WriteF64(h.ZScale)
	w.WriteF64(h.XOffset)
	w.WriteF64(h.YOffset)
	w.WriteF64(h.ZOffset)
	w.WriteF64(h.MaxX)
	w.WriteF64(h.MaxY)
	w.WriteF64(h.MaxZ)
	w.WriteF64(h.MinX)
	w.WriteF64(h.MinY)
	w.WriteF64(h.MinZ)
	w.WriteU64(h.WaveformStart)
}

// StampCreationDate fills CreationDay/CreationYear from now. The day-of-year
// is derived via a Julian day round-trip through soniakeys/meeus/julian
// (JD at UTC midnight of now, minus JD at UTC midnight of Jan 1), the same
// calendar-to-JD conversion the teacher's sensor timestamps route through
// on decode.
func (h *Header) StampCreationDate(now time.Time) {
	now = now.UTC()
	h.CreationYear = uint16(now.Year())

	jdNow := julian.CalendarGregorianToJD(now.Year(), int(now.Month()), float64(now.Day()))
	jdJan1 := julian.CalendarGregorianToJD(now.Year(), 1, 1)
	h.CreationDay = uint16(jdNow-jdJan1) + 1
}
