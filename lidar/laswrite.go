package lidar

import (
	"fmt"
	"math"
	"os"
	"time"

	terrane "github.com/kestrel-gis/terrane"
)

// downgradeFormat maps a newer point format to the nearest LAS 1.3 format
// the writer supports, per spec.md §4.4.2. ok is false for formats with no
// documented downgrade target (6, 7), which are Unsupported to write.
func downgradeFormat(format uint8) (target uint8, downgraded bool, ok bool) {
	switch format {
	case 0, 1, 2, 3:
		return format, false, true
	case 4:
		return 1, true, true
	case 5:
		return 3, true, true
	case 8:
		return 3, true, true
	case 9:
		return 1, true, true
	case 10:
		return 3, true, true
	default:
		return 0, false, false
	}
}

// deriveScale picks a power-of-ten scale factor so that a 32-bit signed
// integer range covers extent with roughly 7-8 significant decimal digits,
// per spec.md §4.4.2.
func deriveScale(extent float64) float64 {
	if extent <= 0 {
		return 0.0001
	}
	digits := math.Ceil(math.Log10(extent))
	return math.Pow10(int(digits) - 8)
}

// WriteLAS writes points (already at the given format) to path as a LAS 1.3
// file, downgrading the format if required. vlrs are written verbatim
// between the header and the point records.
func WriteLAS(path string, h *Header, vlrs []*VLR, points *PointCloud) error {
	target, downgraded, ok := downgradeFormat(points.Format)
	if !ok {
		return terrane.ErrUnsupported
	}
	if downgraded {
		fmt.Printf("warning: downgrading point format %d to %d on LAS write (sibling data dropped)\n", points.Format, target)
		points = downgradePoints(points, target)
	}

	out := *h
	out.VersionMajor, out.VersionMinor = 1, 3
	out.PointFormat = target
	out.PointRecordLen = canonicalRecordLength(target)
	out.NumberOfPoints = uint64(points.Len())
	out.NumberOfVLRs = uint32(len(vlrs))
	out.StampCreationDate(time.Now())

	if out.XScale == 0 {
		out.XScale = deriveScale(out.MaxX - out.MinX)
	}
	if out.YScale == 0 {
		out.YScale = deriveScale(out.MaxY - out.MinY)
	}
	if out.ZScale == 0 {
		out.ZScale = deriveScale(out.MaxZ - out.MinZ)
	}

	const headerSize = 235 // LAS 1.3 fixed header size
	out.HeaderSize = headerSize

	vlrBytes := 0
	for _, v := range vlrs {
		vlrBytes += v.EncodedLen()
	}
	offset := headerSize + vlrBytes
	pad := (4 - offset%4) % 4
	out.OffsetToPoints = uint32(offset + pad)

	for i := range out.PointsByReturn {
		out.PointsByReturn[i] = 0
	}
	for i := 0; i < points.Len(); i++ {
		rn := int(points.ReturnNumber[i])
		if rn >= 1 && rn <= 15 {
			out.PointsByReturn[rn-1]++
		}
	}

	w := terrane.NewByteWriter()
	WriteHeader(w, &out, false)
	for _, v := range vlrs {
		WriteVLR(w, v)
	}
	for i := 0; i < pad; i++ {
		w.WriteU8(0)
	}
	writePoints(w, &out, points)

	return os.WriteFile(path, w.Bytes(), 0o644)
}

// downgradePoints projects points onto a narrower format, dropping whatever
// siblings the target format lacks.
func downgradePoints(points *PointCloud, target uint8) *PointCloud {
	n := points.Len()
	out := NewPointCloud(target, n)
	copy(out.X, points.X)
	copy(out.Y, points.Y)
	copy(out.Z, points.Z)
	copy(out.Intensity, points.Intensity)
	copy(out.ReturnNumber, points.ReturnNumber)
	copy(out.NumberOfReturns, points.NumberOfReturns)
	copy(out.ScanDirectionFlag, points.ScanDirectionFlag)
	copy(out.EdgeOfFlightLine, points.EdgeOfFlightLine)
	copy(out.Synthetic, points.Synthetic)
	copy(out.KeyPoint, points.KeyPoint)
	copy(out.Withheld, points.Withheld)
	copy(out.Classification, points.Classification)
	copy(out.ScanAngle, points.ScanAngle)
	copy(out.UserData, points.UserData)
	copy(out.PointSourceID, points.PointSourceID)
	if out.GPSTime != nil && points.GPSTime != nil {
		copy(out.GPSTime, points.GPSTime)
	}
	if out.Red != nil && points.Red != nil {
		copy(out.Red, points.Red)
		copy(out.Green, points.Green)
		copy(out.Blue, points.Blue)
	}
	return out
}

func writePoints(w *terrane.ByteWriter, h *Header, points *PointCloud) {
	caps := CapabilitiesFor(h.PointFormat)
	for i := 0; i < points.Len(); i++ {
		w.WriteI32(points.X[i])
		w.WriteI32(points.Y[i])
		w.WriteI32(points.Z[i])
		w.WriteU16(points.Intensity[i])

		flags := (points.ReturnNumber[i] & 0x07) | ((points.NumberOfReturns[i] & 0x07) << 3)
		if points.ScanDirectionFlag[i] {
			flags |= 0x40
		}
		if points.EdgeOfFlightLine[i] {
			flags |= 0x80
		}
		w.WriteU8(flags)

		cls := points.Classification[i] & 0x1F
		if points.Synthetic[i] {
			cls |= 0x20
		}
		if points.KeyPoint[i] {
			cls |= 0x40
		}
		if points.Withheld[i] {
			cls |= 0x80
		}
		w.WriteU8(cls)

		w.WriteI8(int8(points.ScanAngle[i]))
		w.WriteU8(points.UserData[i])
		w.WriteU16(points.PointSourceID[i])

		if caps.GPSTime {
			w.WriteF64(points.GPSTime[i])
		}
		if caps.RGB {
			w.WriteU16(points.Red[i])
			w.WriteU16(points.Green[i])
			w.WriteU16(points.Blue[i])
		}
	}
}
