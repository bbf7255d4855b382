package lidar

import (
	"bytes"
	"os"

	terrane "github.com/kestrel-gis/terrane"
)

// LasFile is an open, fully decoded LAS point cloud: header, VLRs, and the
// struct-of-arrays point data. Per spec.md §3's ownership rule, point
// records are owned by the LasFile that read them; callers iterate
// immutable borrows via the accessor methods on PointCloud.
type LasFile struct {
	Header *Header
	VLRs   []*VLR
	Points *PointCloud
}

// ReadLASHeaderOnly implements the §4.6 "header-only scan" used by the tile
// pipeline's planning phase: it parses the header and VLRs but never touches
// point data, so a bbox can be learned in O(header size) rather than O(file
// size).
func ReadLASHeaderOnly(path string) (*Header, []*VLR, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, terrane.ErrIo
	}
	defer f.Close()
	r := terrane.NewByteReader(f)
	h, err := ReadHeader(r, false)
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

// ReadLAS runs the full §4.4.1 state machine: OpenBuffer, ParseHeader,
// ParseVLRs, SelectFormat, ReadPoints.
func ReadLAS(path string) (*LasFile, error) {
	buf, err := readWholeFile(path)
	if err != nil {
		return nil, err
	}
	r := terrane.NewByteReader(bytes.NewReader(buf))

	h, err := ReadHeader(r, false)
	if err != nil {
		return nil, err
	}

	if err := r.Seek(int64(h.HeaderSize)); err != nil {
		return nil, err
	}
	vlrs, err := ReadVLRs(r, h.NumberOfVLRs)
	if err != nil {
		return nil, err
	}

	canonical := canonicalRecordLength(h.PointFormat)
	if canonical == 0 {
		return nil, ErrUnsupportedFormat
	}
	if h.PointRecordLen < canonical {
		return nil, ErrRecordLength
	}
	trailing := int(h.PointRecordLen) - int(canonical)

	if err := r.Seek(int64(h.OffsetToPoints)); err != nil {
		return nil, err
	}
	points, err := readPoints(r, h, trailing)
	if err != nil {
		return nil, err
	}

	return &LasFile{Header: h, VLRs: vlrs, Points: points}, nil
}

// readWholeFile block-reads the entire file into memory, per the
// OpenBuffer phase's "block-read the entire file" option (the mmap
// alternative is not pursued: no memory-mapping library exists anywhere in
// the retrieved pack, and stdlib os.ReadFile is the idiomatic fallback).
func readWholeFile(path string) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, terrane.ErrIo
	}
	return buf, nil
}

func readPoints(r *terrane.ByteReader, h *Header, trailing int) (*PointCloud, error) {
	n := int(h.NumberOfPoints)
	caps := CapabilitiesFor(h.PointFormat)
	pc := NewPointCloud(h.PointFormat, n)

	for i := 0; i < n; i++ {
		x, err := r.ReadI32()
		if err != nil {
			return nil, err
		}
		y, err := r.ReadI32()
		if err != nil {
			return nil, err
		}
		z, err := r.ReadI32()
		if err != nil {
			return nil, err
		}
		pc.X[i], pc.Y[i], pc.Z[i] = x, y, z

		intensity, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		pc.Intensity[i] = intensity

		if caps.Extended {
			b1, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			pc.ReturnNumber[i] = b1 & 0x0F
			pc.NumberOfReturns[i] = (b1 >> 4) & 0x0F

			b2, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			pc.Synthetic[i] = b2&0x01 != 0
			pc.KeyPoint[i] = b2&0x02 != 0
			pc.Withheld[i] = b2&0x04 != 0
			pc.Overlap[i] = b2&0x08 != 0
			pc.ScannerChannel[i] = (b2 >> 4) & 0x03
			pc.ScanDirectionFlag[i] = b2&0x40 != 0
			pc.EdgeOfFlightLine[i] = b2&0x80 != 0

			cls, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			pc.Classification[i] = cls

			userData, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			pc.UserData[i] = userData

			scanAngle, err := r.ReadI16()
			if err != nil {
				return nil, err
			}
			pc.ScanAngle[i] = float64(scanAngle) * 0.006

			psid, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			pc.PointSourceID[i] = psid

			gps, err := r.ReadF64()
			if err != nil {
				return nil, err
			}
			pc.GPSTime[i] = gps
		} else {
			flags, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			pc.ReturnNumber[i] = flags & 0x07
			pc.NumberOfReturns[i] = (flags >> 3) & 0x07
			pc.ScanDirectionFlag[i] = flags&0x40 != 0
			pc.EdgeOfFlightLine[i] = flags&0x80 != 0

			clsByte, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			pc.Classification[i] = clsByte & 0x1F
			pc.Synthetic[i] = clsByte&0x20 != 0
			pc.KeyPoint[i] = clsByte&0x40 != 0
			pc.Withheld[i] = clsByte&0x80 != 0

			scanAngleRank, err := r.ReadI8()
			if err != nil {
				return nil, err
			}
			pc.ScanAngle[i] = float64(scanAngleRank)

			userData, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			pc.UserData[i] = userData

			psid, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			pc.PointSourceID[i] = psid

			if caps.GPSTime {
				gps, err := r.ReadF64()
				if err != nil {
					return nil, err
				}
				pc.GPSTime[i] = gps
			}
		}

		if caps.RGB {
			red, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			green, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			blue, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			pc.Red[i], pc.Green[i], pc.Blue[i] = red, green, blue
		}

		if caps.NIR {
			nir, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			pc.NIR[i] = nir
		}

		if caps.Wavepacket {
			descIdx, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			byteOffset, err := r.ReadU64()
			if err != nil {
				return nil, err
			}
			sizeBytes, err := r.ReadU32()
			if err != nil {
				return nil, err
			}
			returnLoc, err := r.ReadF32()
			if err != nil {
				return nil, err
			}
			xt, err := r.ReadF32()
			if err != nil {
				return nil, err
			}
			yt, err := r.ReadF32()
			if err != nil {
				return nil, err
			}
			zt, err := r.ReadF32()
			if err != nil {
				return nil, err
			}
			pc.WavepacketDescriptorIndex[i] = descIdx
			pc.WavepacketByteOffset[i] = byteOffset
			pc.WavepacketSizeBytes[i] = sizeBytes
			pc.WavepacketReturnPointLocation[i] = returnLoc
			pc.WavepacketXt[i], pc.WavepacketYt[i], pc.WavepacketZt[i] = xt, yt, zt
		}

		if trailing > 0 {
			if err := r.Advance(int64(trailing)); err != nil {
				return nil, err
			}
		}
	}

	return pc, nil
}
