package lidar

// PointCloud holds point records in struct-of-arrays layout, per spec.md
// §4.4.1's ReadPoints phase: every field is its own contiguous vector,
// indexed in parallel. Optional sibling vectors are nil when the point
// format does not carry that sibling (query them through the Capabilities-
// gated accessors below rather than indexing them directly).
type PointCloud struct {
	Format uint8

	// scaled integer coordinates; world units are x*XScale+XOffset, etc.
	X, Y, Z []int32

	Intensity []uint16

	ReturnNumber      []uint8
	NumberOfReturns   []uint8
	ScanDirectionFlag []bool
	EdgeOfFlightLine  []bool
	Synthetic         []bool
	KeyPoint          []bool
	Withheld          []bool
	Overlap           []bool
	ScannerChannel    []uint8
	Classification    []uint8

	// ScanAngle is always stored in degrees: the 8-bit rank (formats < 6)
	// and the 16-bit scaled value (formats >= 6, 0.006-degree units) are
	// both normalised to this single representation on read.
	ScanAngle []float64

	UserData      []uint8
	PointSourceID []uint16

	GPSTime []float64

	Red, Green, Blue []uint16
	NIR              []uint16

	WavepacketDescriptorIndex     []uint8
	WavepacketByteOffset          []uint64
	WavepacketSizeBytes           []uint32
	WavepacketReturnPointLocation []float32
	WavepacketXt, WavepacketYt, WavepacketZt []float32
}

// Len reports the number of points, using the always-present X vector.
func (p *PointCloud) Len() int { return len(p.X) }

// NewPointCloud allocates a PointCloud with vectors pre-sized to n points,
// with only the siblings format actually carries allocated — mirroring the
// teacher's chunkedStructSlices pre-allocation pattern, generalized from
// "every exported field" to "only the fields this format's capability set
// names", since unlike the teacher's ping records, a LAS point format
// deliberately omits whole sibling groups.
func NewPointCloud(format uint8, n int) *PointCloud {
	caps := CapabilitiesFor(format)
	pc := &PointCloud{
		Format:            format,
		X:                 make([]int32, n),
		Y:                 make([]int32, n),
		Z:                 make([]int32, n),
		Intensity:         make([]uint16, n),
		ReturnNumber:      make([]uint8, n),
		NumberOfReturns:   make([]uint8, n),
		ScanDirectionFlag: make([]bool, n),
		EdgeOfFlightLine:  make([]bool, n),
		Synthetic:         make([]bool, n),
		KeyPoint:          make([]bool, n),
		Withheld:          make([]bool, n),
		Overlap:           make([]bool, n),
		ScannerChannel:    make([]uint8, n),
		Classification:    make([]uint8, n),
		ScanAngle:         make([]float64, n),
		UserData:          make([]uint8, n),
		PointSourceID:     make([]uint16, n),
	}
	if caps.GPSTime {
		pc.GPSTime = make([]float64, n)
	}
	if caps.RGB {
		pc.Red = make([]uint16, n)
		pc.Green = make([]uint16, n)
		pc.Blue = make([]uint16, n)
	}
	if caps.NIR {
		pc.NIR = make([]uint16, n)
	}
	if caps.Wavepacket {
		pc.WavepacketDescriptorIndex = make([]uint8, n)
		pc.WavepacketByteOffset = make([]uint64, n)
		pc.WavepacketSizeBytes = make([]uint32, n)
		pc.WavepacketReturnPointLocation = make([]float32, n)
		pc.WavepacketXt = make([]float32, n)
		pc.WavepacketYt = make([]float32, n)
		pc.WavepacketZt = make([]float32, n)
	}
	return pc
}

// WorldXYZ recovers world-unit coordinates for point i using header scale
// and offset triples.
func (p *PointCloud) WorldXYZ(i int, xScale, yScale, zScale, xOffset, yOffset, zOffset float64) (x, y, z float64) {
	x = float64(p.X[i])*xScale + xOffset
	y = float64(p.Y[i])*yScale + yOffset
	z = float64(p.Z[i])*zScale + zOffset
	return
}

// IsLateReturn reports whether point i is the last (or only) return of its
// pulse — the distinction the ZLidar z-predictor uses to pick between its
// "late" and "early" per-channel registers (spec.md §4.4.3).
func (p *PointCloud) IsLateReturn(i int) bool {
	return p.ReturnNumber[i] == 0 || p.ReturnNumber[i] >= p.NumberOfReturns[i]
}

// RGB returns point i's colour triple, or ErrSiblingAbsent if format lacks RGB.
func (p *PointCloud) RGB(i int) (r, g, b uint16, err error) {
	if p.Red == nil {
		return 0, 0, 0, ErrSiblingAbsent
	}
	return p.Red[i], p.Green[i], p.Blue[i], nil
}

// GPS returns point i's GPS time, or ErrSiblingAbsent if format lacks GPS time.
func (p *PointCloud) GPS(i int) (float64, error) {
	if p.GPSTime == nil {
		return 0, ErrSiblingAbsent
	}
	return p.GPSTime[i], nil
}
