package lidar

import "errors"

// Sentinel errors for the codec, grouped by the error-kind table in the
// spec: InvalidInput, NotFound, Io, InvalidData, Unsupported.
var (
	ErrBadSignature       = errors.New("lidar: bad file signature")
	ErrUnsupportedVersion = errors.New("lidar: unsupported LAS version")
	ErrUnsupportedFormat  = errors.New("lidar: unsupported point format")
	ErrRecordLength       = errors.New("lidar: impossible point record length")
	ErrSiblingAbsent      = errors.New("lidar: field not present for this point format")
	ErrEmptyBlock         = errors.New("lidar: zero-length compressed block")
	ErrUnsupportedCodec   = errors.New("lidar: unsupported compression method")
	ErrBlockCorrupt       = errors.New("lidar: malformed zlidar block")
)
