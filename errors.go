package terrane

import "errors"

// Sentinel errors shared across the core packages, grouped by the error
// kind table in the spec: InvalidInput, NotFound, Io, InvalidData, Unsupported.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrIo           = errors.New("io error")
	ErrInvalidData  = errors.New("invalid data")
	ErrUnsupported  = errors.New("unsupported")
)
