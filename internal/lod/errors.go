package lod

import "errors"

// Configuration errors. They are reported at setup time; per-frame operations
// never fail.
var (
	ErrInvalidBaseSize   = errors.New("lod: base chunk size must be positive")
	ErrInvalidResolution = errors.New("lod: resolution must be positive and not smaller than the base chunk size")
	ErrOddChunkSize      = errors.New("lod: chunk size must be even and at least 2 on both axes")
	ErrTooManyLevels     = errors.New("lod: too many detail levels")
)

// MaxLodCount bounds the number of detail levels the engine supports.
const MaxLodCount = 16
