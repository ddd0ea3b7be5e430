package quant

import "errors"

// Error codes, §6: OK is the absence of an error. Setters return one
// of these unwrapped or wrapped with context; they never panic on
// caller misuse.
var (
	ErrValueOutOfRange = errors.New("quant: value out of range")
	ErrBufferTooSmall  = errors.New("quant: buffer too small")
	ErrOutOfMemory     = errors.New("quant: out of memory")
	ErrQualityTooLow   = errors.New("quant: quality floor not met")
)
