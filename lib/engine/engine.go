// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import "fmt"

// Op identifies one accelerator operation.
type Op uint8

const (
	OpDeflate Op = iota
	OpInflate
	OpCRC64
	OpScan
	OpExtract
	OpSelect
)

// String returns the lowercase operation name used in benchmark case
// names and error messages.
func (op Op) String() string {
	switch op {
	case OpDeflate:
		return "deflate"
	case OpInflate:
		return "inflate"
	case OpCRC64:
		return "crc64"
	case OpScan:
		return "scan"
	case OpExtract:
		return "extract"
	case OpSelect:
		return "select"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(op))
	}
}

// Job describes one operation. Fields outside the operation's group
// are ignored: a CRC job reads only Input and Polynomial, a filter
// job never looks at Level.
type Job struct {
	Op    Op
	Input []byte

	// Output, when non-nil, provides reusable storage for the result.
	// Benchmark loops pass the previous iteration's buffer to keep
	// allocation out of the timed region.
	Output []byte

	// Compression parameters. Level follows the flate convention
	// (1 fastest, 9 best, -1 default). A non-empty Dictionary selects
	// the preset-dictionary variant used by canned mode.
	Level      int
	Dictionary []byte

	// Polynomial is the forward (MSB-first) CRC64 polynomial.
	Polynomial uint64

	// Analytics parameters. Input holds Elements values of Width bits
	// each, little-endian bit-packed. Scan matches values in
	// [ParamLow, ParamHigh]; Extract takes the elements whose index
	// lies in that range; Select keeps the elements whose bit is set
	// in Mask.
	Width     int
	Elements  int
	ParamLow  uint32
	ParamHigh uint32
	Mask      []byte
}

// Result carries what an operation produced. Output may share storage
// with Job.Output when one was provided.
type Result struct {
	// Output is the operation's data product: compressed or
	// decompressed bytes, or a bit-packed analytics result.
	Output []byte
	// Checksum is the CRC64 aggregate.
	Checksum uint64
	// Found is the number of elements a scan matched.
	Found int
}

// Engine executes jobs. Implementations must be safe for concurrent
// Run calls; Close releases device resources and is not.
type Engine interface {
	Name() string
	Run(job *Job) (Result, error)
	Close() error
}
