// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package cmdline

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Placement identifies where a measurement wants a working set to live.
// Input placements size the data relative to the cache hierarchy; the
// cache-control output placements additionally ask the device to steer
// its writes through the CPU cache.
type Placement int

const (
	// PlacementCache sizes the working set to fit mid-level cache.
	PlacementCache Placement = iota
	// PlacementLLC sizes the working set to fit the last-level cache.
	PlacementLLC
	// PlacementRAM sizes the working set well past the last-level cache.
	PlacementRAM
	// PlacementPMem targets persistent memory. Parsed and accepted, but
	// with no pmem allocator in the stack it behaves as PlacementRAM.
	PlacementPMem
	// PlacementCCRAM is RAM output with device cache control enabled.
	PlacementCCRAM
	// PlacementCCPMem is pmem output with device cache control enabled.
	PlacementCCPMem
)

// String returns the flag spelling of the placement.
func (p Placement) String() string {
	switch p {
	case PlacementCache:
		return "cache"
	case PlacementLLC:
		return "llc"
	case PlacementRAM:
		return "ram"
	case PlacementPMem:
		return "pmem"
	case PlacementCCRAM:
		return "cc_ram"
	case PlacementCCPMem:
		return "cc_pmem"
	default:
		return fmt.Sprintf("placement(%d)", int(p))
	}
}

// CacheControl reports whether the placement asks the device to write
// its output through the CPU cache.
func (p Placement) CacheControl() bool {
	return p == PlacementCCRAM || p == PlacementCCPMem
}

// Flags is the closed set of workload options. Fields are written by
// Splice during startup and must be treated as read-only afterward; the
// resolved accessors cache their result on first use.
type Flags struct {
	Dataset     string
	BlockSize   string
	QueueSize   int
	BatchSize   int
	Threads     int
	Node        int
	InMem       string
	OutMem      string
	FullTime    bool
	NoHW        bool
	CannedPart  float64
	CannedRegen bool

	blockOnce  sync.Once
	blockBytes int64
	blockErr   error

	inOnce sync.Once
	in     Placement
	inErr  error

	outOnce sync.Once
	out     Placement
	outErr  error
}

// Defaults returns a Flags with every option at its documented default.
func Defaults() *Flags {
	return &Flags{
		BlockSize:  "-1",
		Node:       -1,
		InMem:      "llc",
		OutMem:     "cc_ram",
		CannedPart: -1,
	}
}

// BlockSizeBytes resolves the block_size string to a byte count. A
// trailing K/KB multiplies by 1024 and M/MB by 1024*1024, suffixes
// case-insensitive. A negative result (the "-1" default) means no block
// splitting was requested. The result, error included, is computed once
// and cached.
func (f *Flags) BlockSizeBytes() (int64, error) {
	f.blockOnce.Do(func() {
		f.blockBytes, f.blockErr = parseBlockSize(f.BlockSize)
	})
	return f.blockBytes, f.blockErr
}

func parseBlockSize(raw string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "KB"):
		multiplier, s = 1024, strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "K"):
		multiplier, s = 1024, strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "MB"):
		multiplier, s = 1024*1024, strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "M"):
		multiplier, s = 1024*1024, strings.TrimSuffix(s, "M")
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid block size %q: want a number with an optional K, KB, M, or MB suffix", raw)
	}
	return n * multiplier, nil
}

// InputPlacement resolves in_mem, case-insensitively, to one of cache,
// llc, ram, or pmem. Anything else is a configuration error. Cached on
// first use.
func (f *Flags) InputPlacement() (Placement, error) {
	f.inOnce.Do(func() {
		switch strings.ToLower(f.InMem) {
		case "cache":
			f.in = PlacementCache
		case "llc":
			f.in = PlacementLLC
		case "ram":
			f.in = PlacementRAM
		case "pmem":
			f.in = PlacementPMem
		default:
			f.inErr = fmt.Errorf("invalid input memory location %q: want cache, llc, ram, or pmem", f.InMem)
		}
	})
	return f.in, f.inErr
}

// OutputPlacement resolves out_mem, case-insensitively, to one of ram,
// pmem, cc_ram, or cc_pmem. Anything else is a configuration error.
// Cached on first use.
func (f *Flags) OutputPlacement() (Placement, error) {
	f.outOnce.Do(func() {
		switch strings.ToLower(f.OutMem) {
		case "ram":
			f.out = PlacementRAM
		case "pmem":
			f.out = PlacementPMem
		case "cc_ram":
			f.out = PlacementCCRAM
		case "cc_pmem":
			f.out = PlacementCCPMem
		default:
			f.outErr = fmt.Errorf("invalid output memory location %q: want ram, pmem, cc_ram, or cc_pmem", f.OutMem)
		}
	})
	return f.out, f.outErr
}
