// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"log/slog"

	"github.com/accelbench/iaxbench/lib/cmdline"
)

// Fallback cache sizes in KB for systems where the probe could not
// read them.
const (
	fallbackL2KB = 2048
	fallbackL3KB = 32768
)

// TargetSize returns the working-set byte size a placement asks for,
// given the probed L2 and L3 sizes in KB. Cache-level placements size
// to half the level so input and output stay resident together;
// RAM-class placements size to four times the last-level cache so the
// accesses miss it. The pmem placements size as RAM: there is no
// persistent-memory allocator in the stack, which is logged once per
// call so the substitution shows up next to the results.
func TargetSize(placement cmdline.Placement, l2KB, l3KB int, logger *slog.Logger) int {
	if l2KB <= 0 {
		l2KB = fallbackL2KB
	}
	if l3KB <= 0 {
		l3KB = fallbackL3KB
	}
	switch placement {
	case cmdline.PlacementCache:
		return l2KB * 1024 / 2
	case cmdline.PlacementLLC:
		return l3KB * 1024 / 2
	case cmdline.PlacementPMem, cmdline.PlacementCCPMem:
		if logger != nil {
			logger.Warn("no persistent-memory allocator available, sizing placement as ram",
				"placement", placement.String())
		}
		return l3KB * 1024 * 4
	default:
		return l3KB * 1024 * 4
	}
}
