// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package suites

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/accelbench/iaxbench/lib/cmdline"
	"github.com/accelbench/iaxbench/lib/dataset"
	"github.com/accelbench/iaxbench/lib/engine"
	"github.com/accelbench/iaxbench/lib/engine/idxd"
	"github.com/accelbench/iaxbench/lib/hwinfo"
	"github.com/accelbench/iaxbench/lib/hwinfo/iax"
)

// Env is everything a suite needs to decide which cases exist on this
// host and how to size their inputs. The entry point resolves and
// validates all of it before the manifest runs; suites treat every
// field as read-only.
type Env struct {
	// Flags is the accelerator flag block.
	Flags *cmdline.Flags

	// System is the host snapshot used for working-set sizing.
	System *hwinfo.SystemInfo

	// Software is the CPU reference engine, always present.
	Software *engine.Software

	// Hardware is nil when the hardware path is disabled, either by
	// --no_hw or because no usable work queue exists. Suites skip
	// their hardware cases rather than registering failing ones.
	Hardware engine.Engine

	// Enumerator and HardwareOptions let the full-context CRC cases
	// open a fresh device inside the timed region. Enumerator is nil
	// whenever Hardware is.
	Enumerator      *iax.Enumerator
	HardwareOptions idxd.Options

	// Corpus supplies the measurement inputs.
	Corpus *dataset.Corpus

	Logger *slog.Logger

	// BlockSize is the resolved block_size in bytes; non-positive
	// means the whole input is processed as one chunk.
	BlockSize int64

	// InPlacement and OutPlacement are the resolved memory
	// placements. The output placement's cache-control bit is
	// already folded into HardwareOptions; suites only consult the
	// input placement, for sizing.
	InPlacement  cmdline.Placement
	OutPlacement cmdline.Placement

	targetOnce  sync.Once
	targetBytes int
}

// targetSize resolves the input working-set size once; TargetSize
// logs a substitution note for pmem placements and repeating it per
// entry would be noise.
func (e *Env) targetSize() int {
	e.targetOnce.Do(func() {
		e.targetBytes = dataset.TargetSize(e.InPlacement, e.System.CPU.L2CacheKB, e.System.CPU.L3CacheKB, e.Logger)
	})
	return e.targetBytes
}

// sizedInput tiles or truncates entry data to the working-set size
// the input placement asks for.
func (e *Env) sizedInput(data []byte) []byte {
	return dataset.Resize(data, e.targetSize())
}

// chunks splits input by the resolved block size.
func (e *Env) chunks(data []byte) [][]byte {
	return dataset.Chunks(data, e.BlockSize)
}

// blockLabel is the case-name segment for the chunking dimension,
// empty when no block splitting was requested.
func (e *Env) blockLabel() string {
	if e.BlockSize <= 0 {
		return ""
	}
	return fmt.Sprintf("/block=%d", e.BlockSize)
}

// dictionarySlice returns the leading portion of data used to build a
// preset dictionary. A part of 0 takes the whole input, a part below 1
// takes that fraction of it, and 1 or more takes that many block_size
// blocks (the whole input when no block splitting is in effect).
// Negative part and empty inputs yield nil.
func dictionarySlice(data []byte, part float64, blockSize int64) []byte {
	if part < 0 || len(data) == 0 {
		return nil
	}
	count := len(data)
	switch {
	case part == 0:
	case part < 1:
		count = int(part * float64(len(data)))
	case blockSize > 0:
		count = int(part * float64(blockSize))
	}
	if count <= 0 {
		return nil
	}
	if count > len(data) {
		count = len(data)
	}
	return data[:count]
}

// reportRatio attaches the compression ratio to the case result.
func reportRatio(b *testing.B, inputLen int, compressed int64) {
	if compressed > 0 {
		b.ReportMetric(float64(inputLen)/float64(compressed), "ratio")
	}
}
