// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package suites

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/accelbench/iaxbench/lib/bench"
	"github.com/accelbench/iaxbench/lib/engine"
)

// filterWidths are the packed element widths the filter suite
// exercises. The engines handle any width from 1 to 32 bits; the
// byte-aligned ones cover the common columnar layouts.
var filterWidths = []int{8, 16, 32}

const filterSeed = 41

// defaultFilterBytes sizes the packed input when no block size was
// requested.
const defaultFilterBytes = 1 << 20

func registerFilter(runner *bench.Runner, env *Env) {
	for _, width := range filterWidths {
		input, elements := packedInput(env, width)
		maxValue := uint32(uint64(1)<<width - 1)

		// Scan for the middle half of the value range, extract the
		// middle half of the element range, select every other
		// element. All three output roughly half the input.
		scan := engine.Job{
			Op:        engine.OpScan,
			Input:     input,
			Width:     width,
			Elements:  elements,
			ParamLow:  maxValue / 4,
			ParamHigh: maxValue / 4 * 3,
		}
		extract := engine.Job{
			Op:        engine.OpExtract,
			Input:     input,
			Width:     width,
			Elements:  elements,
			ParamLow:  uint32(elements / 4),
			ParamHigh: uint32(elements / 4 * 3),
		}
		sel := engine.Job{
			Op:       engine.OpSelect,
			Input:    input,
			Width:    width,
			Elements: elements,
			Mask:     alternatingMask(elements),
		}

		for _, job := range []engine.Job{scan, extract, sel} {
			name := fmt.Sprintf("Filter/%s/sw/width=%d", job.Op, width)
			runner.Register(name, filterCase(env.Software, job))
			if env.Hardware != nil {
				name := fmt.Sprintf("Filter/%s/hw/width=%d", job.Op, width)
				runner.Register(name, filterCase(env.Hardware, job))
			}
		}
	}
}

// packedInput builds a little-endian packed array of uniform random
// elements. The suite's widths are whole bytes, so packing is a plain
// sequential write.
func packedInput(env *Env, width int) ([]byte, int) {
	size := defaultFilterBytes
	if env.BlockSize > 0 {
		size = int(env.BlockSize)
	}
	bytesPerElement := width / 8
	elements := size / bytesPerElement
	random := rand.New(rand.NewPCG(filterSeed, filterSeed^0x9E3779B97F4A7C15))
	packed := make([]byte, elements*bytesPerElement)
	for i := 0; i < elements; i++ {
		value := random.Uint32()
		switch width {
		case 8:
			packed[i] = byte(value)
		case 16:
			binary.LittleEndian.PutUint16(packed[i*2:], uint16(value))
		case 32:
			binary.LittleEndian.PutUint32(packed[i*4:], value)
		}
	}
	return packed, elements
}

// alternatingMask selects every even-indexed element.
func alternatingMask(elements int) []byte {
	mask := make([]byte, (elements+7)/8)
	for i := range mask {
		mask[i] = 0x55
	}
	return mask
}

func filterCase(eng engine.Engine, job engine.Job) func(*testing.B) {
	return func(b *testing.B) {
		local := job
		b.SetBytes(int64(len(job.Input)))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			result, err := eng.Run(&local)
			if err != nil {
				b.Fatalf("filter: %v", err)
			}
			local.Output = result.Output
		}
	}
}
