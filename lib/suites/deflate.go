// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package suites

import (
	"fmt"
	"testing"

	"github.com/accelbench/iaxbench/lib/bench"
	"github.com/accelbench/iaxbench/lib/engine"
)

// deflateLevels are the software compression efforts measured per
// entry. Level 1 matches the hardware's fixed effort, 6 is the flate
// default, 9 is best.
var deflateLevels = []int{1, 6, 9}

func registerDeflate(runner *bench.Runner, env *Env) {
	canned := env.Flags.CannedPart >= 0
	for _, entry := range env.Corpus.Entries {
		input := env.sizedInput(entry.Data)
		for _, level := range deflateLevels {
			name := fmt.Sprintf("Deflate/sw/level=%d/data=%s%s", level, entry.Name, env.blockLabel())
			runner.Register(name, deflateCase(env, env.Software, input, level, nil))
			if canned {
				name := fmt.Sprintf("Deflate/sw/canned/level=%d/data=%s%s", level, entry.Name, env.blockLabel())
				runner.Register(name, cannedDeflateCase(env, input, level))
			}
		}
		if env.Hardware != nil {
			// The device has a single fixed compression effort, so
			// the hardware dimension is entries only. It also has no
			// preset dictionary support; canned stays software-side.
			name := fmt.Sprintf("Deflate/hw/data=%s%s", entry.Name, env.blockLabel())
			runner.Register(name, deflateCase(env, env.Hardware, input, 1, nil))
		}
	}
}

// deflateCase compresses every chunk of input once per iteration and
// reports throughput over the uncompressed bytes plus the achieved
// ratio.
func deflateCase(env *Env, eng engine.Engine, input []byte, level int, dictionary []byte) func(*testing.B) {
	chunks := env.chunks(input)
	return func(b *testing.B) {
		job := engine.Job{Op: engine.OpDeflate, Level: level, Dictionary: dictionary}
		var output []byte
		var compressed int64
		b.SetBytes(int64(len(input)))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			compressed = 0
			for _, chunk := range chunks {
				job.Input = chunk
				job.Output = output
				result, err := eng.Run(&job)
				if err != nil {
					b.Fatalf("deflate: %v", err)
				}
				output = result.Output
				compressed += int64(len(result.Output))
			}
		}
		reportRatio(b, len(input), compressed)
	}
}

// cannedDeflateCase is the preset-dictionary variant. Without
// canned_regen the dictionary is the configured share of the whole
// entry, built once outside the timed region; with it, each chunk's
// dictionary is rederived from that chunk inside the loop.
func cannedDeflateCase(env *Env, input []byte, level int) func(*testing.B) {
	chunks := env.chunks(input)
	wholeDictionary := dictionarySlice(input, env.Flags.CannedPart, env.BlockSize)
	regen := env.Flags.CannedRegen
	part := env.Flags.CannedPart
	blockSize := env.BlockSize
	software := env.Software
	return func(b *testing.B) {
		job := engine.Job{Op: engine.OpDeflate, Level: level}
		var output []byte
		var compressed int64
		b.SetBytes(int64(len(input)))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			compressed = 0
			for _, chunk := range chunks {
				if regen {
					job.Dictionary = dictionarySlice(chunk, part, blockSize)
				} else {
					job.Dictionary = wholeDictionary
				}
				job.Input = chunk
				job.Output = output
				result, err := software.Run(&job)
				if err != nil {
					b.Fatalf("canned deflate: %v", err)
				}
				output = result.Output
				compressed += int64(len(result.Output))
			}
		}
		reportRatio(b, len(input), compressed)
	}
}
