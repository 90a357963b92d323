// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package suites

import (
	"fmt"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/accelbench/iaxbench/lib/bench"
)

// defaultDictionaryShare sizes the zstd dictionary when --canned_part
// was not given.
const defaultDictionaryShare = 1.0 / 16

// registerBaseline adds mainstream-codec cases over the same corpus,
// for calibrating the deflate numbers.
func registerBaseline(runner *bench.Runner, env *Env) {
	share := env.Flags.CannedPart
	if share < 0 {
		share = defaultDictionaryShare
	}
	for _, entry := range env.Corpus.Entries {
		input := env.sizedInput(entry.Data)
		name := fmt.Sprintf("Baseline/zstd/data=%s%s", entry.Name, env.blockLabel())
		runner.Register(name, zstdCase(env, input, nil))
		dictName := fmt.Sprintf("Baseline/zstd/dict/data=%s%s", entry.Name, env.blockLabel())
		runner.Register(dictName, zstdCase(env, input, dictionarySlice(input, share, env.BlockSize)))
		lz4Name := fmt.Sprintf("Baseline/lz4/data=%s%s", entry.Name, env.blockLabel())
		runner.Register(lz4Name, lz4Case(env, input))
	}
}

func zstdCase(env *Env, input, dictionary []byte) func(*testing.B) {
	chunks := env.chunks(input)
	return func(b *testing.B) {
		// Single-threaded so the numbers compare against the
		// single-engine paths.
		options := []zstd.EOption{
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderConcurrency(1),
		}
		if len(dictionary) > 0 {
			options = append(options, zstd.WithEncoderDictRaw(0, dictionary))
		}
		encoder, err := zstd.NewWriter(nil, options...)
		if err != nil {
			b.Fatalf("zstd encoder: %v", err)
		}
		defer encoder.Close()

		var output []byte
		var compressed int64
		b.SetBytes(int64(len(input)))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			compressed = 0
			for _, chunk := range chunks {
				output = encoder.EncodeAll(chunk, output[:0])
				compressed += int64(len(output))
			}
		}
		reportRatio(b, len(input), compressed)
	}
}

func lz4Case(env *Env, input []byte) func(*testing.B) {
	chunks := env.chunks(input)
	return func(b *testing.B) {
		bound := 0
		for _, chunk := range chunks {
			if n := lz4.CompressBlockBound(len(chunk)); n > bound {
				bound = n
			}
		}
		output := make([]byte, bound)
		var compressor lz4.Compressor
		var compressed int64
		b.SetBytes(int64(len(input)))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			compressed = 0
			for _, chunk := range chunks {
				n, err := compressor.CompressBlock(chunk, output)
				if err != nil {
					b.Fatalf("lz4: %v", err)
				}
				if n == 0 {
					// Incompressible block, stored as-is.
					n = len(chunk)
				}
				compressed += int64(n)
			}
		}
		reportRatio(b, len(input), compressed)
	}
}
