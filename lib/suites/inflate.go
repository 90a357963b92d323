// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package suites

import (
	"fmt"
	"testing"

	"github.com/accelbench/iaxbench/lib/bench"
	"github.com/accelbench/iaxbench/lib/engine"
)

// inflatePrepLevel compresses the fixture streams. Level 1 produces
// the stream shape the device's decompressor sees from its own
// compressor.
const inflatePrepLevel = 1

func registerInflate(runner *bench.Runner, env *Env) {
	for _, entry := range env.Corpus.Entries {
		input := env.sizedInput(entry.Data)
		name := fmt.Sprintf("Inflate/sw/data=%s%s", entry.Name, env.blockLabel())
		runner.Register(name, inflateCase(env, env.Software, input))
		if env.Hardware != nil {
			name := fmt.Sprintf("Inflate/hw/data=%s%s", entry.Name, env.blockLabel())
			runner.Register(name, inflateCase(env, env.Hardware, input))
		}
	}
}

// inflateCase pre-compresses the chunks outside the timed region and
// measures decompression only. Throughput counts uncompressed bytes.
func inflateCase(env *Env, eng engine.Engine, input []byte) func(*testing.B) {
	chunks := env.chunks(input)
	return func(b *testing.B) {
		compressed := make([][]byte, len(chunks))
		for i, chunk := range chunks {
			result, err := env.Software.Run(&engine.Job{
				Op:    engine.OpDeflate,
				Input: chunk,
				Level: inflatePrepLevel,
			})
			if err != nil {
				b.Fatalf("preparing compressed input: %v", err)
			}
			compressed[i] = result.Output
		}

		job := engine.Job{Op: engine.OpInflate}
		var output []byte
		b.SetBytes(int64(len(input)))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			for _, block := range compressed {
				job.Input = block
				job.Output = output
				result, err := eng.Run(&job)
				if err != nil {
					b.Fatalf("inflate: %v", err)
				}
				output = result.Output
			}
		}
	}
}
