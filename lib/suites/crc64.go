// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package suites

import (
	"fmt"
	"testing"

	"github.com/accelbench/iaxbench/lib/bench"
	"github.com/accelbench/iaxbench/lib/engine"
	"github.com/accelbench/iaxbench/lib/engine/idxd"
)

// crcPolynomial is the forward form of the ECMA-182 polynomial, the
// convention the accelerator's CRC unit implements.
const crcPolynomial uint64 = 0x42F0E1EBA9EA3693

func registerCRC64(runner *bench.Runner, env *Env) {
	for _, entry := range env.Corpus.Entries {
		input := env.sizedInput(entry.Data)
		name := fmt.Sprintf("CRC64/sw/data=%s%s", entry.Name, env.blockLabel())
		runner.Register(name, crcCase(env, env.Software, input))
		if env.Flags.FullTime {
			name := fmt.Sprintf("CRC64/sw/full/data=%s%s", entry.Name, env.blockLabel())
			runner.Register(name, crcFullTimeSoftwareCase(env, input))
		}
		if env.Hardware != nil {
			name := fmt.Sprintf("CRC64/hw/data=%s%s", entry.Name, env.blockLabel())
			runner.Register(name, crcCase(env, env.Hardware, input))
		}
		if env.Flags.FullTime && env.Enumerator != nil {
			name := fmt.Sprintf("CRC64/hw/full/data=%s%s", entry.Name, env.blockLabel())
			runner.Register(name, crcFullTimeHardwareCase(env, input))
		}
	}
}

func crcCase(env *Env, eng engine.Engine, input []byte) func(*testing.B) {
	chunks := env.chunks(input)
	return func(b *testing.B) {
		job := engine.Job{Op: engine.OpCRC64, Polynomial: crcPolynomial}
		b.SetBytes(int64(len(input)))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			for _, chunk := range chunks {
				job.Input = chunk
				if _, err := eng.Run(&job); err != nil {
					b.Fatalf("crc64: %v", err)
				}
			}
		}
	}
}

// crcFullTimeSoftwareCase charges the engine setup to every iteration,
// so the table build shows up in the measured time.
func crcFullTimeSoftwareCase(env *Env, input []byte) func(*testing.B) {
	chunks := env.chunks(input)
	return func(b *testing.B) {
		b.SetBytes(int64(len(input)))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			eng := engine.NewSoftware()
			job := engine.Job{Op: engine.OpCRC64, Polynomial: crcPolynomial}
			for _, chunk := range chunks {
				job.Input = chunk
				if _, err := eng.Run(&job); err != nil {
					b.Fatalf("crc64: %v", err)
				}
			}
			eng.Close()
		}
	}
}

// crcFullTimeHardwareCase opens and closes the device context inside
// the timed region. Portal mapping and the descriptor handshake
// dominate short inputs.
func crcFullTimeHardwareCase(env *Env, input []byte) func(*testing.B) {
	chunks := env.chunks(input)
	return func(b *testing.B) {
		b.SetBytes(int64(len(input)))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			eng, err := idxd.Open(env.Enumerator, env.HardwareOptions)
			if err != nil {
				b.Fatalf("opening device context: %v", err)
			}
			job := engine.Job{Op: engine.OpCRC64, Polynomial: crcPolynomial}
			for _, chunk := range chunks {
				job.Input = chunk
				if _, err := eng.Run(&job); err != nil {
					b.Fatalf("crc64: %v", err)
				}
			}
			eng.Close()
		}
	}
}
