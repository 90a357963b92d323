// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package suites

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/accelbench/iaxbench/lib/bench"
	"github.com/accelbench/iaxbench/lib/engine"
)

// registerThroughput adds the fan-out cases. The suite is active only
// when --threads asks for concurrency; the op is CRC64 because it is
// fixed-function and allocation-free, so the numbers track submission
// capacity rather than codec behavior.
func registerThroughput(runner *bench.Runner, env *Env) {
	if env.Flags.Threads <= 0 {
		return
	}
	if len(env.Corpus.Entries) == 0 {
		return
	}
	input := env.sizedInput(env.Corpus.Entries[0].Data)
	name := fmt.Sprintf("Throughput/crc64/sw/threads=%d", env.Flags.Threads)
	runner.Register(name, throughputCase(env, env.Software, input))
	if env.Hardware != nil {
		name := fmt.Sprintf("Throughput/crc64/hw/threads=%d", env.Flags.Threads)
		runner.Register(name, throughputCase(env, env.Hardware, input))
	}
}

// throughputCase drives the engine from RunParallel workers. Each
// iteration submits a batch of jobs over the whole input; a buffered
// channel caps concurrent submissions when --queue_size is set.
func throughputCase(env *Env, eng engine.Engine, input []byte) func(*testing.B) {
	threads := env.Flags.Threads
	batch := env.Flags.BatchSize
	if batch <= 0 {
		batch = 1
	}
	queueSize := env.Flags.QueueSize
	return func(b *testing.B) {
		var slots chan struct{}
		if queueSize > 0 {
			slots = make(chan struct{}, queueSize)
		}
		parallelism := (threads + runtime.GOMAXPROCS(0) - 1) / runtime.GOMAXPROCS(0)
		if parallelism < 1 {
			parallelism = 1
		}
		b.SetParallelism(parallelism)
		b.SetBytes(int64(len(input)) * int64(batch))
		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			job := engine.Job{
				Op:         engine.OpCRC64,
				Input:      input,
				Polynomial: crcPolynomial,
			}
			for pb.Next() {
				for j := 0; j < batch; j++ {
					if slots != nil {
						slots <- struct{}{}
					}
					_, err := eng.Run(&job)
					if slots != nil {
						<-slots
					}
					if err != nil {
						// Fatal would FailNow a worker goroutine,
						// which the testing package forbids.
						b.Errorf("crc64: %v", err)
						return
					}
				}
			}
		})
	}
}
