// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

// Package bench runs registered benchmark cases and emits results in
// the Go benchmark text format.
//
// Two pieces:
//
// [Registry] is an ordered collection of registration callbacks. The
// entry point builds one, fills it from the suite manifest, and drains
// it once before measuring. Draining does not clear: the registry is a
// recording of registration order, not a queue.
//
// [Runner] owns the measurement surface. It parses the arguments left
// over after the accelerator flags are spliced out, resolves them
// against the optional YAML run profile (explicit flags win), executes
// each matching case through [testing.Benchmark], and writes one
// benchmark line per run through golang.org/x/perf/benchfmt. File
// configuration lines (host, CPU model, accelerator count, dataset
// digest, placements, block size) precede the first result so stored
// streams are self-describing. With --count above one the runner
// appends a statistical summary per case: mean and confidence interval
// from benchmath under a normality assumption, scaled for reading with
// benchunit.
//
// The runner deliberately reuses the testing package's measurement
// loop instead of carrying its own calibration logic: b.N ramping,
// timer handling, and RunParallel all behave exactly as they do under
// "go test -bench".
package bench
