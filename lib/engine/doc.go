// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

// Package engine defines the operation model the benchmark suites
// measure: Deflate, Inflate, CRC64, and the bit-packed analytics
// operations Scan, Extract, and Select.
//
// A [Job] describes one operation; an [Engine] executes it. Two
// implementations exist: [Software] in this package runs everything on
// the CPU (flate for compression, table-driven CRC, plain loops for
// the analytics operations), and the idxd subpackage drives the
// In-Memory Analytics Accelerator through its work-queue protocol.
// Suites run the same Job against both paths, so the two
// implementations must agree on semantics bit for bit.
//
// Analytics operations work on little-endian bit-packed arrays:
// element i of width w occupies bits [i*w, (i+1)*w) of the input,
// least significant bit first. Scan emits a one-bit-per-element match
// mask, Extract takes an index range, Select applies a precomputed
// mask, and all three pack their output at the nominal element width.
package engine
