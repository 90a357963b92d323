// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

// Package suites defines the measurement suites and the explicit
// manifest that registers them.
//
// Nothing here registers itself: [Manifest] returns the registration
// callbacks in a fixed order and the entry point feeds them through a
// registry before the measurement loop starts. [Env] carries what the
// callbacks need to decide which cases exist on this host: resolved
// flags, the system snapshot, the engines, and the corpus.
//
// Six suites:
//
//   - deflate: software levels times corpus entries, the hardware
//     path when available, and canned-dictionary variants when
//     canned_part is set.
//   - inflate: decompression of pre-compressed corpus entries.
//   - crc64: checksum over the corpus, plus full-context variants
//     that pay engine setup and teardown inside the timed region.
//   - filter: scan, extract and select over synthetic packed arrays
//     at element widths 8, 16 and 32.
//   - baseline: zstd and LZ4 block mode over the same corpus, for
//     calibrating the deflate numbers against mainstream codecs.
//   - throughput: parallel submission with bounded in-flight jobs,
//     active when --threads is set.
//
// Case names follow the sub-benchmark convention, one dimension per
// segment: "Deflate/sw/level=1/data=alice29". The hardware path is
// "hw", the software path "sw"; a case that needs hardware simply is
// not registered when the hardware engine is absent.
package suites
