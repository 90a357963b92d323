// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

// Package dataset loads and generates the corpora measurements run
// over.
//
// A corpus is an ordered list of named entries, each carrying its
// bytes and a BLAKE3 digest. [Load] accepts a single file, a directory
// (one entry per regular file, sorted), or a YAML corpus manifest
// listing name/path pairs. [Synthetic] generates deterministic
// compressible text for runs without a dataset. Digests identify the
// corpus in result metadata and key dictionary caches, so two runs
// over the same bytes are comparable by digest alone.
package dataset
