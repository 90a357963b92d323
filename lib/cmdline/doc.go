// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

// Package cmdline holds the workload flags that extend the measurement
// runner's command line, and the splicer that strips them out of argv
// before the runner parses what remains.
//
// The flag set is closed: the splicer recognizes exactly the flags
// listed by Usage and leaves everything else, including --help, for the
// runner, preserving the original token order. Values that carry extra
// semantics (block size, memory placements) are resolved lazily through
// accessors that cache the parsed result for the life of the process.
package cmdline
