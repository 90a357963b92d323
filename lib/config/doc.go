// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML run-profile loading for the harness.
//
// A profile is loaded from a single file specified by either the
// IAXBENCH_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. A run without a profile gets the
// built-in defaults, and explicit command-line flags always win over
// profile values.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No other
// environment variables override profile values.
//
// Key exports:
//
//   - [Profile] -- runner defaults plus the data section
//   - [Default] -- a Profile with the built-in defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other harness packages.
package config
