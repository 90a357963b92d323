// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/accelbench/iaxbench/lib/cmdline"
)

// TestRunRejectsLeftoverArgument walks the whole argument path: the
// splicer claims its flags and stores derived values, the leftover
// token reaches the runner, and the runner's rejection surfaces as the
// process error.
func TestRunRejectsLeftoverArgument(t *testing.T) {
	t.Setenv("IAXBENCH_CONFIG", "")
	argv := []string{"iaxbench", "--block_size=4K", "--no_hw", "--foo"}

	flags := cmdline.Defaults()
	rest, _, err := cmdline.Splice(argv, flags)
	if err != nil {
		t.Fatalf("Splice: %v", err)
	}
	if size, err := flags.BlockSizeBytes(); err != nil || size != 4096 {
		t.Errorf("block size = %d, %v; want 4096", size, err)
	}
	if !flags.NoHW {
		t.Error("no_hw not stored")
	}
	if len(rest) != 2 || rest[0] != "iaxbench" || rest[1] != "--foo" {
		t.Errorf("rest = %v, want [iaxbench --foo]", rest)
	}

	var stdout, stderr bytes.Buffer
	runErr := run(argv, &stdout, &stderr)
	if runErr == nil {
		t.Fatal("run should fail on an argument neither parser recognizes")
	}
	if !strings.Contains(runErr.Error(), "--foo") {
		t.Errorf("error %q does not name the leftover argument", runErr)
	}
}

func TestRunHelpShowsBothFlagBlocks(t *testing.T) {
	t.Setenv("IAXBENCH_CONFIG", "")
	var stdout, stderr bytes.Buffer
	if err := run([]string{"iaxbench", "--help"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "Workload arguments:") {
		t.Error("help output missing the workload flag block")
	}
	if !strings.Contains(out, "Measurement flags:") {
		t.Error("help output missing the measurement flag block")
	}
	if !strings.Contains(out, "--block_size") || !strings.Contains(out, "--filter") {
		t.Error("help output missing flag listings")
	}
}

func TestRunVersion(t *testing.T) {
	t.Setenv("IAXBENCH_CONFIG", "")
	var stdout, stderr bytes.Buffer
	if err := run([]string{"iaxbench", "--version"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "0.1.0-dev") {
		t.Errorf("version output %q missing the build version", stdout.String())
	}
}

func TestRunRejectsMalformedBlockSize(t *testing.T) {
	t.Setenv("IAXBENCH_CONFIG", "")
	var stdout, stderr bytes.Buffer
	err := run([]string{"iaxbench", "--block_size=banana", "--no_hw"}, &stdout, &stderr)
	if err == nil {
		t.Fatal("run should fail on a malformed block size")
	}
	if !strings.Contains(err.Error(), "banana") {
		t.Errorf("error %q does not quote the bad value", err)
	}
}

func TestRunRejectsUnknownPlacement(t *testing.T) {
	t.Setenv("IAXBENCH_CONFIG", "")
	var stdout, stderr bytes.Buffer
	err := run([]string{"iaxbench", "--in_mem=l4", "--no_hw"}, &stdout, &stderr)
	if err == nil {
		t.Fatal("run should fail on an unknown placement")
	}
	if !strings.Contains(err.Error(), "l4") {
		t.Errorf("error %q does not quote the bad value", err)
	}
}
