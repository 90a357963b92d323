// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package cmdline

import (
	"reflect"
	"strings"
	"testing"
)

func TestSpliceRemovesRecognizedFlags(t *testing.T) {
	argv := []string{
		"iaxbench",
		"--filter=Deflate",
		"--dataset=/corpora/calgary",
		"--block_size=16K",
		"--count=5",
		"--no_hw",
		"--threads=8",
		"-v",
	}

	flags := Defaults()
	rest, help, err := Splice(argv, flags)
	if err != nil {
		t.Fatalf("Splice: %v", err)
	}
	if help {
		t.Error("help = true, want false")
	}

	wantRest := []string{"iaxbench", "--filter=Deflate", "--count=5", "-v"}
	if !reflect.DeepEqual(rest, wantRest) {
		t.Errorf("rest = %v, want %v", rest, wantRest)
	}
	if flags.Dataset != "/corpora/calgary" {
		t.Errorf("Dataset = %q, want /corpora/calgary", flags.Dataset)
	}
	if flags.BlockSize != "16K" {
		t.Errorf("BlockSize = %q, want 16K", flags.BlockSize)
	}
	if !flags.NoHW {
		t.Error("NoHW = false, want true")
	}
	if flags.Threads != 8 {
		t.Errorf("Threads = %d, want 8", flags.Threads)
	}
}

func TestSpliceEndToEnd(t *testing.T) {
	argv := []string{"prog", "--block_size=4K", "--no_hw", "--foo"}

	flags := Defaults()
	rest, help, err := Splice(argv, flags)
	if err != nil {
		t.Fatalf("Splice: %v", err)
	}
	if help {
		t.Error("help = true, want false")
	}

	wantRest := []string{"prog", "--foo"}
	if !reflect.DeepEqual(rest, wantRest) {
		t.Errorf("rest = %v, want %v", rest, wantRest)
	}
	if !flags.NoHW {
		t.Error("NoHW = false, want true")
	}
	size, err := flags.BlockSizeBytes()
	if err != nil {
		t.Fatalf("BlockSizeBytes: %v", err)
	}
	if size != 4096 {
		t.Errorf("BlockSizeBytes = %d, want 4096", size)
	}
}

func TestSpliceLastOccurrenceWins(t *testing.T) {
	argv := []string{
		"iaxbench",
		"--node=0",
		"--unknown1",
		"--node=1",
		"--in_mem=ram",
		"--unknown2",
		"--in_mem=cache",
	}

	flags := Defaults()
	rest, _, err := Splice(argv, flags)
	if err != nil {
		t.Fatalf("Splice: %v", err)
	}
	if flags.Node != 1 {
		t.Errorf("Node = %d, want 1", flags.Node)
	}
	if flags.InMem != "cache" {
		t.Errorf("InMem = %q, want cache", flags.InMem)
	}

	wantRest := []string{"iaxbench", "--unknown1", "--unknown2"}
	if !reflect.DeepEqual(rest, wantRest) {
		t.Errorf("rest = %v, want %v", rest, wantRest)
	}
}

func TestSpliceAdjacentRecognized(t *testing.T) {
	argv := []string{"iaxbench", "--no_hw", "--full_time", "--canned_regen", "--queue_size=16"}

	flags := Defaults()
	rest, _, err := Splice(argv, flags)
	if err != nil {
		t.Fatalf("Splice: %v", err)
	}
	if len(rest) != 1 || rest[0] != "iaxbench" {
		t.Errorf("rest = %v, want [iaxbench]", rest)
	}
	if !flags.NoHW || !flags.FullTime || !flags.CannedRegen {
		t.Errorf("NoHW/FullTime/CannedRegen = %v/%v/%v, want all true",
			flags.NoHW, flags.FullTime, flags.CannedRegen)
	}
	if flags.QueueSize != 16 {
		t.Errorf("QueueSize = %d, want 16", flags.QueueSize)
	}
}

func TestSpliceBoolForms(t *testing.T) {
	tests := []struct {
		arg  string
		want bool
	}{
		{"--no_hw", true},
		{"--no_hw=true", true},
		{"--no_hw=1", true},
		{"--no_hw=false", false},
		{"--no_hw=0", false},
	}

	for _, test := range tests {
		t.Run(test.arg, func(t *testing.T) {
			flags := Defaults()
			flags.NoHW = !test.want // prove the value was written, not defaulted
			rest, _, err := Splice([]string{"iaxbench", test.arg}, flags)
			if err != nil {
				t.Fatalf("Splice(%q): %v", test.arg, err)
			}
			if len(rest) != 1 {
				t.Errorf("rest = %v, want only argv[0]", rest)
			}
			if flags.NoHW != test.want {
				t.Errorf("NoHW = %v, want %v", flags.NoHW, test.want)
			}
		})
	}
}

func TestSpliceHelpStays(t *testing.T) {
	for _, arg := range []string{"--help", "-h"} {
		t.Run(arg, func(t *testing.T) {
			flags := Defaults()
			rest, help, err := Splice([]string{"iaxbench", arg, "--no_hw"}, flags)
			if err != nil {
				t.Fatalf("Splice: %v", err)
			}
			if !help {
				t.Error("help = false, want true")
			}
			wantRest := []string{"iaxbench", arg}
			if !reflect.DeepEqual(rest, wantRest) {
				t.Errorf("rest = %v, want %v", rest, wantRest)
			}
		})
	}
}

func TestSpliceMalformedValues(t *testing.T) {
	tests := []string{
		"--queue_size=abc",
		"--batch_size=1.5",
		"--threads=",
		"--node=one",
		"--canned_part=lots",
		"--no_hw=maybe",
		"--full_time=2",
	}

	for _, arg := range tests {
		t.Run(arg, func(t *testing.T) {
			flags := Defaults()
			if _, _, err := Splice([]string{"iaxbench", arg}, flags); err == nil {
				t.Errorf("Splice(%q): want error, got nil", arg)
			}
		})
	}
}

func TestSpliceValueFlagNeedsEquals(t *testing.T) {
	// A value flag without "=value" is not recognized and passes through
	// for the runner to reject.
	flags := Defaults()
	rest, _, err := Splice([]string{"iaxbench", "--dataset", "/tmp/x"}, flags)
	if err != nil {
		t.Fatalf("Splice: %v", err)
	}
	wantRest := []string{"iaxbench", "--dataset", "/tmp/x"}
	if !reflect.DeepEqual(rest, wantRest) {
		t.Errorf("rest = %v, want %v", rest, wantRest)
	}
	if flags.Dataset != "" {
		t.Errorf("Dataset = %q, want empty", flags.Dataset)
	}
}

func TestSpliceEmptyArgv(t *testing.T) {
	flags := Defaults()
	rest, help, err := Splice(nil, flags)
	if err != nil {
		t.Fatalf("Splice(nil): %v", err)
	}
	if help {
		t.Error("help = true, want false")
	}
	if len(rest) != 0 {
		t.Errorf("rest = %v, want empty", rest)
	}
}

func TestUsageMentionsEveryFlag(t *testing.T) {
	usage := Usage()
	for _, name := range []string{
		"dataset", "block_size", "queue_size", "batch_size", "threads",
		"node", "in_mem", "out_mem", "full_time", "no_hw",
		"canned_part", "canned_regen",
	} {
		if !strings.Contains(usage, "--"+name) {
			t.Errorf("Usage() does not mention --%s", name)
		}
	}
}
