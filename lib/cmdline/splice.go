// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package cmdline

import (
	"fmt"
	"strconv"
	"strings"
)

// Splice scans argv and pulls every recognized workload flag into
// flags. It returns the remaining arguments, argv[0] plus every token
// the splicer does not claim in their original relative order, so a
// second parser can consume them. Repeated flags keep the last value.
//
// Value flags use the --name=value form. Boolean flags also accept the
// bare --name form, meaning true. A --help or -h token sets help and
// stays in the returned slice so the runner's own help handling fires
// too. A recognized flag with a malformed value is an error; nothing is
// stored or spliced in that case.
func Splice(argv []string, flags *Flags) (rest []string, help bool, err error) {
	rest = make([]string, 0, len(argv))
	for i, arg := range argv {
		if i == 0 {
			rest = append(rest, arg)
			continue
		}
		consumed, err := flags.consume(arg)
		if err != nil {
			return nil, false, err
		}
		if consumed {
			continue
		}
		if arg == "--help" || arg == "-h" {
			help = true
		}
		rest = append(rest, arg)
	}
	return rest, help, nil
}

// consume tries each recognized flag pattern against arg. Each flag
// name is claimed by exactly one pattern.
func (f *Flags) consume(arg string) (bool, error) {
	if value, ok := flagValue(arg, "dataset"); ok {
		f.Dataset = value
		return true, nil
	}
	if value, ok := flagValue(arg, "block_size"); ok {
		f.BlockSize = value
		return true, nil
	}
	if value, ok := flagValue(arg, "in_mem"); ok {
		f.InMem = value
		return true, nil
	}
	if value, ok := flagValue(arg, "out_mem"); ok {
		f.OutMem = value
		return true, nil
	}

	for _, intFlag := range []struct {
		name string
		dst  *int
	}{
		{"queue_size", &f.QueueSize},
		{"batch_size", &f.BatchSize},
		{"threads", &f.Threads},
		{"node", &f.Node},
	} {
		value, ok := flagValue(arg, intFlag.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return false, fmt.Errorf("invalid value %q for --%s: want an integer", value, intFlag.name)
		}
		*intFlag.dst = n
		return true, nil
	}

	if value, ok := flagValue(arg, "canned_part"); ok {
		x, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return false, fmt.Errorf("invalid value %q for --canned_part: want a number", value)
		}
		f.CannedPart = x
		return true, nil
	}

	for _, boolFlag := range []struct {
		name string
		dst  *bool
	}{
		{"full_time", &f.FullTime},
		{"no_hw", &f.NoHW},
		{"canned_regen", &f.CannedRegen},
	} {
		value, ok := boolValue(arg, boolFlag.name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid value %q for --%s: want a boolean", value, boolFlag.name)
		}
		*boolFlag.dst = b
		return true, nil
	}

	return false, nil
}

// flagValue matches the --name=value form and returns the value part.
func flagValue(arg, name string) (string, bool) {
	prefix := "--" + name + "="
	if strings.HasPrefix(arg, prefix) {
		return arg[len(prefix):], true
	}
	return "", false
}

// boolValue matches --name (implicit true) or --name=value.
func boolValue(arg, name string) (string, bool) {
	if arg == "--"+name {
		return "true", true
	}
	return flagValue(arg, name)
}

// Usage returns the fixed help block for the workload flags. The
// runner prints its own flag listing separately.
func Usage() string {
	return `Workload arguments:
  iaxbench [--dataset=<path>]       - input dataset: a file, a directory, or a corpus manifest (.yaml)
           [--block_size=<size>]    - process input data in blocks; number with optional K/KB/M/MB suffix
           [--queue_size=<n>]       - outstanding tasks per device
           [--batch_size=<n>]       - operations per submitted batch
           [--threads=<n>]          - thread count for concurrent measurement modes
           [--node=<n>]             - force a NUMA node for the task
           [--in_mem=<location>]    - input placement: cache, llc (default), ram, pmem
           [--out_mem=<location>]   - output placement: ram, pmem, cc_ram (default), cc_pmem
           [--full_time]            - include engine setup and teardown in the timed region
           [--no_hw]                - skip the hardware path entirely

Compression arguments:
  iaxbench [--canned_part=<x>]      - share of data used to build dictionary tables:
                                      0 - whole input; (0,1) - fraction of it; [1,n] - number of blocks
           [--canned_regen]         - rebuild dictionary tables for every block
`
}
