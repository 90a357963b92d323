// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

// Command iaxbench measures compression, checksum, and filter
// throughput on the CPU and on the in-memory analytics accelerator,
// and emits results in the Go benchmark format.
//
// Workload flags (--dataset, --block_size, placements) are spliced
// out of the argument list first; everything left over belongs to the
// measurement runner. `iaxbench --help` prints both flag blocks.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/accelbench/iaxbench/lib/bench"
	"github.com/accelbench/iaxbench/lib/cmdline"
	"github.com/accelbench/iaxbench/lib/config"
	"github.com/accelbench/iaxbench/lib/dataset"
	"github.com/accelbench/iaxbench/lib/engine"
	"github.com/accelbench/iaxbench/lib/engine/idxd"
	"github.com/accelbench/iaxbench/lib/hwinfo"
	"github.com/accelbench/iaxbench/lib/hwinfo/iax"
	"github.com/accelbench/iaxbench/lib/suites"
	"github.com/accelbench/iaxbench/lib/version"
)

func main() {
	if err := run(os.Args, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(argv []string, stdout, stderr io.Writer) error {
	logLevel := slog.LevelInfo
	if os.Getenv("IAXBENCH_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	flags := cmdline.Defaults()
	rest, help, err := cmdline.Splice(argv, flags)
	if err != nil {
		return err
	}
	if help {
		// The help token stays in rest, so the runner prints its own
		// flag block after this one and stops before measuring.
		fmt.Fprint(stdout, cmdline.Usage())
	}

	runner := bench.NewRunner(stdout, stderr, logger)
	runner.Node = flags.Node
	proceed, err := runner.Parse(rest)
	if err != nil || !proceed {
		return err
	}

	// Resolve derived flag values up front: a malformed block size or
	// placement is fatal before anything expensive runs, and the
	// output placement decides the device's cache-control bit.
	blockSize, err := flags.BlockSizeBytes()
	if err != nil {
		return err
	}
	inPlacement, err := flags.InputPlacement()
	if err != nil {
		return err
	}
	outPlacement, err := flags.OutputPlacement()
	if err != nil {
		return err
	}

	enumerator := iax.NewEnumerator()
	probe := hwinfo.NewProbe(enumerator)
	info, err := probe.Info()
	if err != nil {
		return fmt.Errorf("probing host topology: %w", err)
	}
	fmt.Fprint(stdout, info.Summary())

	env := &suites.Env{
		Flags:        flags,
		System:       info,
		Software:     engine.NewSoftware(),
		Logger:       logger,
		BlockSize:    blockSize,
		InPlacement:  inPlacement,
		OutPlacement: outPlacement,
	}
	defer env.Software.Close()

	if !flags.NoHW {
		options := idxd.Options{
			Node:         flags.Node,
			CacheControl: outPlacement.CacheControl(),
		}
		if err := idxd.Selftest(enumerator, options); err != nil {
			return fmt.Errorf("hardware readiness: %w", err)
		}
		hardware, err := idxd.Open(enumerator, options)
		if err != nil {
			return fmt.Errorf("opening hardware engine: %w", err)
		}
		defer hardware.Close()
		env.Hardware = hardware
		env.Enumerator = enumerator
		env.HardwareOptions = options
		logger.Debug("hardware path ready", "queue", hardware.Queue().DevicePath())
	}

	corpus, err := loadCorpus(flags, runner.Profile(), logger)
	if err != nil {
		return err
	}
	env.Corpus = corpus

	addFileConfig(runner, info, corpus, inPlacement, outPlacement, blockSize)

	registry := bench.NewRegistry()
	for _, callback := range suites.Manifest(runner, env) {
		registry.Register(callback)
	}
	registry.Drain()
	logger.Debug("suites registered", "callbacks", registry.Len())

	return runner.Run()
}

// loadCorpus picks the measurement inputs: the --dataset flag, then
// the profile's data section, then deterministic synthetic text.
func loadCorpus(flags *cmdline.Flags, profile *config.Profile, logger *slog.Logger) (*dataset.Corpus, error) {
	path := flags.Dataset
	if path == "" {
		path = profile.Data.Dataset
	}
	if path == "" {
		return dataset.Synthetic(profile.Data.SyntheticSize, profile.Data.Seed), nil
	}
	corpus, err := dataset.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	logger.Debug("dataset loaded", "source", corpus.Source, "entries", len(corpus.Entries))
	return corpus, nil
}

// addFileConfig records the run context ahead of the first result so
// stored streams identify the host, inputs, and harness build.
func addFileConfig(runner *bench.Runner, info *hwinfo.SystemInfo, corpus *dataset.Corpus, in, out cmdline.Placement, blockSize int64) {
	runner.AddFileConfig("host", info.Hostname)
	runner.AddFileConfig("kernel", info.KernelRelease)
	runner.AddFileConfig("cpu", info.CPU.ModelName)
	runner.AddFileConfig("accelerators", strconv.Itoa(info.Accelerators.TotalDevices))
	runner.AddFileConfig("dataset", corpus.Source)
	runner.AddFileConfig("dataset-digest", corpus.Digest().Short())
	runner.AddFileConfig("in-mem", in.String())
	runner.AddFileConfig("out-mem", out.String())
	if blockSize > 0 {
		runner.AddFileConfig("block-size", strconv.FormatInt(blockSize, 10))
	}
	runner.AddFileConfig("iaxbench-version", version.Short())
}
