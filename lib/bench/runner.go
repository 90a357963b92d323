// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package bench

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"runtime"
	"sort"
	"testing"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"golang.org/x/perf/benchfmt"
	"golang.org/x/perf/benchmath"
	"golang.org/x/perf/benchunit"
	"golang.org/x/term"

	"github.com/accelbench/iaxbench/lib/config"
	"github.com/accelbench/iaxbench/lib/hwinfo/iax"
	"github.com/accelbench/iaxbench/lib/version"
)

// A benchCase is one named measurement function.
type benchCase struct {
	name string
	fn   func(*testing.B)
}

// Runner parses measurement flags, executes registered cases through
// [testing.Benchmark], and writes the result stream.
type Runner struct {
	// Node pins the measurement thread to a NUMA node when >= 0.
	// The entry point sets it from the accelerator flag block; the
	// pin is applied inside each benchmark body so the pinned
	// thread is the one running the measurement loop.
	Node int

	flags *pflag.FlagSet

	filter      string
	count       int
	benchtime   string
	list        bool
	outPath     string
	configPath  string
	showVersion bool
	verbose     bool

	profile *config.Profile
	pattern *regexp.Regexp

	fileConfig []benchfmt.Config
	cases      []benchCase

	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

// NewRunner returns a runner writing results to stdout and progress
// to stderr. Flag defaults mirror [config.Default] so a profile-less
// run and an empty profile behave identically.
func NewRunner(stdout, stderr io.Writer, logger *slog.Logger) *Runner {
	defaults := config.Default()
	r := &Runner{
		Node:    -1,
		profile: defaults,
		stdout:  stdout,
		stderr:  stderr,
		logger:  logger,
	}
	flags := pflag.NewFlagSet("iaxbench", pflag.ContinueOnError)
	flags.SortFlags = false
	flags.SetOutput(io.Discard)
	flags.StringVar(&r.filter, "filter", defaults.Runner.Filter, "regular expression selecting cases to run")
	flags.IntVar(&r.count, "count", defaults.Runner.Count, "runs per case; above one adds a statistical summary")
	flags.StringVar(&r.benchtime, "benchtime", defaults.Runner.Benchtime, "target time per run, a duration or an Nx iteration count")
	flags.BoolVar(&r.list, "list", false, "print matching case names instead of running them")
	flags.StringVar(&r.outPath, "out", defaults.Runner.Out, "also write the benchmark stream to this file")
	flags.StringVar(&r.configPath, "config", "", "YAML run profile (default $IAXBENCH_CONFIG)")
	flags.BoolVar(&r.showVersion, "version", false, "print build version and exit")
	flags.BoolVarP(&r.verbose, "verbose", "v", false, "progress lines even when stderr is not a terminal")
	flags.BoolP("help", "h", false, "show usage")
	r.flags = flags
	return r
}

// Parse consumes the argument vector left over after the accelerator
// flags were spliced out; argv[0] is the program name. The returned
// proceed is false with a nil error when a terminal flag (--help,
// --version) was handled and the process should exit zero without
// measuring anything.
func (r *Runner) Parse(argv []string) (proceed bool, err error) {
	arguments := argv
	if len(arguments) > 0 {
		arguments = arguments[1:]
	}
	if err := r.flags.Parse(arguments); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			r.printUsage(r.stdout)
			return false, nil
		}
		return false, fmt.Errorf("unrecognized arguments: %w", err)
	}
	if help, _ := r.flags.GetBool("help"); help {
		r.printUsage(r.stdout)
		return false, nil
	}
	if r.showVersion {
		fmt.Fprintln(r.stdout, version.Info())
		return false, nil
	}
	if positional := r.flags.Args(); len(positional) > 0 {
		return false, fmt.Errorf("unrecognized argument: %s", positional[0])
	}

	profile, err := r.loadProfile()
	if err != nil {
		return false, err
	}

	// Profile values fill in for flags the user did not set
	// explicitly; an explicit flag always wins.
	if !r.flags.Changed("filter") {
		r.filter = profile.Runner.Filter
	}
	if !r.flags.Changed("count") {
		r.count = profile.Runner.Count
	}
	if !r.flags.Changed("benchtime") {
		r.benchtime = profile.Runner.Benchtime
	}
	if !r.flags.Changed("out") {
		r.outPath = profile.Runner.Out
	}

	resolved := *profile
	resolved.Runner.Filter = r.filter
	resolved.Runner.Count = r.count
	resolved.Runner.Benchtime = r.benchtime
	resolved.Runner.Out = r.outPath
	if err := resolved.Validate(); err != nil {
		return false, err
	}
	r.profile = &resolved

	if r.filter != "" {
		pattern, err := regexp.Compile(r.filter)
		if err != nil {
			return false, fmt.Errorf("filter: %w", err)
		}
		r.pattern = pattern
	}
	return true, nil
}

func (r *Runner) loadProfile() (*config.Profile, error) {
	if r.configPath != "" {
		return config.LoadFile(r.configPath)
	}
	return config.Load()
}

// Profile returns the resolved run profile: defaults, overlaid with
// the YAML profile, overlaid with explicit flags. Valid after Parse.
func (r *Runner) Profile() *config.Profile {
	return r.profile
}

// Register adds a named case. Names follow the sub-benchmark
// convention ("Deflate/sw/level=1/data=alice29"); the stream writer
// prepends "Benchmark" and appends the GOMAXPROCS suffix.
func (r *Runner) Register(name string, fn func(*testing.B)) {
	r.cases = append(r.cases, benchCase{name: name, fn: fn})
}

// AddFileConfig appends a file configuration line ("key: value")
// emitted ahead of the first result. Keys must start with a lowercase
// letter to parse as configuration rather than as a benchmark line.
func (r *Runner) AddFileConfig(key, value string) {
	r.fileConfig = append(r.fileConfig, benchfmt.Config{Key: key, Value: []byte(value), File: true})
}

func (r *Runner) printUsage(w io.Writer) {
	fmt.Fprint(w, "Measurement flags:\n")
	r.flags.SetOutput(w)
	r.flags.PrintDefaults()
	r.flags.SetOutput(io.Discard)
}

func (r *Runner) matching() []benchCase {
	if r.pattern == nil {
		return r.cases
	}
	var selected []benchCase
	for _, c := range r.cases {
		if r.pattern.MatchString(c.name) {
			selected = append(selected, c)
		}
	}
	return selected
}

// Run executes every case matching the filter, count times each, and
// writes the stream to stdout (and to --out when set). It returns on
// the first failing case; a case fails when its body calls Fatal or
// Error on the testing.B.
func (r *Runner) Run() (err error) {
	selected := r.matching()
	if r.list {
		for _, c := range selected {
			fmt.Fprintln(r.stdout, c.name)
		}
		return nil
	}
	if len(selected) == 0 {
		r.logger.Warn("no cases match the filter", "filter", r.filter)
		return nil
	}

	// The testing package reads its per-run target time from the
	// flag it registers in Init; there is no programmatic setter.
	testing.Init()
	if err := flag.Set("test.benchtime", r.benchtime); err != nil {
		return fmt.Errorf("benchtime %q: %w", r.benchtime, err)
	}

	output := io.Writer(r.stdout)
	if r.outPath != "" {
		file, createErr := os.Create(r.outPath)
		if createErr != nil {
			return fmt.Errorf("creating %s: %w", r.outPath, createErr)
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("closing %s: %w", r.outPath, closeErr)
			}
		}()
		output = io.MultiWriter(r.stdout, file)
	}

	writer := benchfmt.NewWriter(output)
	progress := r.verbose || isTerminal(r.stderr)

	var summaries []caseSummary
	for _, c := range selected {
		if progress {
			fmt.Fprintf(r.stderr, "running %s\n", c.name)
		}
		summary := caseSummary{name: c.name}
		for run := 0; run < r.count; run++ {
			result, runErr := r.runCase(c)
			if runErr != nil {
				return runErr
			}
			values := resultValues(result)
			record := &benchfmt.Result{
				Config: r.fileConfig,
				Name:   benchfmt.Name(suffixedName(c.name)),
				Iters:  result.N,
				Values: values,
			}
			if writeErr := writer.Write(record); writeErr != nil {
				return fmt.Errorf("writing result: %w", writeErr)
			}
			summary.observe(values)
		}
		summaries = append(summaries, summary)
	}

	if r.count > 1 {
		r.writeSummary(summaries)
	}
	return nil
}

// runCase executes one case once. When Node is set the affinity pin
// runs inside the benchmark body, on the goroutine the testing
// package dedicates to the measurement loop, so the pinned thread is
// the measuring thread. RunParallel workers spawn fresh goroutines
// and are not covered by the pin.
func (r *Runner) runCase(c benchCase) (testing.BenchmarkResult, error) {
	fn := c.fn
	if node := r.Node; node >= 0 {
		inner := fn
		fn = func(b *testing.B) {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			if err := iax.PinToNode(node); err != nil {
				b.Fatalf("pinning to node %d: %v", node, err)
			}
			inner(b)
		}
	}
	result := testing.Benchmark(fn)
	if result.N == 0 {
		return result, fmt.Errorf("case %s failed", c.name)
	}
	return result, nil
}

// resultValues converts a testing result into benchfmt values: ns/op
// always, MB/s when the case reported its byte volume, then custom
// metrics (compression ratio and the like) in sorted unit order. An
// explicit ReportMetric of ns/op overrides the measured wall time,
// matching the testing package's own output.
func resultValues(result testing.BenchmarkResult) []benchfmt.Value {
	nsPerOp := float64(result.T.Nanoseconds()) / float64(result.N)
	if v, ok := result.Extra["ns/op"]; ok {
		nsPerOp = v
	}
	values := []benchfmt.Value{{Value: nsPerOp, Unit: "ns/op"}}
	if result.Bytes > 0 && result.T > 0 {
		megabytes := float64(result.Bytes) * float64(result.N) / 1e6
		values = append(values, benchfmt.Value{Value: megabytes / result.T.Seconds(), Unit: "MB/s"})
	}
	units := make([]string, 0, len(result.Extra))
	for unit := range result.Extra {
		if unit == "ns/op" {
			continue
		}
		units = append(units, unit)
	}
	sort.Strings(units)
	for _, unit := range units {
		values = append(values, benchfmt.Value{Value: result.Extra[unit], Unit: unit})
	}
	return values
}

// suffixedName appends the GOMAXPROCS suffix exactly as "go test"
// does, so streams from this runner and from go test diff cleanly.
func suffixedName(name string) string {
	if procs := runtime.GOMAXPROCS(0); procs != 1 {
		return fmt.Sprintf("%s-%d", name, procs)
	}
	return name
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// caseSummary accumulates per-run measurements for the statistical
// summary printed when --count is above one.
type caseSummary struct {
	name     string
	nsPerOp  []float64
	mbPerSec []float64
}

func (s *caseSummary) observe(values []benchfmt.Value) {
	for _, v := range values {
		switch v.Unit {
		case "ns/op":
			s.nsPerOp = append(s.nsPerOp, v.Value)
		case "MB/s":
			s.mbPerSec = append(s.mbPerSec, v.Value)
		}
	}
}

// writeSummary prints one line per case: mean time per operation with
// its 95% confidence interval under a normality assumption, and mean
// throughput where cases reported bytes.
func (r *Runner) writeSummary(summaries []caseSummary) {
	fmt.Fprintln(r.stdout)
	tw := tabwriter.NewWriter(r.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "name\tsec/op\t\tMB/s\n")
	for _, s := range summaries {
		sample := benchmath.NewSample(s.nsPerOp, &benchmath.DefaultThresholds)
		summary := benchmath.AssumeNormal.Summary(sample, 0.95)
		seconds, unit := benchunit.Tidy(summary.Center, "ns/op")
		timeCell := benchunit.Scale(seconds, benchunit.ClassOf(unit))
		throughput := ""
		if len(s.mbPerSec) > 0 {
			tpSample := benchmath.NewSample(s.mbPerSec, &benchmath.DefaultThresholds)
			throughput = fmt.Sprintf("%.1f", benchmath.AssumeNormal.Summary(tpSample, 0.95).Center)
		}
		fmt.Fprintf(tw, "%s\t%s\t±%s\t%s\n", s.name, timeCell, summary.PctRangeString(), throughput)
	}
	tw.Flush()
}
