// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package bench

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/perf/benchfmt"
)

func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Setenv("IAXBENCH_CONFIG", "")
	var stdout, stderr bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRunner(&stdout, &stderr, logger), &stdout, &stderr
}

func TestParseDefaults(t *testing.T) {
	runner, _, _ := newTestRunner(t)
	proceed, err := runner.Parse([]string{"iaxbench"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !proceed {
		t.Fatal("Parse with no flags should proceed")
	}
	profile := runner.Profile()
	if profile.Runner.Count != 1 {
		t.Errorf("count = %d, want 1", profile.Runner.Count)
	}
	if profile.Runner.Benchtime != "1s" {
		t.Errorf("benchtime = %q, want 1s", profile.Runner.Benchtime)
	}
	if runner.Node != -1 {
		t.Errorf("Node = %d, want -1", runner.Node)
	}
}

func TestParseUnknownFlag(t *testing.T) {
	runner, _, _ := newTestRunner(t)
	proceed, err := runner.Parse([]string{"iaxbench", "--foo"})
	if err == nil {
		t.Fatal("Parse should reject an unknown flag")
	}
	if proceed {
		t.Error("Parse must not proceed on an unknown flag")
	}
	if !strings.Contains(err.Error(), "--foo") {
		t.Errorf("error %q does not name the offending flag", err)
	}
}

func TestParsePositionalRejected(t *testing.T) {
	runner, _, _ := newTestRunner(t)
	_, err := runner.Parse([]string{"iaxbench", "stray"})
	if err == nil {
		t.Fatal("Parse should reject a positional argument")
	}
	if !strings.Contains(err.Error(), "stray") {
		t.Errorf("error %q does not name the argument", err)
	}
}

func TestParseHelp(t *testing.T) {
	runner, stdout, _ := newTestRunner(t)
	proceed, err := runner.Parse([]string{"iaxbench", "--help"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if proceed {
		t.Error("help should not proceed to measurement")
	}
	out := stdout.String()
	for _, flag := range []string{"--filter", "--count", "--benchtime", "--out"} {
		if !strings.Contains(out, flag) {
			t.Errorf("usage output missing %s", flag)
		}
	}
}

func TestParseVersion(t *testing.T) {
	runner, stdout, _ := newTestRunner(t)
	proceed, err := runner.Parse([]string{"iaxbench", "--version"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if proceed {
		t.Error("version should not proceed to measurement")
	}
	if !strings.Contains(stdout.String(), "0.1.0-dev") {
		t.Errorf("version output = %q, want the build version", stdout.String())
	}
}

func TestParseProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	profileYAML := "runner:\n  count: 4\n  benchtime: 2x\n"
	if err := os.WriteFile(path, []byte(profileYAML), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	runner, _, _ := newTestRunner(t)
	if _, err := runner.Parse([]string{"iaxbench", "--config", path}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := runner.Profile().Runner.Count; got != 4 {
		t.Errorf("count from profile = %d, want 4", got)
	}
	if got := runner.Profile().Runner.Benchtime; got != "2x" {
		t.Errorf("benchtime from profile = %q, want 2x", got)
	}
}

func TestParseFlagBeatsProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte("runner:\n  count: 4\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	runner, _, _ := newTestRunner(t)
	if _, err := runner.Parse([]string{"iaxbench", "--config", path, "--count", "2"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := runner.Profile().Runner.Count; got != 2 {
		t.Errorf("count = %d, want the explicit flag value 2", got)
	}
}

func TestParseInvalidFilter(t *testing.T) {
	runner, _, _ := newTestRunner(t)
	if _, err := runner.Parse([]string{"iaxbench", "--filter", "["}); err == nil {
		t.Fatal("Parse should reject an invalid filter regexp")
	}
}

func TestParseInvalidBenchtime(t *testing.T) {
	runner, _, _ := newTestRunner(t)
	if _, err := runner.Parse([]string{"iaxbench", "--benchtime", "3y"}); err == nil {
		t.Fatal("Parse should reject a malformed benchtime")
	}
}

func TestRunEmitsParseableStream(t *testing.T) {
	runner, stdout, _ := newTestRunner(t)
	if _, err := runner.Parse([]string{"iaxbench", "--benchtime", "1x"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	runner.AddFileConfig("host", "testhost")
	runner.AddFileConfig("dataset", "0011223344ff")

	sink := 0
	runner.Register("Spin", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			sink++
		}
		b.SetBytes(1024)
	})
	if err := runner.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "host: testhost") {
		t.Errorf("output missing file config line, got:\n%s", out)
	}
	if !strings.Contains(out, "BenchmarkSpin") {
		t.Errorf("output missing benchmark line, got:\n%s", out)
	}

	reader := benchfmt.NewReader(strings.NewReader(out), "stream")
	results := 0
	for reader.Scan() {
		switch record := reader.Result().(type) {
		case *benchfmt.Result:
			results++
			if !strings.HasPrefix(record.Name.String(), "Spin") {
				t.Errorf("parsed name = %q, want Spin prefix", record.Name.String())
			}
			if got := record.GetConfig("host"); got != "testhost" {
				t.Errorf("parsed host = %q, want testhost", got)
			}
			if _, ok := record.Value("sec/op"); !ok {
				t.Error("parsed result has no sec/op value")
			}
		case *benchfmt.SyntaxError:
			t.Errorf("stream does not parse: %v", record)
		}
	}
	if err := reader.Err(); err != nil {
		t.Fatalf("reading stream back: %v", err)
	}
	if results != 1 {
		t.Errorf("parsed %d results, want 1", results)
	}
	if sink == 0 {
		t.Error("benchmark body never ran")
	}
}

func TestRunFilter(t *testing.T) {
	runner, stdout, _ := newTestRunner(t)
	if _, err := runner.Parse([]string{"iaxbench", "--benchtime", "1x", "--filter", "^Alpha$"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	runner.Register("Alpha", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
		}
	})
	betaRan := false
	runner.Register("Beta", func(b *testing.B) {
		betaRan = true
	})
	if err := runner.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(stdout.String(), "BenchmarkAlpha") {
		t.Error("filtered run missing the matching case")
	}
	if strings.Contains(stdout.String(), "BenchmarkBeta") || betaRan {
		t.Error("filtered run executed a non-matching case")
	}
}

func TestRunList(t *testing.T) {
	runner, stdout, _ := newTestRunner(t)
	if _, err := runner.Parse([]string{"iaxbench", "--list"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ran := false
	runner.Register("Alpha", func(b *testing.B) { ran = true })
	runner.Register("Beta", func(b *testing.B) { ran = true })
	if err := runner.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := stdout.String(), "Alpha\nBeta\n"; got != want {
		t.Errorf("list output = %q, want %q", got, want)
	}
	if ran {
		t.Error("--list must not execute cases")
	}
}

func TestRunOutFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.txt")
	runner, stdout, _ := newTestRunner(t)
	if _, err := runner.Parse([]string{"iaxbench", "--benchtime", "1x", "--out", path}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	runner.Register("Spin", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
		}
	})
	if err := runner.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "BenchmarkSpin") {
		t.Error("out file missing the benchmark line")
	}
	if !strings.Contains(stdout.String(), "BenchmarkSpin") {
		t.Error("stdout missing the benchmark line when --out is set")
	}
}

func TestRunCountSummary(t *testing.T) {
	runner, stdout, _ := newTestRunner(t)
	if _, err := runner.Parse([]string{"iaxbench", "--benchtime", "1x", "--count", "3"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	runner.Register("Spin", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
		}
	})
	if err := runner.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := stdout.String()
	if got := strings.Count(out, "BenchmarkSpin"); got != 3 {
		t.Errorf("got %d benchmark lines, want 3", got)
	}
	if !strings.Contains(out, "sec/op") || !strings.Contains(out, "±") {
		t.Errorf("summary table missing, got:\n%s", out)
	}
}

func TestRunCaseFailure(t *testing.T) {
	runner, _, _ := newTestRunner(t)
	if _, err := runner.Parse([]string{"iaxbench", "--benchtime", "1x"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	runner.Register("Broken", func(b *testing.B) {
		b.Fatal("engine unavailable")
	})
	err := runner.Run()
	if err == nil {
		t.Fatal("Run should surface a failing case")
	}
	if !strings.Contains(err.Error(), "Broken") {
		t.Errorf("error %q does not name the case", err)
	}
}

func TestRunNoMatchWarns(t *testing.T) {
	t.Setenv("IAXBENCH_CONFIG", "")
	var stdout, stderr, logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	runner := NewRunner(&stdout, &stderr, logger)
	if _, err := runner.Parse([]string{"iaxbench", "--filter", "nothing"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	runner.Register("Spin", func(b *testing.B) {})
	if err := runner.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(logs.String(), "no cases match") {
		t.Errorf("expected a warning about the empty selection, got %q", logs.String())
	}
}

func TestVerboseProgress(t *testing.T) {
	runner, _, stderr := newTestRunner(t)
	if _, err := runner.Parse([]string{"iaxbench", "--benchtime", "1x", "-v"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	runner.Register("Spin", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
		}
	})
	if err := runner.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(stderr.String(), "running Spin") {
		t.Errorf("verbose run missing progress line, stderr = %q", stderr.String())
	}
}

func TestResultValues(t *testing.T) {
	result := testing.BenchmarkResult{
		N:     100,
		T:     time.Second,
		Bytes: 1000000,
		Extra: map[string]float64{"ratio": 2.5},
	}
	values := resultValues(result)
	if len(values) != 3 {
		t.Fatalf("got %d values, want 3", len(values))
	}
	if values[0].Unit != "ns/op" || values[0].Value != 1e7 {
		t.Errorf("values[0] = %v %s, want 1e7 ns/op", values[0].Value, values[0].Unit)
	}
	if values[1].Unit != "MB/s" || values[1].Value != 100 {
		t.Errorf("values[1] = %v %s, want 100 MB/s", values[1].Value, values[1].Unit)
	}
	if values[2].Unit != "ratio" || values[2].Value != 2.5 {
		t.Errorf("values[2] = %v %s, want 2.5 ratio", values[2].Value, values[2].Unit)
	}
}

func TestResultValuesReportedTime(t *testing.T) {
	result := testing.BenchmarkResult{
		N:     10,
		T:     time.Second,
		Extra: map[string]float64{"ns/op": 42},
	}
	values := resultValues(result)
	if len(values) != 1 {
		t.Fatalf("got %d values, want 1", len(values))
	}
	if values[0].Value != 42 {
		t.Errorf("ns/op = %v, want the reported 42", values[0].Value)
	}
}
