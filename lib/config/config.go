// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile is a run profile: recorded defaults for the measurement
// runner and for the data it feeds on.
type Profile struct {
	// Runner holds defaults for the measurement runner's flags.
	Runner RunnerProfile `yaml:"runner"`

	// Data describes where the corpus comes from.
	Data DataProfile `yaml:"data"`
}

// RunnerProfile mirrors the runner's flag surface. A zero value means
// "not set in the profile" and leaves the flag default in place.
type RunnerProfile struct {
	// Filter is a regular expression selecting case names.
	Filter string `yaml:"filter"`

	// Count is how many times each selected case is measured.
	Count int `yaml:"count"`

	// Benchtime bounds one measurement: a duration ("2s") or a fixed
	// iteration count ("100x").
	Benchtime string `yaml:"benchtime"`

	// Out is a file the benchmark-format stream is written to in
	// addition to stdout.
	Out string `yaml:"out"`
}

// DataProfile describes the corpus for a run.
type DataProfile struct {
	// Dataset points at the input corpus: a file, a directory, or a
	// YAML corpus manifest. Empty means synthetic data.
	Dataset string `yaml:"dataset"`

	// SyntheticSize is the size in bytes of the generated corpus used
	// when no dataset is configured.
	SyntheticSize int `yaml:"synthetic_size"`

	// Seed drives the synthetic generator.
	Seed uint64 `yaml:"seed"`
}

// Default returns the built-in profile. The values mirror the runner's
// flag defaults so that a profile-less run and an empty profile behave
// identically.
func Default() *Profile {
	return &Profile{
		Runner: RunnerProfile{
			Count:     1,
			Benchtime: "1s",
		},
		Data: DataProfile{
			SyntheticSize: 1 << 20,
			Seed:          1,
		},
	}
}

// Load loads the profile named by the IAXBENCH_CONFIG environment
// variable. The profile is optional: an unset variable returns the
// defaults unchanged. There is no other implicit search.
func Load() (*Profile, error) {
	path := os.Getenv("IAXBENCH_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads a profile from a specific file path, merging it over
// the defaults and expanding ${VAR} patterns in path fields.
func LoadFile(path string) (*Profile, error) {
	profile := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	profile.expandVariables()
	return profile, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in the
// path fields.
func (p *Profile) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	p.Runner.Out = expandVars(p.Runner.Out, vars)
	p.Data.Dataset = expandVars(p.Data.Dataset, vars)
}

// ExpandPath expands ${VAR} and ${VAR:-default} patterns in a path
// using the process environment. Corpus manifests use it for their
// entry paths so manifests and profiles expand the same way.
func ExpandPath(path string) string {
	return expandVars(path, map[string]string{
		"HOME": os.Getenv("HOME"),
	})
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the profile for errors.
func (p *Profile) Validate() error {
	var errs []error

	if p.Runner.Count < 1 {
		errs = append(errs, fmt.Errorf("runner.count must be at least 1, got %d", p.Runner.Count))
	}

	if p.Runner.Filter != "" {
		if _, err := regexp.Compile(p.Runner.Filter); err != nil {
			errs = append(errs, fmt.Errorf("runner.filter: %w", err))
		}
	}

	if !validBenchtime(p.Runner.Benchtime) {
		errs = append(errs, fmt.Errorf("runner.benchtime %q is neither a duration nor an iteration count like 100x", p.Runner.Benchtime))
	}

	if p.Data.SyntheticSize < 0 {
		errs = append(errs, fmt.Errorf("data.synthetic_size must not be negative, got %d", p.Data.SyntheticSize))
	}
	if p.Data.Dataset == "" && p.Data.SyntheticSize == 0 {
		errs = append(errs, errors.New("data.synthetic_size is required when no dataset is configured"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// validBenchtime accepts a positive duration ("2s") or a positive
// iteration count suffixed with x ("100x").
func validBenchtime(s string) bool {
	if s == "" {
		return false
	}
	if digits, ok := strings.CutSuffix(s, "x"); ok {
		count, err := strconv.Atoi(digits)
		return err == nil && count > 0
	}
	duration, err := time.ParseDuration(s)
	return err == nil && duration > 0
}
