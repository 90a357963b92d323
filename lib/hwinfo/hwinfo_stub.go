// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package hwinfo

import "errors"

// Info fails off Linux: every topology source this package reads
// (/proc/cpuinfo, the dsa bus in sysfs, sysinfo(2)) is Linux-specific,
// and so is the accelerator this tool measures.
func (p *Probe) Info() (*SystemInfo, error) {
	return nil, errors.New("system probing requires Linux")
}
