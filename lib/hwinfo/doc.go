// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

// Package hwinfo probes host identity, CPU topology, and accelerator
// placement for benchmark reporting.
//
// A [Probe] reads /proc/cpuinfo and sysfs on Linux, asks a
// [DeviceCounter] (normally the iax enumerator) for per-socket
// accelerator counts, and caches the result as an immutable
// [SystemInfo] snapshot. The build runs at most once no matter how
// many goroutines ask; everything after construction is read-only.
//
// The snapshot feeds two consumers: the startup diagnostic block
// ([SystemInfo.Summary]) and working-set sizing, which uses the L3
// cache size to pick buffer sizes that fit or overflow the last-level
// cache.
package hwinfo
