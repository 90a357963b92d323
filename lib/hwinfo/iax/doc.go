// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

// Package iax enumerates In-Memory Analytics Accelerator devices from
// the idxd driver's sysfs tree (/sys/bus/dsa/devices). The enumerator
// takes a single snapshot at construction; device hot-plug during a
// benchmark run is not modeled.
//
// NUMA locality comes from each device's numa_node attribute. Kernels
// in virtualized guests and machines with NUMA disabled report -1
// ([NodeUnknown]). A device with unknown locality counts toward every
// node when filtering by locality, so locality-restricted runs still
// find hardware whose placement the kernel cannot report.
package iax
