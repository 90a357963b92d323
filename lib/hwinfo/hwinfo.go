// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package hwinfo

import (
	"fmt"
	"strings"
	"sync"
)

// DeviceCounter counts accelerator devices local to a NUMA node.
// The iax enumerator implements it; tests substitute fixed tables.
type DeviceCounter interface {
	CountNode(node int) int
}

// CPUInfo is the processor portion of the snapshot, accumulated from
// /proc/cpuinfo plus sysfs cache topology and CPUID feature bits.
type CPUInfo struct {
	// ModelName is the marketing name ("Intel(R) Xeon(R) ...").
	ModelName string
	// Model is the numeric model from the CPUID family/model/stepping
	// triple.
	Model int
	// Microcode is the loaded microcode revision.
	Microcode uint64
	Stepping  int

	// LogicalCores counts hardware threads across the whole machine.
	LogicalCores int
	// Sockets is the highest physical package ID seen plus one.
	Sockets int
	// CoresPerSocket is the physical core count of one package.
	CoresPerSocket int
	// PhysicalCores is CoresPerSocket times Sockets.
	PhysicalCores int
	// CoresPerCluster divides a socket's cores across a fixed cluster
	// count; see clustersPerSocket.
	CoresPerCluster int

	// L2CacheKB is the size of cpu0's mid-level cache in kilobytes.
	L2CacheKB int
	// L3CacheKB is the size of cpu0's last-level cache in kilobytes.
	L3CacheKB int
	// Features lists the detected ISA extensions relevant to the
	// accelerator submission path and the optimized software kernels.
	Features []string
}

// AcceleratorTopology records how many accelerator devices sit on
// each socket. The per-socket counts use the socket index as the NUMA
// node, and a device with unknown locality appears in every entry, so
// the sum of PerSocket can exceed the real device population.
type AcceleratorTopology struct {
	TotalDevices int
	PerSocket    []int
}

// SystemInfo is the immutable host snapshot a Probe builds once.
type SystemInfo struct {
	Hostname      string
	KernelRelease string
	CPU           CPUInfo

	MemoryTotalMB int
	SwapTotalMB   int
	NUMANodes     int

	Accelerators AcceleratorTopology
}

// Probe builds a SystemInfo on first use. The zero value is not
// usable; construct with NewProbe.
type Probe struct {
	procRoot string
	sysRoot  string
	counter  DeviceCounter

	once   sync.Once
	builds int
	info   *SystemInfo
	err    error
}

// NewProbe returns a Probe over the real /proc and /sys. The counter
// supplies per-socket accelerator counts; nil leaves the accelerator
// topology empty.
func NewProbe(counter DeviceCounter) *Probe {
	return probeFrom("/proc", "/sys", counter)
}

// probeFrom accepts root paths for /proc and /sys so tests can point
// at synthetic filesystems.
func probeFrom(procRoot, sysRoot string, counter DeviceCounter) *Probe {
	return &Probe{procRoot: procRoot, sysRoot: sysRoot, counter: counter}
}

// Summary renders the startup diagnostic block. The layout is for
// operators reading a terminal, not a machine-readable contract.
func (s *SystemInfo) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "== Host:   %s\n", s.Hostname)
	fmt.Fprintf(&b, "== Kernel: %s\n", s.KernelRelease)
	fmt.Fprintf(&b, "== CPU:    %s (%d)\n", s.CPU.ModelName, s.CPU.Model)
	fmt.Fprintf(&b, "  --> Microcode: 0x%x\n", s.CPU.Microcode)
	fmt.Fprintf(&b, "  --> Stepping:  %d\n", s.CPU.Stepping)
	fmt.Fprintf(&b, "  --> Logical:   %d\n", s.CPU.LogicalCores)
	fmt.Fprintf(&b, "  --> Physical:  %d\n", s.CPU.PhysicalCores)
	fmt.Fprintf(&b, "  --> Socket:    %d\n", s.CPU.CoresPerSocket)
	fmt.Fprintf(&b, "  --> Cluster:   %d\n", s.CPU.CoresPerCluster)
	fmt.Fprintf(&b, "== Accelerators: %d\n", s.Accelerators.TotalDevices)
	for node, count := range s.Accelerators.PerSocket {
		fmt.Fprintf(&b, "  --> NUMA %d: %d\n", node, count)
	}
	return b.String()
}
