// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package iax

import (
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"
)

// NewEnumerator snapshots the accelerator devices visible under
// /sys/bus/dsa/devices.
func NewEnumerator() *Enumerator {
	enumerator := newEnumeratorFrom("/sys")
	enumerator.getcpu = getcpuSyscall
	return enumerator
}

// getcpuSyscall reports the CPU and NUMA node of the calling thread
// via getcpu(2). x/sys/unix exposes the syscall number but no wrapper,
// so the call goes through RawSyscall directly.
func getcpuSyscall() (cpu, node int, err error) {
	var cpuOut, nodeOut uint32
	_, _, errno := unix.RawSyscall(unix.SYS_GETCPU,
		uintptr(unsafe.Pointer(&cpuOut)),
		uintptr(unsafe.Pointer(&nodeOut)), 0)
	if errno != 0 {
		return 0, 0, errno
	}
	return int(cpuOut), int(nodeOut), nil
}

// PinToNode restricts the calling thread's CPU affinity to the CPUs
// of the given NUMA node. Affinity is per thread and the Go scheduler
// moves goroutines between threads, so callers must hold
// runtime.LockOSThread for as long as the pin matters.
func PinToNode(node int) error {
	return pinToNodeFrom("/sys", node)
}

func pinToNodeFrom(sysRoot string, node int) error {
	path := filepath.Join(sysRoot, "devices/system/node", fmt.Sprintf("node%d", node), "cpulist")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading cpu list for node %d: %w", node, err)
	}
	cpus, err := parseCPUList(string(data))
	if err != nil {
		return fmt.Errorf("cpu list for node %d: %w", node, err)
	}
	var set unix.CPUSet
	set.Zero()
	for _, cpu := range cpus {
		set.Set(cpu)
	}
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("setting cpu affinity to node %d: %w", node, err)
	}
	return nil
}
