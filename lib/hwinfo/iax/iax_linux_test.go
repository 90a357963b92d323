// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package iax

import (
	"os"
	"runtime"
	"testing"

	"golang.org/x/sys/unix"
)

// TestLiveEnumerate runs against real sysfs on a machine with
// analytics accelerators. Skipped when none are present.
func TestLiveEnumerate(t *testing.T) {
	enumerator := NewEnumerator()
	if enumerator.Count() == 0 {
		t.Skip("skipping: no analytics accelerator devices found")
	}
	for i, device := range enumerator.Devices() {
		if device.ID < 0 {
			t.Errorf("device[%d].ID = %d, want >= 0", i, device.ID)
		}
		if device.Node < NodeUnknown {
			t.Errorf("device[%d].Node = %d, want >= -1", i, device.Node)
		}
		t.Logf("device[%d]: iax%d node=%d state=%s queues=%d",
			i, device.ID, device.Node, device.State, len(device.WorkQueues))
	}
}

// TestLiveCurrentNode exercises the real getcpu path. getcpu(2) is
// available on every kernel this tool targets, so an error here is a
// real failure rather than a missing feature.
func TestLiveCurrentNode(t *testing.T) {
	enumerator := NewEnumerator()
	node, err := enumerator.CurrentNode()
	if err != nil {
		t.Fatalf("CurrentNode() error: %v", err)
	}
	if node < 0 {
		t.Errorf("CurrentNode() = %d, want >= 0", node)
	}
}

// TestLivePinToNode pins the test thread to node 0 and verifies the
// resulting affinity stays within that node's CPU list. Skipped when
// the pin itself fails (cpuset-restricted environments reject CPUs
// outside the container's allowance).
func TestLivePinToNode(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var previous unix.CPUSet
	if err := unix.SchedGetaffinity(0, &previous); err != nil {
		t.Skipf("skipping: reading current affinity: %v", err)
	}
	defer unix.SchedSetaffinity(0, &previous)

	if err := PinToNode(0); err != nil {
		t.Skipf("skipping: PinToNode(0): %v", err)
	}

	var pinned unix.CPUSet
	if err := unix.SchedGetaffinity(0, &pinned); err != nil {
		t.Fatalf("reading affinity after pin: %v", err)
	}
	if pinned.Count() == 0 {
		t.Fatal("affinity after pin is empty")
	}

	data, err := os.ReadFile("/sys/devices/system/node/node0/cpulist")
	if err != nil {
		t.Fatalf("reading node0 cpulist: %v", err)
	}
	cpus, err := parseCPUList(string(data))
	if err != nil {
		t.Fatalf("parsing node0 cpulist: %v", err)
	}
	allowed := make(map[int]bool, len(cpus))
	for _, cpu := range cpus {
		allowed[cpu] = true
	}
	for cpu := 0; cpu < 1024; cpu++ {
		if pinned.IsSet(cpu) && !allowed[cpu] {
			t.Errorf("affinity includes CPU %d, which is not on node 0", cpu)
		}
	}
}

// TestPinToNodeMissingNode exercises the error path with a node number
// no machine has.
func TestPinToNodeMissingNode(t *testing.T) {
	if err := PinToNode(1 << 20); err == nil {
		t.Error("PinToNode(1<<20) succeeded, want error")
	}
}
