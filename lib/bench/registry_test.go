// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package bench

import "testing"

func TestRegistryDrainOrder(t *testing.T) {
	registry := NewRegistry()
	var order []int
	for i := 0; i < 5; i++ {
		registry.Register(func() { order = append(order, i) })
	}
	if registry.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", registry.Len())
	}

	registry.Drain()

	if len(order) != 5 {
		t.Fatalf("drained %d callbacks, want 5", len(order))
	}
	for position, got := range order {
		if got != position {
			t.Errorf("position %d ran callback %d, want %d", position, got, position)
		}
	}
}

func TestRegistryDrainTwice(t *testing.T) {
	registry := NewRegistry()
	counts := make([]int, 3)
	for i := range counts {
		registry.Register(func() { counts[i]++ })
	}

	registry.Drain()
	registry.Drain()

	for i, count := range counts {
		if count != 2 {
			t.Errorf("callback %d ran %d times, want 2", i, count)
		}
	}
	if registry.Len() != 3 {
		t.Errorf("Len() = %d after draining, want 3", registry.Len())
	}
}

func TestRegistryEmptyDrain(t *testing.T) {
	registry := NewRegistry()
	registry.Drain()
	if registry.Len() != 0 {
		t.Errorf("Len() = %d, want 0", registry.Len())
	}
}
