// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package iax

import "errors"

// NewEnumerator returns an empty snapshot: the dsa bus is a Linux
// kernel construct, so there are no devices to enumerate elsewhere.
func NewEnumerator() *Enumerator {
	return &Enumerator{}
}

// PinToNode fails off Linux; NUMA affinity comes from
// sched_setaffinity(2).
func PinToNode(node int) error {
	return errors.New("NUMA pinning requires Linux")
}
