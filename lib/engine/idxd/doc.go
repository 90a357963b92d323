// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

// Package idxd drives the In-Memory Analytics Accelerator through the
// idxd driver's work-queue character devices, without cgo. Descriptor
// and completion-record layouts are Go struct mirrors of the upstream
// Linux UAPI header (include/uapi/linux/idxd.h), which is stable ABI;
// layout tests pin every field offset.
//
// The driver exposes shared virtual addressing: descriptors carry
// ordinary user-space pointers and the IOMMU resolves them against
// this process, so job buffers are plain Go allocations that must stay
// referenced until the completion record fills in.
//
// Submission is the one piece Go cannot express faithfully. The
// architecture defines MOVDIR64B (dedicated queues) and ENQCMD (shared
// queues) for handing a descriptor to the portal; neither instruction
// is reachable from Go, and the plain 64-byte copy used here is not
// guaranteed to be accepted by the device. A dropped submission
// surfaces as an endless completion wait, which is exactly the failure
// the startup readiness handshake ([Selftest]) exists to catch before
// any measurement runs.
package idxd
