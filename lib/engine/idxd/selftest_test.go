// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package idxd

import (
	"errors"
	"strings"
	"testing"

	"github.com/accelbench/iaxbench/lib/hwinfo/iax"
)

func TestHandshakeSubmitsZeroedChecksum(t *testing.T) {
	fake := newFakeSubmitter()
	eng := testEngine(fake)

	if err := eng.handshake(); err != nil {
		t.Fatalf("handshake: %v", err)
	}
	if len(fake.seen) != 1 {
		t.Fatalf("handshake submitted %d descriptors, want 1", len(fake.seen))
	}
	desc := fake.seen[0]
	if desc.opcode() != opcodeCRC64 {
		t.Errorf("handshake opcode = %#x, want %#x", desc.opcode(), opcodeCRC64)
	}
	if desc.Src1Size != handshakeSize {
		t.Errorf("handshake buffer size = %d, want %d", desc.Src1Size, handshakeSize)
	}
	if got := uint64(desc.FilterFlags) | uint64(desc.NumInputs)<<32; got != HandshakePolynomial {
		t.Errorf("handshake polynomial = %#x, want %#x", got, HandshakePolynomial)
	}
	if desc.flags()&flagRequestCompletion == 0 {
		t.Error("handshake descriptor does not request a completion record")
	}
}

func TestHandshakeSubmissionStepError(t *testing.T) {
	fake := newFakeSubmitter()
	fake.failWith = errors.New("queue is full")
	eng := testEngine(fake)

	err := eng.handshake()
	if err == nil {
		t.Fatal("failing submission did not error")
	}
	if !strings.Contains(err.Error(), "handshake submission") {
		t.Errorf("error = %v, want the submission step named", err)
	}
	if !errors.Is(err, fake.failWith) {
		t.Errorf("error %v does not wrap the submitter failure", err)
	}
}

func TestHandshakeCompletionStepError(t *testing.T) {
	fake := newFakeSubmitter()
	fake.status = 0x21
	fake.errorCode = 0x03
	eng := testEngine(fake)

	err := eng.handshake()
	if err == nil {
		t.Fatal("failing completion did not error")
	}
	if !strings.Contains(err.Error(), "handshake completion") {
		t.Errorf("error = %v, want the completion step named", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error %v is not a StatusError", err)
	}
	if statusErr.Status != 0x21 {
		t.Errorf("status = %#x, want 0x21", statusErr.Status)
	}
}

func TestHandshakeDescriptorEmptyBuffer(t *testing.T) {
	if _, err := handshakeDescriptor(nil); err == nil {
		t.Error("empty handshake buffer did not error")
	}
}

func TestSelftestContextStepError(t *testing.T) {
	err := Selftest(&iax.Enumerator{}, Options{Node: -1})
	if err == nil {
		t.Fatal("selftest with no devices did not error")
	}
	if !strings.Contains(err.Error(), "handshake context acquisition") {
		t.Errorf("error = %v, want the context acquisition step named", err)
	}
}
