// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package idxd

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/accelbench/iaxbench/lib/hwinfo/iax"
)

// HandshakePolynomial is the forward CRC64 polynomial the readiness
// handshake submits, the same one the checksum suites measure with.
const HandshakePolynomial uint64 = 0x04C11DB700000000

// handshakeSize is the length of the zeroed buffer the handshake
// checksums. The answer is irrelevant; only the completion status is.
const handshakeSize = 4

// Selftest proves the accelerator path end to end before any
// measurement: it claims a work queue, pushes one small CRC64 through
// it, and releases it. Each step wraps its own error and no step is
// retried; a failure means the device path is unusable as configured.
func Selftest(enumerator *iax.Enumerator, options Options) error {
	eng, err := Open(enumerator, options)
	if err != nil {
		return fmt.Errorf("handshake context acquisition: %w", err)
	}
	if err := eng.handshake(); err != nil {
		eng.Close()
		return err
	}
	if err := eng.Close(); err != nil {
		return fmt.Errorf("handshake teardown: %w", err)
	}
	return nil
}

// handshake runs the initialization, submission, and completion steps
// of the readiness exchange on an already-open engine.
func (e *Engine) handshake() error {
	buffer := make([]byte, handshakeSize)
	comp := newCompletionRecord()
	desc, err := handshakeDescriptor(buffer)
	if err != nil {
		return fmt.Errorf("handshake initialization: %w", err)
	}
	desc.CompletionAddr = uint64(uintptr(unsafe.Pointer(comp)))
	desc.setFlags(flagBlockOnFault | flagCompletionAddrValid | flagRequestCompletion)
	if err := e.submit.submit(e.portal, desc); err != nil {
		return fmt.Errorf("handshake submission: %w", err)
	}
	e.waitCompletion(comp)
	runtime.KeepAlive(buffer)
	if status := comp.Status & statusMask; status != statusSuccess {
		return fmt.Errorf("handshake completion: %w", &StatusError{Status: status, ErrorCode: comp.ErrorCode})
	}
	return nil
}

// handshakeDescriptor builds the probe descriptor: a CRC64 over a
// zeroed buffer with the measurement polynomial.
func handshakeDescriptor(buffer []byte) (*descriptor, error) {
	if len(buffer) == 0 {
		return nil, errors.New("empty handshake buffer")
	}
	desc := &descriptor{
		Src1Addr:    bufferAddr(buffer),
		Src1Size:    uint32(len(buffer)),
		FilterFlags: uint32(HandshakePolynomial & 0xffffffff),
		NumInputs:   uint32(HandshakePolynomial >> 32),
	}
	desc.setOpcode(opcodeCRC64)
	return desc, nil
}
