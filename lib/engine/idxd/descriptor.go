// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package idxd

import (
	"sync/atomic"
	"unsafe"
)

// Analytics opcodes from enum iax_opcode in the idxd UAPI header.
const (
	opcodeDecompress = 0x42
	opcodeCompress   = 0x43
	opcodeCRC64      = 0x44
	opcodeScan       = 0x50
	opcodeExtract    = 0x52
	opcodeSelect     = 0x53
)

// Descriptor operation flags (IDXD_OP_FLAG_*). They occupy the low 24
// bits of the flags/opcode word.
const (
	flagFence               = 0x0001
	flagBlockOnFault        = 0x0002
	flagCompletionAddrValid = 0x0004
	flagRequestCompletion   = 0x0008
	flagRequestInterrupt    = 0x0010
	flagCacheControl        = 0x0100
)

// Compression sub-flags carried in the compr_flags word, as programmed
// by the kernel's iaa_crypto driver.
const (
	comprFlushOutput = 1 << 1
	comprAppendEOB   = 1 << 2

	decompEnable      = 1 << 0
	decompFlushOutput = 1 << 1
	decompCheckEOB    = 1 << 2
	decompStopOnEOB   = 1 << 3
)

// Completion status byte. The low seven bits carry the status code;
// zero means the device has not written the record yet.
const (
	statusMask    = 0x7f
	statusPending = 0x00
	statusSuccess = 0x01
)

const (
	descriptorSize = 64
	completionSize = 64

	// completionAlign is the alignment the device requires for the
	// completion record address.
	completionAlign = 64

	// portalSize is the length of the work-queue submission portal
	// mapping exposed by the wq character device.
	portalSize = 0x1000
)

// descriptor mirrors struct iax_hw_desc. 64 bytes total:
// 4 + 4 + 8 + 8 + 8 + 4 + 2 + 2 + 8 + 4 + 4 + 4 + 4.
//
// PasidPriv packs pasid (bits 0-19) and priv (bit 31); both belong to
// the kernel and stay zero for user submissions. FlagsOpcode packs the
// operation flags (bits 0-23) with the opcode (bits 24-31).
type descriptor struct {
	PasidPriv      uint32
	FlagsOpcode    uint32
	CompletionAddr uint64
	Src1Addr       uint64
	DstAddr        uint64
	Src1Size       uint32
	IntHandle      uint16
	ComprFlags     uint16
	Src2Addr       uint64
	MaxDstSize     uint32
	Src2Size       uint32
	FilterFlags    uint32
	NumInputs      uint32
}

func (d *descriptor) setOpcode(opcode uint8) {
	d.FlagsOpcode = d.FlagsOpcode&0x00ffffff | uint32(opcode)<<24
}

func (d *descriptor) opcode() uint8 {
	return uint8(d.FlagsOpcode >> 24)
}

func (d *descriptor) setFlags(flags uint32) {
	d.FlagsOpcode |= flags & 0x00ffffff
}

func (d *descriptor) flags() uint32 {
	return d.FlagsOpcode & 0x00ffffff
}

// completionRecord mirrors struct iax_completion_record, padded from
// the header's 56 declared bytes to the 64-byte allocation the device
// writes. The aggregate region at offset 32 is opcode-specific: CRC64
// places its 64-bit result in the leading eight bytes, the other
// operations leave it to the per-operation readers.
type completionRecord struct {
	Status         uint8
	ErrorCode      uint8
	_              uint16
	BytesCompleted uint32
	FaultAddr      uint64
	InvalidFlags   uint32
	_              uint32
	OutputSize     uint32
	OutputBits     uint8
	_              uint8
	XORChecksum    uint16
	Aggregates     [32]byte
}

// loadStatus reads the status byte with acquire semantics so the poll
// loop observes the device's record write before acting on it.
func (c *completionRecord) loadStatus() uint8 {
	return uint8(atomic.LoadUint32((*uint32)(unsafe.Pointer(c))))
}

// storeStatus publishes a status and error code after the rest of the
// record has been filled in. Only software completers use it; hardware
// writes the whole record by DMA.
func (c *completionRecord) storeStatus(status, errorCode uint8) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(c)), uint32(status)|uint32(errorCode)<<8)
}

// newCompletionRecord carves a 64-byte-aligned record out of a padded
// allocation. The returned pointer keeps the backing array live.
func newCompletionRecord() *completionRecord {
	backing := make([]byte, completionSize+completionAlign)
	addr := uintptr(unsafe.Pointer(&backing[0]))
	offset := (completionAlign - addr%completionAlign) % completionAlign
	return (*completionRecord)(unsafe.Pointer(&backing[offset]))
}

// bufferAddr returns the device-visible address of a buffer. With
// shared virtual addressing that is simply the Go pointer value; the
// caller keeps the buffer referenced until completion.
func bufferAddr(buffer []byte) uint64 {
	if len(buffer) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&buffer[0])))
}
