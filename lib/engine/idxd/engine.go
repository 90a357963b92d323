// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package idxd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
	"os"
	"runtime"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/accelbench/iaxbench/lib/engine"
	"github.com/accelbench/iaxbench/lib/hwinfo/iax"
)

// Options selects the work queue an Engine claims.
type Options struct {
	// Node restricts the search to devices on one NUMA node.
	// Negative means any node; devices whose node is unknown match
	// every restriction.
	Node int

	// Queue names one work queue ("1.0" or "wq1.0" for device 1,
	// queue 0) and bypasses the search entirely. Empty selects
	// automatically.
	Queue string

	// CacheControl sets the descriptor flag that directs operation
	// output into cache instead of memory.
	CacheControl bool
}

// submitter hands one descriptor to the submission portal. It is a
// seam for tests, which complete descriptors in software instead.
type submitter interface {
	submit(portal []byte, desc *descriptor) error
}

// directSubmitter copies the descriptor into the portal with ordinary
// stores. See the package comment for how this falls short of
// MOVDIR64B and where that failure surfaces.
type directSubmitter struct{}

func (directSubmitter) submit(portal []byte, desc *descriptor) error {
	if len(portal) < descriptorSize {
		return errors.New("portal mapping is too small")
	}
	raw := (*[descriptorSize]byte)(unsafe.Pointer(desc))
	copy(portal[:descriptorSize], raw[:])
	return nil
}

// Engine runs jobs on an accelerator work queue. Run is safe for
// concurrent use; Close must not race with Run.
type Engine struct {
	queue        iax.WorkQueue
	file         *os.File
	portal       []byte
	mapped       bool
	submit       submitter
	cacheControl bool
}

// Open claims the first enabled work queue satisfying the options and
// maps its submission portal.
func Open(enumerator *iax.Enumerator, options Options) (*Engine, error) {
	var queue iax.WorkQueue
	if options.Queue != "" {
		found, err := findQueue(enumerator.Devices(), options.Queue)
		if err != nil {
			return nil, err
		}
		queue = found
	} else {
		picked, ok := pickQueue(enumerator.Devices(), options.Node)
		if !ok {
			if options.Node >= 0 {
				return nil, fmt.Errorf("no enabled analytics work queue on node %d", options.Node)
			}
			return nil, errors.New("no enabled analytics work queue")
		}
		queue = picked
	}
	path := queue.DevicePath()
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening work queue: %w", err)
	}
	portal, err := unix.Mmap(int(file.Fd()), 0, portalSize, unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("mapping submission portal for %s: %w", path, err)
	}
	return &Engine{
		queue:        queue,
		file:         file,
		portal:       portal,
		mapped:       true,
		submit:       directSubmitter{},
		cacheControl: options.CacheControl,
	}, nil
}

// findQueue resolves an explicit work-queue name against the
// snapshot. Unlike the automatic search it reports why the named
// queue is unusable instead of moving on.
func findQueue(devices []iax.Device, spec string) (iax.WorkQueue, error) {
	name := strings.TrimPrefix(spec, "wq")
	devicePart, indexPart, ok := strings.Cut(name, ".")
	if !ok {
		return iax.WorkQueue{}, fmt.Errorf("invalid work queue %q: want device.queue, as in 1.0", spec)
	}
	deviceID, err := strconv.Atoi(devicePart)
	if err != nil {
		return iax.WorkQueue{}, fmt.Errorf("invalid work queue %q: want device.queue, as in 1.0", spec)
	}
	index, err := strconv.Atoi(indexPart)
	if err != nil {
		return iax.WorkQueue{}, fmt.Errorf("invalid work queue %q: want device.queue, as in 1.0", spec)
	}
	for _, device := range devices {
		if device.ID != deviceID {
			continue
		}
		for _, queue := range device.WorkQueues {
			if queue.Index != index {
				continue
			}
			if queue.State != "enabled" {
				return iax.WorkQueue{}, fmt.Errorf("work queue %s is %s", spec, queue.State)
			}
			return queue, nil
		}
		return iax.WorkQueue{}, fmt.Errorf("device iax%d has no work queue %d", deviceID, index)
	}
	return iax.WorkQueue{}, fmt.Errorf("no analytics device iax%d", deviceID)
}

// pickQueue walks an enumerator snapshot in device order and returns
// the first enabled queue on an enabled device matching the node
// restriction.
func pickQueue(devices []iax.Device, node int) (iax.WorkQueue, bool) {
	for _, device := range devices {
		if device.State != "enabled" {
			continue
		}
		if node >= 0 && device.Node != node && device.Node != iax.NodeUnknown {
			continue
		}
		if queues := device.EnabledWorkQueues(); len(queues) > 0 {
			return queues[0], true
		}
	}
	return iax.WorkQueue{}, false
}

// Queue reports the work queue the engine is bound to.
func (e *Engine) Queue() iax.WorkQueue { return e.queue }

func (e *Engine) Name() string { return "iaa" }

// Close unmaps the portal and releases the work queue.
func (e *Engine) Close() error {
	var errs []error
	if e.mapped && e.portal != nil {
		if err := unix.Munmap(e.portal); err != nil {
			errs = append(errs, fmt.Errorf("unmapping portal: %w", err))
		}
	}
	e.portal = nil
	e.mapped = false
	if e.file != nil {
		if err := e.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", e.queue.DevicePath(), err))
		}
		e.file = nil
	}
	return errors.Join(errs...)
}

func (e *Engine) Run(job *engine.Job) (engine.Result, error) {
	switch job.Op {
	case engine.OpDeflate:
		return e.compress(job)
	case engine.OpInflate:
		return e.decompress(job)
	case engine.OpCRC64:
		return e.crc64(job)
	case engine.OpScan:
		return e.scan(job)
	case engine.OpExtract:
		return e.extract(job)
	case engine.OpSelect:
		return e.selectElements(job)
	default:
		return engine.Result{}, fmt.Errorf("unsupported operation %s", job.Op)
	}
}

// StatusError is a completion record carrying a status other than
// success. Status is the masked status code, ErrorCode the
// operation-specific error byte beside it.
type StatusError struct {
	Status    uint8
	ErrorCode uint8
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion status %#x (error code %#x)", e.Status, e.ErrorCode)
}

// execute fills the common descriptor words, submits, and waits for
// the completion record.
func (e *Engine) execute(desc *descriptor, comp *completionRecord) error {
	desc.CompletionAddr = uint64(uintptr(unsafe.Pointer(comp)))
	desc.setFlags(flagBlockOnFault | flagCompletionAddrValid | flagRequestCompletion)
	if err := e.submit.submit(e.portal, desc); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	e.waitCompletion(comp)
	runtime.KeepAlive(desc)
	if status := comp.Status & statusMask; status != statusSuccess {
		return &StatusError{Status: status, ErrorCode: comp.ErrorCode}
	}
	return nil
}

// waitCompletion polls the status byte until the device writes the
// record. There is no timeout; a queue that never completes hangs the
// caller.
func (e *Engine) waitCompletion(comp *completionRecord) {
	for comp.loadStatus() == statusPending {
		runtime.Gosched()
	}
}

// outputFlags returns the extra descriptor flags for operations that
// write output.
func (e *Engine) outputFlags() uint32 {
	if e.cacheControl {
		return flagCacheControl
	}
	return 0
}

func (e *Engine) compress(job *engine.Job) (engine.Result, error) {
	if len(job.Dictionary) > 0 {
		return engine.Result{}, errors.New("compress: device path does not support preset dictionaries")
	}
	output := compressionOutput(job)
	comp := newCompletionRecord()
	desc := &descriptor{
		Src1Addr:   bufferAddr(job.Input),
		Src1Size:   uint32(len(job.Input)),
		DstAddr:    bufferAddr(output),
		MaxDstSize: uint32(len(output)),
		ComprFlags: comprFlushOutput | comprAppendEOB,
	}
	desc.setOpcode(opcodeCompress)
	desc.setFlags(e.outputFlags())
	if err := e.execute(desc, comp); err != nil {
		return engine.Result{}, fmt.Errorf("compress: %w", err)
	}
	runtime.KeepAlive(job.Input)
	return engine.Result{Output: output[:comp.OutputSize]}, nil
}

// compressionOutput returns the compress destination: the caller's
// storage when it can hold the deflate worst case, a fresh allocation
// otherwise.
func compressionOutput(job *engine.Job) []byte {
	bound := len(job.Input) + len(job.Input)/2 + 64
	if cap(job.Output) >= bound {
		return job.Output[:bound]
	}
	return make([]byte, bound)
}

func (e *Engine) decompress(job *engine.Job) (engine.Result, error) {
	if len(job.Dictionary) > 0 {
		return engine.Result{}, errors.New("decompress: device path does not support preset dictionaries")
	}
	output := decompressionOutput(job)
	comp := newCompletionRecord()
	desc := &descriptor{
		Src1Addr:   bufferAddr(job.Input),
		Src1Size:   uint32(len(job.Input)),
		DstAddr:    bufferAddr(output),
		MaxDstSize: uint32(len(output)),
		ComprFlags: decompEnable | decompFlushOutput | decompCheckEOB | decompStopOnEOB,
	}
	desc.setOpcode(opcodeDecompress)
	desc.setFlags(e.outputFlags())
	if err := e.execute(desc, comp); err != nil {
		return engine.Result{}, fmt.Errorf("decompress: %w", err)
	}
	runtime.KeepAlive(job.Input)
	return engine.Result{Output: output[:comp.OutputSize]}, nil
}

// decompressionOutput sizes the inflate destination. Callers that know
// the original size pass storage for it; otherwise a generous multiple
// of the compressed input is allocated and an overflow comes back from
// the device as a status error.
func decompressionOutput(job *engine.Job) []byte {
	if cap(job.Output) > 0 {
		return job.Output[:cap(job.Output)]
	}
	return make([]byte, len(job.Input)*8+4096)
}

func (e *Engine) crc64(job *engine.Job) (engine.Result, error) {
	if job.Polynomial == 0 {
		return engine.Result{}, errors.New("crc64: polynomial is zero")
	}
	comp := newCompletionRecord()
	// The CRC64 descriptor reuses the filter parameter words for the
	// polynomial, low half first.
	desc := &descriptor{
		Src1Addr:    bufferAddr(job.Input),
		Src1Size:    uint32(len(job.Input)),
		FilterFlags: uint32(job.Polynomial),
		NumInputs:   uint32(job.Polynomial >> 32),
	}
	desc.setOpcode(opcodeCRC64)
	if err := e.execute(desc, comp); err != nil {
		return engine.Result{}, fmt.Errorf("crc64: %w", err)
	}
	runtime.KeepAlive(job.Input)
	return engine.Result{Checksum: binary.LittleEndian.Uint64(comp.Aggregates[:8])}, nil
}

// filterParams is the parameter block filter descriptors point src2
// at: the inclusive low and high ends of the comparison or index
// range. The hardware's analytics state block is larger; only the
// leading range words are populated here.
type filterParams struct {
	Low  uint32
	High uint32
}

func (e *Engine) scan(job *engine.Job) (engine.Result, error) {
	if err := checkFilterJob(job); err != nil {
		return engine.Result{}, fmt.Errorf("scan: %w", err)
	}
	output := filterOutput(job, (job.Elements+7)/8)
	params := &filterParams{Low: job.ParamLow, High: job.ParamHigh}
	comp := newCompletionRecord()
	desc := &descriptor{
		Src1Addr:    bufferAddr(job.Input),
		Src1Size:    uint32(len(job.Input)),
		DstAddr:     bufferAddr(output),
		MaxDstSize:  uint32(len(output)),
		Src2Addr:    uint64(uintptr(unsafe.Pointer(params))),
		Src2Size:    uint32(unsafe.Sizeof(*params)),
		FilterFlags: filterWidthFlags(job.Width),
		NumInputs:   uint32(job.Elements),
	}
	desc.setOpcode(opcodeScan)
	desc.setFlags(e.outputFlags())
	if err := e.execute(desc, comp); err != nil {
		return engine.Result{}, fmt.Errorf("scan: %w", err)
	}
	runtime.KeepAlive(job.Input)
	runtime.KeepAlive(params)
	mask := output[:comp.OutputSize]
	return engine.Result{Output: mask, Found: popcount(mask)}, nil
}

func (e *Engine) extract(job *engine.Job) (engine.Result, error) {
	if err := checkFilterJob(job); err != nil {
		return engine.Result{}, fmt.Errorf("extract: %w", err)
	}
	if job.ParamLow > job.ParamHigh {
		return engine.Result{}, fmt.Errorf("extract: index range [%d, %d] is reversed", job.ParamLow, job.ParamHigh)
	}
	if int(job.ParamLow) >= job.Elements {
		return engine.Result{Output: []byte{}}, nil
	}
	count := job.Elements - int(job.ParamLow)
	if span := int(job.ParamHigh-job.ParamLow) + 1; span < count {
		count = span
	}
	output := filterOutput(job, (count*job.Width+7)/8)
	params := &filterParams{Low: job.ParamLow, High: job.ParamHigh}
	comp := newCompletionRecord()
	desc := &descriptor{
		Src1Addr:    bufferAddr(job.Input),
		Src1Size:    uint32(len(job.Input)),
		DstAddr:     bufferAddr(output),
		MaxDstSize:  uint32(len(output)),
		Src2Addr:    uint64(uintptr(unsafe.Pointer(params))),
		Src2Size:    uint32(unsafe.Sizeof(*params)),
		FilterFlags: filterWidthFlags(job.Width),
		NumInputs:   uint32(job.Elements),
	}
	desc.setOpcode(opcodeExtract)
	desc.setFlags(e.outputFlags())
	if err := e.execute(desc, comp); err != nil {
		return engine.Result{}, fmt.Errorf("extract: %w", err)
	}
	runtime.KeepAlive(job.Input)
	runtime.KeepAlive(params)
	return engine.Result{Output: output[:comp.OutputSize]}, nil
}

func (e *Engine) selectElements(job *engine.Job) (engine.Result, error) {
	if err := checkFilterJob(job); err != nil {
		return engine.Result{}, fmt.Errorf("select: %w", err)
	}
	output := filterOutput(job, (job.Elements*job.Width+7)/8)
	comp := newCompletionRecord()
	desc := &descriptor{
		Src1Addr:    bufferAddr(job.Input),
		Src1Size:    uint32(len(job.Input)),
		DstAddr:     bufferAddr(output),
		MaxDstSize:  uint32(len(output)),
		Src2Addr:    bufferAddr(job.Mask),
		Src2Size:    uint32(len(job.Mask)),
		FilterFlags: filterWidthFlags(job.Width),
		NumInputs:   uint32(job.Elements),
	}
	desc.setOpcode(opcodeSelect)
	desc.setFlags(e.outputFlags())
	if err := e.execute(desc, comp); err != nil {
		return engine.Result{}, fmt.Errorf("select: %w", err)
	}
	runtime.KeepAlive(job.Input)
	runtime.KeepAlive(job.Mask)
	return engine.Result{Output: output[:comp.OutputSize]}, nil
}

func checkFilterJob(job *engine.Job) error {
	if job.Width < 1 || job.Width > 32 {
		return fmt.Errorf("element width %d out of range", job.Width)
	}
	if job.Elements < 0 {
		return fmt.Errorf("negative element count %d", job.Elements)
	}
	return nil
}

// filterWidthFlags encodes the source element width into the filter
// flags word, width minus one in the low five bits.
func filterWidthFlags(width int) uint32 {
	return uint32(width-1) & 0x1f
}

// filterOutput returns the destination buffer for a filter operation,
// reusing the caller's storage when it is large enough.
func filterOutput(job *engine.Job, size int) []byte {
	if cap(job.Output) >= size {
		return job.Output[:size]
	}
	return make([]byte, size)
}

func popcount(mask []byte) int {
	total := 0
	for _, b := range mask {
		total += bits.OnesCount8(b)
	}
	return total
}
