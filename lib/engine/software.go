// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
)

// Software executes every operation on the CPU. It is the baseline
// the hardware path is compared against and the reference for
// correctness checks. Safe for concurrent Run calls.
type Software struct {
	mu      sync.Mutex
	writers map[int]*sync.Pool // flate writers keyed by level
	tables  map[uint64]*CRCTable

	readers sync.Pool // inflate readers, reset per job
}

// NewSoftware returns a ready software engine.
func NewSoftware() *Software {
	return &Software{
		writers: make(map[int]*sync.Pool),
		tables:  make(map[uint64]*CRCTable),
	}
}

func (s *Software) Name() string { return "software" }

// Close releases nothing; the software engine holds no device state.
func (s *Software) Close() error { return nil }

func (s *Software) Run(job *Job) (Result, error) {
	switch job.Op {
	case OpDeflate:
		return s.deflate(job)
	case OpInflate:
		return s.inflate(job)
	case OpCRC64:
		return s.crc64(job)
	case OpScan:
		return s.scan(job)
	case OpExtract:
		return s.extract(job)
	case OpSelect:
		return s.selectElements(job)
	default:
		return Result{}, fmt.Errorf("unsupported operation %s", job.Op)
	}
}

func (s *Software) deflate(job *Job) (Result, error) {
	buffer := bytes.NewBuffer(job.Output[:0])

	if len(job.Dictionary) > 0 {
		// Dictionary writers bind the dictionary at construction, so
		// canned jobs pay the setup on every call. That matches what
		// the hardware does: loading the dictionary is part of the
		// operation.
		writer, err := flate.NewWriterDict(buffer, job.Level, job.Dictionary)
		if err != nil {
			return Result{}, fmt.Errorf("deflate: %w", err)
		}
		if _, err := writer.Write(job.Input); err != nil {
			return Result{}, fmt.Errorf("deflate: %w", err)
		}
		if err := writer.Close(); err != nil {
			return Result{}, fmt.Errorf("deflate: %w", err)
		}
		return Result{Output: buffer.Bytes()}, nil
	}

	writer, err := s.writerFor(job.Level)
	if err != nil {
		return Result{}, fmt.Errorf("deflate: %w", err)
	}
	writer.Reset(buffer)
	if _, err := writer.Write(job.Input); err != nil {
		return Result{}, fmt.Errorf("deflate: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("deflate: %w", err)
	}
	s.releaseWriter(job.Level, writer)
	return Result{Output: buffer.Bytes()}, nil
}

func (s *Software) inflate(job *Job) (Result, error) {
	source := bytes.NewReader(job.Input)

	var reader io.ReadCloser
	if cached := s.readers.Get(); cached != nil {
		reader = cached.(io.ReadCloser)
		if err := reader.(flate.Resetter).Reset(source, job.Dictionary); err != nil {
			return Result{}, fmt.Errorf("inflate: %w", err)
		}
	} else if len(job.Dictionary) > 0 {
		reader = flate.NewReaderDict(source, job.Dictionary)
	} else {
		reader = flate.NewReader(source)
	}

	buffer := bytes.NewBuffer(job.Output[:0])
	if _, err := buffer.ReadFrom(reader); err != nil {
		return Result{}, fmt.Errorf("inflate: %w", err)
	}
	if err := reader.Close(); err != nil {
		return Result{}, fmt.Errorf("inflate: %w", err)
	}
	s.readers.Put(reader)
	return Result{Output: buffer.Bytes()}, nil
}

func (s *Software) crc64(job *Job) (Result, error) {
	if job.Polynomial == 0 {
		return Result{}, errors.New("crc64: polynomial is zero")
	}
	return Result{Checksum: s.tableFor(job.Polynomial).Checksum(job.Input)}, nil
}

func (s *Software) scan(job *Job) (Result, error) {
	values, err := unpackLE(job.Input, job.Width, job.Elements)
	if err != nil {
		return Result{}, fmt.Errorf("scan: %w", err)
	}
	mask := make([]uint32, len(values))
	found := 0
	for i, value := range values {
		if value >= job.ParamLow && value <= job.ParamHigh {
			mask[i] = 1
			found++
		}
	}
	return Result{Output: packLE(mask, 1), Found: found}, nil
}

func (s *Software) extract(job *Job) (Result, error) {
	values, err := unpackLE(job.Input, job.Width, job.Elements)
	if err != nil {
		return Result{}, fmt.Errorf("extract: %w", err)
	}
	if job.ParamLow > job.ParamHigh {
		return Result{}, fmt.Errorf("extract: index range [%d, %d] is reversed", job.ParamLow, job.ParamHigh)
	}
	low := int(job.ParamLow)
	high := int(job.ParamHigh)
	if low >= len(values) {
		return Result{Output: []byte{}}, nil
	}
	if high >= len(values) {
		high = len(values) - 1
	}
	return Result{Output: packLE(values[low:high+1], job.Width)}, nil
}

func (s *Software) selectElements(job *Job) (Result, error) {
	values, err := unpackLE(job.Input, job.Width, job.Elements)
	if err != nil {
		return Result{}, fmt.Errorf("select: %w", err)
	}
	var selected []uint32
	for i, value := range values {
		if maskBit(job.Mask, i) {
			selected = append(selected, value)
		}
	}
	return Result{Output: packLE(selected, job.Width)}, nil
}

// writerFor returns a pooled flate writer for the level, creating the
// per-level pool on first use.
func (s *Software) writerFor(level int) (*flate.Writer, error) {
	s.mu.Lock()
	pool, ok := s.writers[level]
	if !ok {
		pool = &sync.Pool{}
		s.writers[level] = pool
	}
	s.mu.Unlock()

	if cached := pool.Get(); cached != nil {
		return cached.(*flate.Writer), nil
	}
	return flate.NewWriter(nil, level)
}

func (s *Software) releaseWriter(level int, writer *flate.Writer) {
	s.mu.Lock()
	pool := s.writers[level]
	s.mu.Unlock()
	pool.Put(writer)
}

// tableFor returns the cached CRC table for a polynomial, building it
// on first use.
func (s *Software) tableFor(polynomial uint64) *CRCTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, ok := s.tables[polynomial]
	if !ok {
		table = MakeCRCTable(polynomial)
		s.tables[polynomial] = table
	}
	return table
}
