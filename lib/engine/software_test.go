// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func compressibleText(size int) []byte {
	phrase := "pack my box with five dozen liquor jugs while the band plays on "
	return []byte(strings.Repeat(phrase, size/len(phrase)+1))[:size]
}

func TestDeflateInflateRoundTrip(t *testing.T) {
	software := NewSoftware()
	input := compressibleText(16 * 1024)

	for _, level := range []int{0, 1, 6, 9, -1} {
		compressed, err := software.Run(&Job{Op: OpDeflate, Input: input, Level: level})
		if err != nil {
			t.Fatalf("level %d: deflate error: %v", level, err)
		}
		if level > 0 && len(compressed.Output) >= len(input) {
			t.Errorf("level %d: compressed %d bytes to %d, want smaller", level, len(input), len(compressed.Output))
		}

		decompressed, err := software.Run(&Job{Op: OpInflate, Input: compressed.Output})
		if err != nil {
			t.Fatalf("level %d: inflate error: %v", level, err)
		}
		if !bytes.Equal(decompressed.Output, input) {
			t.Errorf("level %d: round trip altered the data", level)
		}
	}
}

func TestDeflateInflateWithDictionary(t *testing.T) {
	software := NewSoftware()
	// The dictionary is the input itself, so the dictionary path can
	// encode the whole block as back-references.
	input := []byte("sphinx of black quartz judge my vow sphinx of black quartz")
	dictionary := append([]byte(nil), input...)

	plain, err := software.Run(&Job{Op: OpDeflate, Input: input, Level: 6})
	if err != nil {
		t.Fatalf("deflate error: %v", err)
	}
	canned, err := software.Run(&Job{Op: OpDeflate, Input: input, Level: 6, Dictionary: dictionary})
	if err != nil {
		t.Fatalf("deflate with dictionary error: %v", err)
	}
	if len(canned.Output) >= len(plain.Output) {
		t.Errorf("dictionary output %d bytes, plain %d, want smaller", len(canned.Output), len(plain.Output))
	}

	decompressed, err := software.Run(&Job{Op: OpInflate, Input: canned.Output, Dictionary: dictionary})
	if err != nil {
		t.Fatalf("inflate with dictionary error: %v", err)
	}
	if !bytes.Equal(decompressed.Output, input) {
		t.Error("dictionary round trip altered the data")
	}
}

func TestInflateCorruptInput(t *testing.T) {
	// 0xFF opens a block with the reserved type bits set.
	if _, err := NewSoftware().Run(&Job{Op: OpInflate, Input: []byte{0xFF, 0xFF, 0xFF, 0xFF}}); err == nil {
		t.Error("inflate succeeded on corrupt input, want error")
	}
}

func TestDeflateInvalidLevel(t *testing.T) {
	if _, err := NewSoftware().Run(&Job{Op: OpDeflate, Input: []byte("x"), Level: 10}); err == nil {
		t.Error("deflate succeeded with level 10, want error")
	}
}

func TestDeflateReusesOutputStorage(t *testing.T) {
	software := NewSoftware()
	input := compressibleText(4096)

	first, err := software.Run(&Job{Op: OpDeflate, Input: input, Level: 6})
	if err != nil {
		t.Fatalf("deflate error: %v", err)
	}
	second, err := software.Run(&Job{Op: OpDeflate, Input: input, Level: 6, Output: first.Output})
	if err != nil {
		t.Fatalf("deflate with reused storage error: %v", err)
	}
	if !bytes.Equal(first.Output, second.Output) {
		t.Error("reusing output storage changed the result")
	}
}

func TestCRC64ViaEngine(t *testing.T) {
	input := []byte("checksum me")
	result, err := NewSoftware().Run(&Job{Op: OpCRC64, Input: input, Polynomial: accelPolynomial})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if want := crcBitwise(input, accelPolynomial); result.Checksum != want {
		t.Errorf("Checksum = %#x, want %#x", result.Checksum, want)
	}
}

func TestCRC64ZeroPolynomial(t *testing.T) {
	if _, err := NewSoftware().Run(&Job{Op: OpCRC64, Input: []byte("x")}); err == nil {
		t.Error("Run succeeded with a zero polynomial, want error")
	}
}

func TestUnsupportedOp(t *testing.T) {
	if _, err := NewSoftware().Run(&Job{Op: Op(99)}); err == nil {
		t.Error("Run succeeded on an unknown operation, want error")
	}
}

func TestOpStrings(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{OpDeflate, "deflate"},
		{OpInflate, "inflate"},
		{OpCRC64, "crc64"},
		{OpScan, "scan"},
		{OpExtract, "extract"},
		{OpSelect, "select"},
		{Op(99), "unknown(99)"},
	}
	for _, test := range tests {
		if got := test.op.String(); got != test.want {
			t.Errorf("Op(%d).String() = %q, want %q", uint8(test.op), got, test.want)
		}
	}
}

// TestRunConcurrent exercises the writer and reader pools from
// several goroutines at once.
func TestRunConcurrent(t *testing.T) {
	software := NewSoftware()
	input := compressibleText(8 * 1024)

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				compressed, err := software.Run(&Job{Op: OpDeflate, Input: input, Level: 1})
				if err != nil {
					t.Errorf("deflate error: %v", err)
					return
				}
				decompressed, err := software.Run(&Job{Op: OpInflate, Input: compressed.Output})
				if err != nil {
					t.Errorf("inflate error: %v", err)
					return
				}
				if !bytes.Equal(decompressed.Output, input) {
					t.Error("round trip altered the data")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestSoftwareIdentity(t *testing.T) {
	software := NewSoftware()
	if got := software.Name(); got != "software" {
		t.Errorf("Name() = %q, want software", got)
	}
	if err := software.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}
