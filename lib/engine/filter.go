// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import "fmt"

// unpackLE reads count elements of width bits each from a
// little-endian bit-packed array.
func unpackLE(packed []byte, width, count int) ([]uint32, error) {
	if width < 1 || width > 32 {
		return nil, fmt.Errorf("element width %d is out of range, want 1 to 32", width)
	}
	if count < 0 {
		return nil, fmt.Errorf("element count %d is negative", count)
	}
	needed := (count*width + 7) / 8
	if len(packed) < needed {
		return nil, fmt.Errorf("packed input is %d bytes, need %d for %d elements of width %d",
			len(packed), needed, count, width)
	}

	mask := uint64(1)<<width - 1
	values := make([]uint32, count)
	for i := 0; i < count; i++ {
		bitPosition := i * width
		byteIndex := bitPosition / 8
		shift := uint(bitPosition % 8)

		// An element spans at most five bytes (32 bits plus a
		// seven-bit intra-byte offset).
		var window uint64
		for j := 0; j < 8 && byteIndex+j < len(packed); j++ {
			window |= uint64(packed[byteIndex+j]) << (8 * uint(j))
		}
		values[i] = uint32(window >> shift & mask)
	}
	return values, nil
}

// packLE writes values into a little-endian bit-packed array at the
// given width. Values wider than width bits are truncated to it.
func packLE(values []uint32, width int) []byte {
	mask := uint64(1)<<width - 1
	packed := make([]byte, (len(values)*width+7)/8)
	for i, value := range values {
		bitPosition := i * width
		byteIndex := bitPosition / 8
		shift := uint(bitPosition % 8)

		window := (uint64(value) & mask) << shift
		for j := 0; window != 0; j++ {
			packed[byteIndex+j] |= byte(window)
			window >>= 8
		}
	}
	return packed
}

// maskBit reports whether element i's bit is set in a
// one-bit-per-element mask. Bits beyond the mask read as unset.
func maskBit(mask []byte, i int) bool {
	byteIndex := i / 8
	if byteIndex >= len(mask) {
		return false
	}
	return mask[byteIndex]&(1<<uint(i%8)) != 0
}
