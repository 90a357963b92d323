// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package engine

// The accelerator computes CRC64 in forward (MSB-first) bit order
// with a zero initial value and no final complement. The standard
// library's hash/crc64 is reflected-only and cannot reproduce those
// checksums, so the table-driven forward variant lives here.

// CRCTable is a 256-entry lookup table for one forward CRC64
// polynomial.
type CRCTable [256]uint64

// MakeCRCTable builds the lookup table for the given polynomial.
func MakeCRCTable(polynomial uint64) *CRCTable {
	table := new(CRCTable)
	for i := range table {
		crc := uint64(i) << 56
		for bit := 0; bit < 8; bit++ {
			if crc&(1<<63) != 0 {
				crc = crc<<1 ^ polynomial
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
	return table
}

// Update feeds data into a running CRC.
func (t *CRCTable) Update(crc uint64, data []byte) uint64 {
	for _, b := range data {
		crc = t[byte(crc>>56)^b] ^ crc<<8
	}
	return crc
}

// Checksum returns the CRC64 of data starting from zero.
func (t *CRCTable) Checksum(data []byte) uint64 {
	return t.Update(0, data)
}
