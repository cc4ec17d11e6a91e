// Copyright 2026 The zipread Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zipread

// crc32Table is the reflected CRC-32 table for polynomial 0xEDB88320,
// the one used by the ZIP format's integrity field. Built once at
// package init time rather than hand-typed, so it is trivially checked
// against the generating polynomial.
var crc32Table [256]uint32

func init() {
	const poly = 0xEDB88320
	for i := range crc32Table {
		c := uint32(i)
		for bit := 0; bit < 8; bit++ {
			if c&1 != 0 {
				c = poly ^ (c >> 1)
			} else {
				c >>= 1
			}
		}
		crc32Table[i] = c
	}
}

// crc32State is a running, incrementally-updatable CRC-32 accumulator.
// The zero value is the correct initial state.
type crc32State struct {
	crc uint32
}

// update folds buf into the running checksum.
func (s *crc32State) update(buf []byte) {
	crc := s.crc ^ 0xFFFFFFFF
	for _, b := range buf {
		crc = crc32Table[byte(crc)^b] ^ (crc >> 8)
	}
	s.crc = crc ^ 0xFFFFFFFF
}

// sum returns the checksum of all bytes folded in so far.
func (s *crc32State) sum() uint32 {
	return s.crc
}
