// Copyright 2026 The zipread Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package deflate

const (
	maxCodeLength = 15
	lutBits       = 12
	lutSize       = 1 << lutBits
)

// huffmanDecoder is a canonical Huffman decoder built from a table of
// per-symbol code lengths. It supports MSB-first range-walk decoding for
// every code length, backed by a 12-bit LSB-first lookup table that
// shortcuts the common case.
type huffmanDecoder struct {
	// symbols is every symbol with a nonzero code length, sorted
	// ascending by (length, symbol index) — stable on symbol index.
	symbols []uint16

	// firstCode[l] and baseIndex[l] describe the contiguous run of
	// canonical codes of length l: codes in [firstCode[l], lastCode[l])
	// map to symbols[baseIndex[l]:].
	firstCode [maxCodeLength + 1]uint32
	lastCode  [maxCodeLength + 1]uint32
	baseIndex [maxCodeLength + 1]int

	// lut[next 12 bits, LSB-first] -> packed (symbol<<4 | length); a zero
	// length means "miss, fall back to the range walk".
	lut [lutSize]uint16
}

// buildHuffmanDecoder constructs a decoder from lengths, where
// lengths[sym] is the code length of symbol sym (0 meaning "unused").
func buildHuffmanDecoder(lengths []int) (*huffmanDecoder, error) {
	d := &huffmanDecoder{}

	var counts [maxCodeLength + 1]int
	for _, l := range lengths {
		if l < 0 || l > maxCodeLength {
			return nil, &Error{Kind: ErrInvalidCodeLengths, Msg: "code length out of range"}
		}
		counts[l]++
	}

	// Canonical Huffman: symbols sorted by (length, symbol index).
	d.symbols = make([]uint16, 0, len(lengths)-counts[0])
	for l := 1; l <= maxCodeLength; l++ {
		for sym, sl := range lengths {
			if sl == l {
				d.symbols = append(d.symbols, uint16(sym))
			}
		}
	}

	code := uint32(0)
	idx := 0
	for l := 1; l <= maxCodeLength; l++ {
		d.baseIndex[l] = idx
		d.firstCode[l] = code
		code += uint32(counts[l])
		d.lastCode[l] = code
		idx += counts[l]
		code <<= 1
	}

	d.buildLUT()
	return d, nil
}

// bitReverse16 reverses the low n bits of v.
func bitReverse16(v uint32, n uint) uint32 {
	var r uint32
	for i := uint(0); i < n; i++ {
		r = (r << 1) | (v & 1)
		v >>= 1
	}
	return r
}

func (d *huffmanDecoder) buildLUT() {
	for l := 1; l <= lutBits; l++ {
		count := int(d.lastCode[l]) - int(d.firstCode[l])
		for i := 0; i < count; i++ {
			code := d.firstCode[l] + uint32(i)
			sym := d.symbols[d.baseIndex[l]+i]

			// The bit stream is consumed LSB-first, but canonical codes
			// are assigned MSB-first; reverse the code's bits within its
			// length to get the LSB-first pattern, then replicate across
			// the unconstrained high bits of the 12-bit window.
			rev := bitReverse16(code, uint(l))
			step := uint32(1) << uint(l)
			for fill := rev; fill < lutSize; fill += step {
				d.lut[fill] = uint16(sym)<<4 | uint16(l)
			}
		}
	}
}

// readSymbol decodes the next symbol from r.
func (d *huffmanDecoder) readSymbol(r *bitReader) (uint16, error) {
	n := maxCodeLength
	if err := r.fill(uint(n)); err != nil {
		// A short fill is tolerable as long as enough bits exist to
		// resolve an actual code; retry with whatever is available.
		if r.nbits == 0 {
			return 0, err
		}
		n = int(r.nbits)
	}

	peeked := r.peek(lutBits)
	if entry := d.lut[peeked]; entry&0xF != 0 {
		length := uint(entry & 0xF)
		r.drop(length)
		return entry >> 4, nil
	}

	// Range walk, MSB-first, for codes longer than the LUT's 12 bits.
	bits := r.peek(uint(n))
	code := uint32(0)
	for l := 1; l <= n; l++ {
		code = (code << 1) | (bits & 1)
		bits >>= 1
		if code >= d.firstCode[l] && code < d.lastCode[l] {
			r.drop(uint(l))
			return d.symbols[d.baseIndex[l]+int(code-d.firstCode[l])], nil
		}
	}
	return 0, &Error{Kind: ErrInvalidHuffmanCode, Msg: "no matching huffman code"}
}
