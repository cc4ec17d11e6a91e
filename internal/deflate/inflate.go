// Copyright 2026 The zipread Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package deflate implements a from-scratch RFC 1951 DEFLATE decoder: a
// bit-stream reader, a canonical Huffman decoder with a lookup-table fast
// path, a 64 KiB sliding window, and a block-dispatch state machine
// covering stored, fixed-Huffman, and dynamic-Huffman blocks.
package deflate

import "io"

type blockState int

const (
	stateBlockHead blockState = iota
	stateStoredBlock
	stateCompressedBlock
	stateEnd
)

// Reader decompresses a raw DEFLATE stream read from its source, one
// symbol or stored byte at a time, buffering produced-but-undelivered
// bytes in its sliding window.
type Reader struct {
	br  *bitReader
	win window

	state blockState
	final bool

	litDec  *huffmanDecoder
	distDec *huffmanDecoder

	storedRemaining int

	delivered uint64
	err       error
}

// NewReader returns a Reader that inflates the raw DEFLATE stream read
// from src.
func NewReader(src io.Reader) *Reader {
	return &Reader{br: newBitReader(src)}
}

func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n := 0
	for n < len(p) {
		if r.delivered < r.win.cursor {
			c := r.copyOut(p[n:])
			n += c
			continue
		}
		if r.err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, r.err
		}
		if r.state == stateEnd {
			r.err = io.EOF
			if n > 0 {
				return n, nil
			}
			return 0, io.EOF
		}
		if err := r.step(); err != nil {
			r.err = err
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
	}
	return n, nil
}

// copyOut copies already-produced, not-yet-delivered bytes into p.
func (r *Reader) copyOut(p []byte) int {
	avail := r.win.cursor - r.delivered
	n := uint64(len(p))
	if n > avail {
		n = avail
	}
	for i := uint64(0); i < n; i++ {
		p[i] = r.win.buf[(r.delivered+i)&windowMask]
	}
	r.delivered += n
	return int(n)
}

// step advances the block-dispatch state machine by one unit: a block
// header, one stored byte, or one literal/length symbol. Block headers and
// block ends produce no bytes; a literal produces one and a back-reference
// up to 258.
func (r *Reader) step() error {
	switch r.state {
	case stateBlockHead:
		return r.readBlockHead()
	case stateStoredBlock:
		return r.readStoredBlock()
	case stateCompressedBlock:
		return r.readCompressedSymbol()
	default:
		return nil
	}
}

func (r *Reader) readBlockHead() error {
	bfinal, err := r.br.read(1)
	if err != nil {
		return err
	}
	btype, err := r.br.read(2)
	if err != nil {
		return err
	}
	r.final = bfinal != 0

	switch btype {
	case 0: // stored
		r.br.seekToNextByte()
		var lenNlen [4]byte
		if err := r.br.readAlignedBytes(lenNlen[:]); err != nil {
			return err
		}
		length := int(lenNlen[0]) | int(lenNlen[1])<<8
		nlength := int(lenNlen[2]) | int(lenNlen[3])<<8
		if length^nlength != 0xFFFF {
			return &Error{Kind: ErrInvalidStoredBlock, Msg: "LEN/NLEN mismatch"}
		}
		r.storedRemaining = length
		r.state = stateStoredBlock

	case 1: // fixed Huffman
		lit, err := buildHuffmanDecoder(fixedLiteralLengths())
		if err != nil {
			return err
		}
		dist, err := buildHuffmanDecoder(fixedDistanceLengths())
		if err != nil {
			return err
		}
		r.litDec, r.distDec = lit, dist
		r.state = stateCompressedBlock

	case 2: // dynamic Huffman
		lit, dist, err := r.readDynamicTables()
		if err != nil {
			return err
		}
		r.litDec, r.distDec = lit, dist
		r.state = stateCompressedBlock

	default: // 3, reserved
		return &Error{Kind: ErrInvalidBlockType, Msg: "reserved block type 11"}
	}
	return nil
}

func (r *Reader) readStoredBlock() error {
	if r.storedRemaining == 0 {
		return r.endOfBlock()
	}
	var b [1]byte
	if err := r.br.readAlignedBytes(b[:]); err != nil {
		return err
	}
	r.win.put(b[0])
	r.storedRemaining--
	if r.storedRemaining == 0 {
		return r.endOfBlock()
	}
	return nil
}

func (r *Reader) readCompressedSymbol() error {
	sym, err := r.litDec.readSymbol(r.br)
	if err != nil {
		return err
	}

	switch {
	case sym < 256:
		r.win.put(byte(sym))
		return nil

	case sym == 256:
		return r.endOfBlock()

	case sym <= 285:
		idx := int(sym) - 257
		extra, err := r.br.read(lengthExtraBits[idx])
		if err != nil {
			return err
		}
		length := lengthBase[idx] + int(extra)

		dsym, err := r.distDec.readSymbol(r.br)
		if err != nil {
			return err
		}
		if int(dsym) >= len(distanceBase) {
			return &Error{Kind: ErrInvalidAlphabet, Msg: "distance symbol out of range"}
		}
		dextra, err := r.br.read(distanceExtraBits[dsym])
		if err != nil {
			return err
		}
		distance := distanceBase[dsym] + int(dextra)

		for i := 0; i < length; i++ {
			if _, err := r.win.reput(uint32(distance)); err != nil {
				return err
			}
		}
		return nil

	default:
		return &Error{Kind: ErrInvalidAlphabet, Msg: "literal/length symbol out of range"}
	}
}

func (r *Reader) endOfBlock() error {
	r.litDec, r.distDec = nil, nil
	if r.final {
		r.state = stateEnd
		return nil
	}
	r.state = stateBlockHead
	return nil
}

// readDynamicTables reads a dynamic Huffman block header: HLIT/HDIST/HCLEN
// counts, the HCLEN code-length codes (via the fixed permutation), and
// then the HLIT+HDIST literal/distance code lengths encoded with RFC
// 1951's run-length scheme (codes 16/17/18).
func (r *Reader) readDynamicTables() (*huffmanDecoder, *huffmanDecoder, error) {
	hlitRaw, err := r.br.read(5)
	if err != nil {
		return nil, nil, err
	}
	hdistRaw, err := r.br.read(5)
	if err != nil {
		return nil, nil, err
	}
	hclenRaw, err := r.br.read(4)
	if err != nil {
		return nil, nil, err
	}
	hlit := int(hlitRaw) + 257
	hdist := int(hdistRaw) + 1
	hclen := int(hclenRaw) + 4

	clLengths := make([]int, 19)
	for i := 0; i < hclen; i++ {
		v, err := r.br.read(3)
		if err != nil {
			return nil, nil, err
		}
		clLengths[codeLengthOrder[i]] = int(v)
	}
	clDec, err := buildHuffmanDecoder(clLengths)
	if err != nil {
		return nil, nil, err
	}

	target := hlit + hdist
	lengths := make([]int, 0, target)
	prev := 0
	for len(lengths) < target {
		sym, err := clDec.readSymbol(r.br)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case sym <= 15:
			lengths = append(lengths, int(sym))
			prev = int(sym)
		case sym == 16:
			extra, err := r.br.read(2)
			if err != nil {
				return nil, nil, err
			}
			count := 3 + int(extra)
			if len(lengths) == 0 || len(lengths)+count > target {
				return nil, nil, &Error{Kind: ErrInvalidCodeLengths, Msg: "repeat-previous overshoots code length table"}
			}
			for i := 0; i < count; i++ {
				lengths = append(lengths, prev)
			}
		case sym == 17:
			extra, err := r.br.read(3)
			if err != nil {
				return nil, nil, err
			}
			count := 3 + int(extra)
			if len(lengths)+count > target {
				return nil, nil, &Error{Kind: ErrInvalidCodeLengths, Msg: "zero-run overshoots code length table"}
			}
			for i := 0; i < count; i++ {
				lengths = append(lengths, 0)
			}
			prev = 0
		case sym == 18:
			extra, err := r.br.read(7)
			if err != nil {
				return nil, nil, err
			}
			count := 11 + int(extra)
			if len(lengths)+count > target {
				return nil, nil, &Error{Kind: ErrInvalidCodeLengths, Msg: "long zero-run overshoots code length table"}
			}
			for i := 0; i < count; i++ {
				lengths = append(lengths, 0)
			}
			prev = 0
		default:
			return nil, nil, &Error{Kind: ErrInvalidCodeLengths, Msg: "code length symbol out of range"}
		}
	}

	litDec, err := buildHuffmanDecoder(lengths[:hlit])
	if err != nil {
		return nil, nil, err
	}
	distDec, err := buildHuffmanDecoder(lengths[hlit:])
	if err != nil {
		return nil, nil, err
	}
	return litDec, distDec, nil
}
