// Copyright 2026 The zipread Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package deflate

import (
	"bytes"
	"compress/flate"
	"io"
	"strings"
	"testing"
)

// deflateBytes compresses data with the standard library's DEFLATE
// encoder, producing a reference-compliant bit stream to exercise this
// package's from-scratch decoder against.
func deflateBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		t.Fatalf("flate.NewWriter: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return buf.Bytes()
}

func TestInflate_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		want []byte
	}{
		{name: "repeated literal", want: []byte(strings.Repeat("a", 10))},
		{name: "large zero run", want: make([]byte, 10000)},
		{name: "empty input", want: nil},
		{name: "mixed content", want: []byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 50))},
		{
			name: "maximum-length back-reference",
			// 259 repeated bytes (one literal, then the rest copied) triggers
			// the maximum-length/minimum-distance back-reference (length 258,
			// distance 1).
			want: bytes.Repeat([]byte{0x42}, 259),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed := deflateBytes(t, tt.want)
			got, err := io.ReadAll(NewReader(bytes.NewReader(compressed)))
			if err != nil {
				t.Fatalf("inflate: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("mismatch: got %d bytes, want %d bytes", len(got), len(tt.want))
			}
		})
	}
}

func TestInflate_StoredBlock(t *testing.T) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.NoCompression)
	if err != nil {
		t.Fatalf("flate.NewWriter: %v", err)
	}
	want := []byte("stored content that should round-trip byte for byte")
	w.Write(want)
	w.Close()

	got, err := io.ReadAll(NewReader(bytes.NewReader(buf.Bytes())))
	if err != nil {
		t.Fatalf("inflate: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestInflate_MalformedInput(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr Kind
	}{
		{
			name: "reserved block type",
			// 0b111 = BFINAL=1, BTYPE=11 (reserved), in the low bits of the byte.
			data:    []byte{0x07},
			wantErr: ErrInvalidBlockType,
		},
		{
			name: "LEN/NLEN mismatch in stored block",
			// BFINAL=1, BTYPE=00, then LEN/NLEN that don't complement each other.
			data:    []byte{0x01, 0x05, 0x00, 0x05, 0x00},
			wantErr: ErrInvalidStoredBlock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := io.ReadAll(NewReader(bytes.NewReader(tt.data)))
			if err == nil {
				t.Fatal("expected an error")
			}
			de, ok := err.(*Error)
			if !ok || de.Kind != tt.wantErr {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildHuffmanDecoder_Fixed(t *testing.T) {
	dec, err := buildHuffmanDecoder(fixedLiteralLengths())
	if err != nil {
		t.Fatalf("buildHuffmanDecoder: %v", err)
	}
	if len(dec.symbols) != 288 {
		t.Fatalf("got %d symbols, want 288", len(dec.symbols))
	}
}

func TestHuffmanDecoder_SingleSymbolMinimalCode(t *testing.T) {
	// One symbol with length 1, the simplest possible canonical table.
	lengths := []int{1}
	dec, err := buildHuffmanDecoder(lengths)
	if err != nil {
		t.Fatalf("buildHuffmanDecoder: %v", err)
	}
	r := newBitReader(bytes.NewReader([]byte{0x00}))
	sym, err := dec.readSymbol(r)
	if err != nil {
		t.Fatalf("readSymbol: %v", err)
	}
	if sym != 0 {
		t.Fatalf("got symbol %d, want 0", sym)
	}
}
