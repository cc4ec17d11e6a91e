// Copyright 2026 The zipread Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zipread

import "testing"

func TestCRC32_KnownVectors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint32
	}{
		{name: "short ASCII string", data: []byte("Hello!"), want: 0x9A38B479},
		{name: "empty input", data: nil, want: 0},
		{name: "single byte", data: []byte{0x00}, want: 0xD202EF8D},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s crc32State
			s.update(tt.data)
			if got := s.sum(); got != tt.want {
				t.Fatalf("crc32(%q) = %#08x, want %#08x", tt.data, got, tt.want)
			}
		})
	}
}

func TestCRC32_Incremental(t *testing.T) {
	var whole, parts crc32State
	whole.update([]byte("the quick brown fox"))

	parts.update([]byte("the quick "))
	parts.update([]byte("brown fox"))

	if whole.sum() != parts.sum() {
		t.Fatalf("incremental update diverged: whole=%#08x parts=%#08x", whole.sum(), parts.sum())
	}
}
