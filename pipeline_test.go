// Copyright 2026 The zipread Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zipread

import (
	"bytes"
	"io"
	"testing"
)

// A member whose actual payload is longer than the uncompressed size
// declared in its directory entry must fail with ErrSizeMismatch rather
// than being silently truncated.
func TestPipeline_SizeMismatch(t *testing.T) {
	payload := []byte("this payload is longer than the size the header declares")
	declaredUncompressedSize := uint32(5) // far short of len(payload)

	var s crc32State
	s.update(payload)
	crc := s.sum()

	var buf bytes.Buffer
	const name = "a"
	writeLocalHeader(&buf, 0, 0, crc, uint32(len(payload)), declaredUncompressedSize, name)
	buf.WriteString(name)
	buf.Write(payload)

	cdStart := buf.Len()
	writeCentralDirHeader(&buf, 0, 0, crc, uint32(len(payload)), declaredUncompressedSize, 0, name)
	buf.WriteString(name)
	cdSize := buf.Len() - cdStart

	writeEOCD(&buf, 1, uint32(cdSize), uint32(cdStart), nil)

	a := openBytes(t, buf.Bytes())
	f, err := a.Open(name)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, err = io.ReadAll(f)
	f.Close()
	if err == nil {
		t.Fatal("expected an error reading an oversized stream")
	}
	ze, ok := err.(*Error)
	if !ok || ze.Kind() != ErrSizeMismatch {
		t.Fatalf("got %v, want SizeMismatch", err)
	}
}
