// Copyright 2026 The zipread Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zipread

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"testing"
)

// zipMember describes one entry for buildZip to pack; this mirrors the
// fixture-building approach of hand-assembling archive bytes with
// encoding/binary rather than driving this package's own (nonexistent)
// writer, matching how a pure-reader test suite has to construct its own
// inputs.
type zipMember struct {
	name       string
	data       []byte // uncompressed content
	method     uint16 // 0 stored, 8 deflate, 12 bzip2
	rawPayload []byte // precompressed bytes, for methods this package cannot encode (e.g. bzip2)
	encrypted  bool
	password   string
	gpFlag     uint16
}

// buildZip packs members into a minimal, valid ZIP byte stream: one local
// header + payload per member, followed by the central directory and a
// classic EOCD record.
func buildZip(t *testing.T, members []zipMember) []byte {
	t.Helper()
	var buf bytes.Buffer
	type centralEntry struct {
		offset   uint32
		method   uint16
		gpFlag   uint16
		crc      uint32
		compSize uint32
		uncSize  uint32
		name     string
	}
	var central []centralEntry

	for _, m := range members {
		var s crc32State
		s.update(m.data)
		crc := s.sum()

		payload := m.data
		switch {
		case m.rawPayload != nil:
			// Precompressed bytes supplied by the caller, for methods this
			// test suite has no encoder for (bzip2: the standard library
			// only ships a decompressor).
			payload = m.rawPayload
		case m.method == 0:
			// stored, as-is
		case m.method == 8:
			var cbuf bytes.Buffer
			w, err := flate.NewWriter(&cbuf, flate.BestCompression)
			if err != nil {
				t.Fatalf("flate.NewWriter: %v", err)
			}
			w.Write(m.data)
			w.Close()
			payload = cbuf.Bytes()
		default:
			t.Fatalf("unsupported test compression method %d", m.method)
		}

		gp := m.gpFlag
		if m.encrypted {
			gp |= flagEncrypted
			var header [12]byte
			header[11] = byte(crc >> 24)
			payload = encryptZipCryptoForTest(m.password, header, payload)
		}

		offset := uint32(buf.Len())
		writeLocalHeader(&buf, gp, m.method, crc, uint32(len(payload)), uint32(len(m.data)), m.name)
		buf.WriteString(m.name)
		buf.Write(payload)

		central = append(central, centralEntry{
			offset: offset, method: m.method, gpFlag: gp, crc: crc,
			compSize: uint32(len(payload)), uncSize: uint32(len(m.data)), name: m.name,
		})
	}

	cdStart := buf.Len()
	for _, e := range central {
		writeCentralDirHeader(&buf, e.gpFlag, e.method, e.crc, e.compSize, e.uncSize, e.offset, e.name)
		buf.WriteString(e.name)
	}
	cdSize := buf.Len() - cdStart

	writeEOCD(&buf, uint16(len(central)), uint32(cdSize), uint32(cdStart), nil)

	return buf.Bytes()
}

func writeLocalHeader(buf *bytes.Buffer, gp, method uint16, crc, compSize, uncSize uint32, name string) {
	var h [30]byte
	binary.LittleEndian.PutUint32(h[0:4], 0x04034b50)
	binary.LittleEndian.PutUint16(h[4:6], 20)
	binary.LittleEndian.PutUint16(h[6:8], gp)
	binary.LittleEndian.PutUint16(h[8:10], method)
	binary.LittleEndian.PutUint16(h[10:12], 0)
	binary.LittleEndian.PutUint16(h[12:14], 0x21)
	binary.LittleEndian.PutUint32(h[14:18], crc)
	binary.LittleEndian.PutUint32(h[18:22], compSize)
	binary.LittleEndian.PutUint32(h[22:26], uncSize)
	binary.LittleEndian.PutUint16(h[26:28], uint16(len(name)))
	binary.LittleEndian.PutUint16(h[28:30], 0)
	buf.Write(h[:])
}

func writeCentralDirHeader(buf *bytes.Buffer, gp, method uint16, crc, compSize, uncSize, offset uint32, name string) {
	var h [46]byte
	binary.LittleEndian.PutUint32(h[0:4], 0x02014b50)
	binary.LittleEndian.PutUint16(h[4:6], 0x0314) // version made by: unix host
	binary.LittleEndian.PutUint16(h[6:8], 20)
	binary.LittleEndian.PutUint16(h[8:10], gp)
	binary.LittleEndian.PutUint16(h[10:12], method)
	binary.LittleEndian.PutUint16(h[12:14], 0)
	binary.LittleEndian.PutUint16(h[14:16], 0x21)
	binary.LittleEndian.PutUint32(h[16:20], crc)
	binary.LittleEndian.PutUint32(h[20:24], compSize)
	binary.LittleEndian.PutUint32(h[24:28], uncSize)
	binary.LittleEndian.PutUint16(h[28:30], uint16(len(name)))
	binary.LittleEndian.PutUint16(h[30:32], 0)
	binary.LittleEndian.PutUint16(h[32:34], 0)
	binary.LittleEndian.PutUint16(h[34:36], 0)
	binary.LittleEndian.PutUint16(h[36:38], 0)
	binary.LittleEndian.PutUint32(h[38:42], uint32(0100644)<<16)
	binary.LittleEndian.PutUint32(h[42:46], offset)
	buf.Write(h[:])
}

func writeEOCD(buf *bytes.Buffer, entries uint16, cdSize, cdOffset uint32, comment []byte) {
	var h [22]byte
	binary.LittleEndian.PutUint32(h[0:4], 0x06054b50)
	binary.LittleEndian.PutUint16(h[4:6], 0)
	binary.LittleEndian.PutUint16(h[6:8], 0)
	binary.LittleEndian.PutUint16(h[8:10], entries)
	binary.LittleEndian.PutUint16(h[10:12], entries)
	binary.LittleEndian.PutUint32(h[12:16], cdSize)
	binary.LittleEndian.PutUint32(h[16:20], cdOffset)
	binary.LittleEndian.PutUint16(h[20:22], uint16(len(comment)))
	buf.Write(h[:])
	buf.Write(comment)
}
