// Copyright 2026 The zipread Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zipread

import (
	"encoding/binary"
	"strings"

	"github.com/halden/zipread/internal/wire"
)

const (
	eocdFixedSize     = 22
	tailSearchCap     = 4096
	exactSearchWindow = eocdFixedSize
	shortSearchWindow = 256
	maxCentralDirSize = 1 << 30 // 1 GiB, per spec's directory size cap
)

// locateDirectory finds the authoritative end-of-directory record (ZIP64
// preferred over classic) and returns the central directory's offset,
// size, and entry count.
func locateDirectory(src Source) (cdOffset, cdSize int64, cdEntries uint64, err error) {
	fileSize := src.Size()

	tailLen := int64(tailSearchCap)
	if tailLen > fileSize {
		tailLen = fileSize
	}
	tailStart := fileSize - tailLen
	tail := make([]byte, tailLen)
	if _, readErr := src.ReadAt(tail, tailStart); readErr != nil {
		return 0, 0, 0, wrapError(ErrSourceIoError, "read archive tail", readErr)
	}

	if off, ok := findSignature(tail, zip64EOCDSig); ok {
		rec, parseErr := wire.ReadZip64EndOfCentralDir(tail[off:])
		if parseErr == nil {
			return int64(rec.CDOffset), int64(rec.CDSize), rec.CDEntriesTotal, nil
		}
	}

	if off, ok := findEOCDWithConsistency(tail, int(tailLen)); ok {
		rec, parseErr := wire.ReadEndOfCentralDir(tail[off:])
		if parseErr == nil {
			return int64(rec.CDOffset), int64(rec.CDSize), uint64(rec.CDEntriesTotal), nil
		}
	}

	return 0, 0, 0, newError(ErrNotAZipArchive, "no end-of-central-directory record found")
}

const (
	eocdSig     uint32 = 0x06054b50
	zip64EOCDSig uint32 = 0x06064b50
)

// findSignature performs the spec's three-step tail search — at the
// minimum-possible offset, then within the last 256 bytes, then anywhere
// in the 4 KiB tail — returning the first match in that priority order.
func findSignature(tail []byte, sig uint32) (int, bool) {
	check := func(off int) bool {
		return off >= 0 && off+4 <= len(tail) && binary.LittleEndian.Uint32(tail[off:off+4]) == sig
	}

	if exact := len(tail) - exactSearchWindow; check(exact) {
		return exact, true
	}

	if off, ok := scanBackward(tail, sig, shortSearchWindow); ok {
		return off, true
	}

	if off, ok := scanBackward(tail, sig, len(tail)); ok {
		return off, true
	}

	return 0, false
}

// findEOCDWithConsistency is findSignature specialized for the classic
// EOCD: a candidate is only accepted if its declared comment length
// places the comment's end exactly at the tail buffer's end, which
// disambiguates a genuine record from a spurious signature planted
// inside an earlier comment.
func findEOCDWithConsistency(tail []byte, tailLen int) (int, bool) {
	consistent := func(off int) bool {
		if off < 0 || off+eocdFixedSize > len(tail) {
			return false
		}
		if binary.LittleEndian.Uint32(tail[off:off+4]) != eocdSig {
			return false
		}
		commentLen := int(binary.LittleEndian.Uint16(tail[off+20 : off+22]))
		return off+eocdFixedSize+commentLen == tailLen
	}

	if exact := tailLen - exactSearchWindow; consistent(exact) {
		return exact, true
	}

	for _, window := range []int{shortSearchWindow, tailLen} {
		start := tailLen - window
		if start < 0 {
			start = 0
		}
		for off := tailLen - eocdFixedSize; off >= start; off-- {
			if consistent(off) {
				return off, true
			}
		}
	}

	return 0, false
}

// scanBackward searches the last window bytes of tail for sig, nearest
// match to the end first.
func scanBackward(tail []byte, sig uint32, window int) (int, bool) {
	start := len(tail) - window
	if start < 0 {
		start = 0
	}
	for off := len(tail) - 4; off >= start; off-- {
		if binary.LittleEndian.Uint32(tail[off:off+4]) == sig {
			return off, true
		}
	}
	return 0, false
}

// readDirectory reads and parses the entire central directory, producing
// one normalized FileHeader per entry.
func readDirectory(src Source) ([]*FileHeader, error) {
	cdOffset, cdSize, cdEntries, err := locateDirectory(src)
	if err != nil {
		return nil, err
	}
	if cdSize > maxCentralDirSize {
		return nil, newError(ErrDirectoryTooLarge, "central directory exceeds 1 GiB")
	}
	if cdSize < 0 || cdOffset < 0 {
		return nil, newError(ErrMalformedDirectory, "negative central directory offset or size")
	}

	buf := make([]byte, cdSize)
	if _, err := src.ReadAt(buf, cdOffset); err != nil {
		return nil, wrapError(ErrSourceIoError, "read central directory", err)
	}

	headers := make([]*FileHeader, 0, cdEntries)
	pos := 0
	for i := uint64(0); i < cdEntries; i++ {
		if pos >= len(buf) {
			return nil, newError(ErrMalformedDirectory, "central directory exhausted before entry count reached")
		}
		cdh, next, err := wire.ReadCentralDirectoryHeader(buf, pos)
		if err != nil {
			return nil, wrapError(ErrMalformedDirectory, "parse central directory entry", err)
		}
		if cdh.Signature != wire.CentralDirectorySignature {
			return nil, newError(ErrMalformedDirectory, "bad central directory header signature")
		}
		pos = next

		fh, err := normalizeEntry(cdh)
		if err != nil {
			return nil, err
		}
		headers = append(headers, fh)
	}

	return headers, nil
}

// normalizeEntry converts one raw central directory header into a
// normalized FileHeader: MS-DOS time decode, Extended Timestamp
// override, ZIP64 size/offset overrides, and name/comment decoding.
func normalizeEntry(cdh *wire.CentralDirectoryHeader) (*FileHeader, error) {
	fields := wire.ParseExtraFields(cdh.ExtraField)

	uncompressed := uint64(cdh.UncompressedSize)
	compressed := uint64(cdh.CompressedSize)
	localOffset := uint64(cdh.LocalHeaderOffset)

	needsZip64 := cdh.UncompressedSize == 0xFFFFFFFF ||
		cdh.CompressedSize == 0xFFFFFFFF ||
		cdh.LocalHeaderOffset == 0xFFFFFFFF

	if needsZip64 {
		payload, ok := wire.Find(fields, wire.Zip64ExtraFieldTag)
		if !ok {
			return nil, newError(ErrMalformedDirectory, "zip64 sentinel present without zip64 extra field")
		}
		cursor := 0
		next8 := func() (uint64, bool) {
			if cursor+8 > len(payload) {
				return 0, false
			}
			v := binary.LittleEndian.Uint64(payload[cursor : cursor+8])
			cursor += 8
			return v, true
		}
		if cdh.UncompressedSize == 0xFFFFFFFF {
			v, ok := next8()
			if !ok {
				return nil, newError(ErrMalformedDirectory, "truncated zip64 extra field (uncompressed size)")
			}
			uncompressed = v
		}
		if cdh.CompressedSize == 0xFFFFFFFF {
			v, ok := next8()
			if !ok {
				return nil, newError(ErrMalformedDirectory, "truncated zip64 extra field (compressed size)")
			}
			compressed = v
		}
		if cdh.LocalHeaderOffset == 0xFFFFFFFF {
			v, ok := next8()
			if !ok {
				return nil, newError(ErrMalformedDirectory, "truncated zip64 extra field (local header offset)")
			}
			localOffset = v
		}
	}

	modTime := msDosTimeToTime(cdh.LastModFileDate, cdh.LastModFileTime)
	if payload, ok := wire.Find(fields, wire.ExtendedTimestampTag); ok && len(payload) >= 5 {
		flags := payload[0]
		if flags&0x01 != 0 {
			mtime := binary.LittleEndian.Uint32(payload[1:5])
			modTime = epochToLocal(mtime)
		}
	}

	name := decodeName(cdh.Filename, cdh.GeneralPurposeBitFlag)
	comment := decodeName(cdh.Comment, cdh.GeneralPurposeBitFlag)
	isDir := strings.HasSuffix(name, "/")

	return &FileHeader{
		name:                  name,
		comment:               comment,
		generalPurposeBitFlag: cdh.GeneralPurposeBitFlag,
		compressionMethod:     CompressionMethod(cdh.CompressionMethod),
		crc32:                 cdh.CRC32,
		lastModified:          modTime,
		uncompressedSize:      int64(uncompressed),
		compressedSize:        int64(compressed),
		localHeaderOffset:     int64(localOffset),
		mode:                  decodeExternalAttrs(cdh.VersionMadeBy, cdh.ExternalFileAttributes, isDir),
		isDir:                 isDir,
	}, nil
}
