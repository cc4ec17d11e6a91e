// Copyright 2026 The zipread Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wire decodes the fixed-layout, little-endian structures that make
// up a ZIP archive's directory: local file headers, central directory
// headers, the end-of-central-directory record and its ZIP64 variants, and
// the tagged extra-field grammar that rides along with each of them.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	LocalFileHeaderSignature             uint32 = 0x04034b50
	CentralDirectorySignature            uint32 = 0x02014b50
	EndOfCentralDirSignature              uint32 = 0x06054b50
	Zip64EndOfCentralDirSignature          uint32 = 0x06064b50
	Zip64EndOfCentralDirLocatorSignature  uint32 = 0x07064b50
)

// ErrShortField is returned when a fixed-size header cannot be read in full.
var ErrShortField = errors.New("wire: short header read")

// LocalFileHeader is the 30 fixed bytes immediately preceding a member's
// payload, plus the variable-length name and extra field that follow them.
type LocalFileHeader struct {
	Signature              uint32
	VersionNeededToExtract uint16
	GeneralPurposeBitFlag  uint16
	CompressionMethod      uint16
	LastModFileTime        uint16
	LastModFileDate        uint16
	CRC32                  uint32
	CompressedSize         uint32
	UncompressedSize       uint32
	FilenameLength         uint16
	ExtraFieldLength       uint16
	Filename               string
	ExtraField             []byte
}

// HeaderSize returns the number of bytes from the start of the header
// (including the signature) to the start of the payload.
func (h *LocalFileHeader) HeaderSize() int64 {
	return 30 + int64(h.FilenameLength) + int64(h.ExtraFieldLength)
}

// ReadLocalFileHeader parses a local file header starting at the current
// position of src. The signature is read and left for the caller to check.
func ReadLocalFileHeader(src io.Reader) (*LocalFileHeader, error) {
	var fixed [30]byte
	if _, err := io.ReadFull(src, fixed[:]); err != nil {
		return nil, fmt.Errorf("wire: read local file header: %w", err)
	}

	h := &LocalFileHeader{
		Signature:              binary.LittleEndian.Uint32(fixed[0:4]),
		VersionNeededToExtract: binary.LittleEndian.Uint16(fixed[4:6]),
		GeneralPurposeBitFlag:  binary.LittleEndian.Uint16(fixed[6:8]),
		CompressionMethod:      binary.LittleEndian.Uint16(fixed[8:10]),
		LastModFileTime:        binary.LittleEndian.Uint16(fixed[10:12]),
		LastModFileDate:        binary.LittleEndian.Uint16(fixed[12:14]),
		CRC32:                  binary.LittleEndian.Uint32(fixed[14:18]),
		CompressedSize:         binary.LittleEndian.Uint32(fixed[18:22]),
		UncompressedSize:       binary.LittleEndian.Uint32(fixed[22:26]),
		FilenameLength:         binary.LittleEndian.Uint16(fixed[26:28]),
		ExtraFieldLength:       binary.LittleEndian.Uint16(fixed[28:30]),
	}

	name := make([]byte, h.FilenameLength)
	if _, err := io.ReadFull(src, name); err != nil {
		return nil, fmt.Errorf("wire: read local file header name: %w", err)
	}
	h.Filename = string(name)

	extra := make([]byte, h.ExtraFieldLength)
	if _, err := io.ReadFull(src, extra); err != nil {
		return nil, fmt.Errorf("wire: read local file header extra: %w", err)
	}
	h.ExtraField = extra

	return h, nil
}

// CentralDirectoryHeader is one entry of the central directory: the 46
// fixed bytes plus name, extra field, and comment.
type CentralDirectoryHeader struct {
	Signature              uint32
	VersionMadeBy          uint16
	VersionNeededToExtract uint16
	GeneralPurposeBitFlag  uint16
	CompressionMethod      uint16
	LastModFileTime        uint16
	LastModFileDate        uint16
	CRC32                  uint32
	CompressedSize         uint32
	UncompressedSize       uint32
	FilenameLength         uint16
	ExtraFieldLength       uint16
	FileCommentLength      uint16
	DiskNumberStart        uint16
	InternalFileAttributes uint16
	ExternalFileAttributes uint32
	LocalHeaderOffset      uint32
	Filename               []byte
	ExtraField             []byte
	Comment                []byte
}

// Size reports the total on-disk size of this entry (fixed + variable).
func (h *CentralDirectoryHeader) Size() int64 {
	return 46 + int64(h.FilenameLength) + int64(h.ExtraFieldLength) + int64(h.FileCommentLength)
}

// ReadCentralDirectoryHeader parses one entry from buf at offset off,
// returning the entry and the offset of the byte following it. It does not
// allocate a reader over buf; the central directory is held in memory as a
// single slice and entries are parsed by slicing.
func ReadCentralDirectoryHeader(buf []byte, off int) (*CentralDirectoryHeader, int, error) {
	const fixedSize = 46
	if off < 0 || off+fixedSize > len(buf) {
		return nil, 0, fmt.Errorf("wire: central directory header at %d: %w", off, ErrShortField)
	}
	b := buf[off : off+fixedSize]

	h := &CentralDirectoryHeader{
		Signature:              binary.LittleEndian.Uint32(b[0:4]),
		VersionMadeBy:          binary.LittleEndian.Uint16(b[4:6]),
		VersionNeededToExtract: binary.LittleEndian.Uint16(b[6:8]),
		GeneralPurposeBitFlag:  binary.LittleEndian.Uint16(b[8:10]),
		CompressionMethod:      binary.LittleEndian.Uint16(b[10:12]),
		LastModFileTime:        binary.LittleEndian.Uint16(b[12:14]),
		LastModFileDate:        binary.LittleEndian.Uint16(b[14:16]),
		CRC32:                  binary.LittleEndian.Uint32(b[16:20]),
		CompressedSize:         binary.LittleEndian.Uint32(b[20:24]),
		UncompressedSize:       binary.LittleEndian.Uint32(b[24:28]),
		FilenameLength:         binary.LittleEndian.Uint16(b[28:30]),
		ExtraFieldLength:       binary.LittleEndian.Uint16(b[30:32]),
		FileCommentLength:      binary.LittleEndian.Uint16(b[32:34]),
		DiskNumberStart:        binary.LittleEndian.Uint16(b[34:36]),
		InternalFileAttributes: binary.LittleEndian.Uint16(b[36:38]),
		ExternalFileAttributes: binary.LittleEndian.Uint32(b[38:42]),
		LocalHeaderOffset:      binary.LittleEndian.Uint32(b[42:46]),
	}

	cursor := off + fixedSize
	total := int(h.FilenameLength) + int(h.ExtraFieldLength) + int(h.FileCommentLength)
	if cursor+total > len(buf) {
		return nil, 0, fmt.Errorf("wire: central directory header at %d: variable fields exceed buffer: %w", off, ErrShortField)
	}

	h.Filename = buf[cursor : cursor+int(h.FilenameLength)]
	cursor += int(h.FilenameLength)
	h.ExtraField = buf[cursor : cursor+int(h.ExtraFieldLength)]
	cursor += int(h.ExtraFieldLength)
	h.Comment = buf[cursor : cursor+int(h.FileCommentLength)]
	cursor += int(h.FileCommentLength)

	return h, cursor, nil
}

// EndOfCentralDirectory is the classic (32-bit) EOCD record.
type EndOfCentralDirectory struct {
	Signature          uint32
	DiskNumber         uint16
	CDStartDisk        uint16
	CDEntriesThisDisk  uint16
	CDEntriesTotal     uint16
	CDSize             uint32
	CDOffset           uint32
	CommentLength      uint16
	Comment            []byte
}

// ReadEndOfCentralDir parses an EOCD record (including its signature) from
// the start of buf.
func ReadEndOfCentralDir(buf []byte) (*EndOfCentralDirectory, error) {
	const fixedSize = 22
	if len(buf) < fixedSize {
		return nil, fmt.Errorf("wire: end of central directory: %w", ErrShortField)
	}
	e := &EndOfCentralDirectory{
		Signature:         binary.LittleEndian.Uint32(buf[0:4]),
		DiskNumber:        binary.LittleEndian.Uint16(buf[4:6]),
		CDStartDisk:       binary.LittleEndian.Uint16(buf[6:8]),
		CDEntriesThisDisk: binary.LittleEndian.Uint16(buf[8:10]),
		CDEntriesTotal:    binary.LittleEndian.Uint16(buf[10:12]),
		CDSize:            binary.LittleEndian.Uint32(buf[12:16]),
		CDOffset:          binary.LittleEndian.Uint32(buf[16:20]),
		CommentLength:     binary.LittleEndian.Uint16(buf[20:22]),
	}
	if fixedSize+int(e.CommentLength) > len(buf) {
		return nil, fmt.Errorf("wire: end of central directory comment: %w", ErrShortField)
	}
	e.Comment = buf[fixedSize : fixedSize+int(e.CommentLength)]
	return e, nil
}

// Zip64EndOfCentralDirectory is the 56-byte fixed-size ZIP64 EOCD record.
type Zip64EndOfCentralDirectory struct {
	Signature         uint32
	RecordSize        uint64
	VersionMadeBy     uint16
	VersionNeeded     uint16
	DiskNumber        uint32
	CDStartDisk       uint32
	CDEntriesThisDisk uint64
	CDEntriesTotal    uint64
	CDSize            uint64
	CDOffset          uint64
}

// ReadZip64EndOfCentralDir parses a ZIP64 EOCD record (including its
// signature) from the start of buf.
func ReadZip64EndOfCentralDir(buf []byte) (*Zip64EndOfCentralDirectory, error) {
	const size = 56
	if len(buf) < size {
		return nil, fmt.Errorf("wire: zip64 end of central directory: %w", ErrShortField)
	}
	return &Zip64EndOfCentralDirectory{
		Signature:         binary.LittleEndian.Uint32(buf[0:4]),
		RecordSize:        binary.LittleEndian.Uint64(buf[4:12]),
		VersionMadeBy:     binary.LittleEndian.Uint16(buf[12:14]),
		VersionNeeded:     binary.LittleEndian.Uint16(buf[14:16]),
		DiskNumber:        binary.LittleEndian.Uint32(buf[16:20]),
		CDStartDisk:       binary.LittleEndian.Uint32(buf[20:24]),
		CDEntriesThisDisk: binary.LittleEndian.Uint64(buf[24:32]),
		CDEntriesTotal:    binary.LittleEndian.Uint64(buf[32:40]),
		CDSize:            binary.LittleEndian.Uint64(buf[40:48]),
		CDOffset:          binary.LittleEndian.Uint64(buf[48:56]),
	}, nil
}

// Zip64EndOfCentralDirectoryLocator is the 20-byte locator record that
// points at the ZIP64 EOCD record.
type Zip64EndOfCentralDirectoryLocator struct {
	Signature          uint32
	DiskWithZip64EOCD  uint32
	Zip64EOCDOffset    uint64
	TotalDisks         uint32
}

// ReadZip64EndOfCentralDirLocator parses a locator record (including its
// signature) from the start of buf.
func ReadZip64EndOfCentralDirLocator(buf []byte) (*Zip64EndOfCentralDirectoryLocator, error) {
	const size = 20
	if len(buf) < size {
		return nil, fmt.Errorf("wire: zip64 end of central directory locator: %w", ErrShortField)
	}
	return &Zip64EndOfCentralDirectoryLocator{
		Signature:         binary.LittleEndian.Uint32(buf[0:4]),
		DiskWithZip64EOCD: binary.LittleEndian.Uint32(buf[4:8]),
		Zip64EOCDOffset:   binary.LittleEndian.Uint64(buf[8:16]),
		TotalDisks:        binary.LittleEndian.Uint32(buf[16:20]),
	}, nil
}

// ExtraField is one (tag, payload) pair out of a header's extra-field area.
type ExtraField struct {
	Tag     uint16
	Payload []byte
}

// ParseExtraFields walks the tagged (tag u16, size u16, payload) grammar
// shared by local and central-directory headers, bounds-checking each
// payload against the remaining length of buf. A truncated trailing
// field is silently dropped, matching real-world archives that sometimes
// pad the extra area.
func ParseExtraFields(buf []byte) []ExtraField {
	var fields []ExtraField
	for len(buf) >= 4 {
		tag := binary.LittleEndian.Uint16(buf[0:2])
		size := binary.LittleEndian.Uint16(buf[2:4])
		buf = buf[4:]
		if int(size) > len(buf) {
			break
		}
		fields = append(fields, ExtraField{Tag: tag, Payload: buf[:size]})
		buf = buf[size:]
	}
	return fields
}

// Find returns the payload of the first field with the given tag.
func Find(fields []ExtraField, tag uint16) ([]byte, bool) {
	for _, f := range fields {
		if f.Tag == tag {
			return f.Payload, true
		}
	}
	return nil, false
}

const (
	// Zip64ExtraFieldTag identifies the ZIP64 Extended Information extra
	// field (sequence of u64 overrides for sentineled u32 CDH fields).
	Zip64ExtraFieldTag uint16 = 0x0001
	// ExtendedTimestampTag identifies the Info-ZIP Extended Timestamp
	// extra field (u8 flags + up to three u32 epoch-second timestamps).
	ExtendedTimestampTag uint16 = 0x5455
)
