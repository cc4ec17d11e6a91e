// Copyright 2026 The zipread Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package zipread is a streaming reader for the ZIP archive container. It
// opens a ZIP file presented as a random-access byte source, parses its
// directory, and exposes each contained member as an independently
// readable byte stream whose compressed payload is inflated on demand and
// validated against the archive's integrity fields.
//
// Archive creation, archive modification, split/multi-disk archives,
// AES/strong encryption, and digital signatures are out of scope: this
// package only reads.
package zipread

import (
	"os"
)

// Archive holds a ZIP file's parsed directory and constructs read
// pipelines for its members on demand. An Archive is safe to use from
// multiple goroutines as long as its Source is; each File opened from it
// owns an independent cursor.
type Archive struct {
	src     Source
	entries []*FileHeader
	byName  map[string]*FileHeader
}

// OpenReader parses the ZIP directory found in src, a random-access byte
// source that reports its own total size.
func OpenReader(src Source) (*Archive, error) {
	entries, err := readDirectory(src)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*FileHeader, len(entries))
	for _, e := range entries {
		if _, exists := byName[e.name]; !exists {
			byName[e.name] = e
		}
	}

	return &Archive{src: src, entries: entries, byName: byName}, nil
}

// OpenFile opens the named file on disk and parses it as a ZIP archive.
// This is the one "opening the underlying source" convenience this
// package allows itself — it adds no parsing logic beyond stat'ing the
// file and handing it to OpenReader.
func OpenFile(name string) (*Archive, func() error, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, wrapError(ErrSourceIoError, "open archive file", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, wrapError(ErrSourceIoError, "stat archive file", err)
	}

	archive, err := OpenReader(NewSource(f, info.Size()))
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return archive, f.Close, nil
}

// Files returns every member's normalized header, in central-directory
// order. The returned slice must not be modified.
func (a *Archive) Files() []*FileHeader {
	return a.entries
}

// Open opens the first member whose name equals the given path.
func (a *Archive) Open(name string) (*File, error) {
	return a.OpenEncrypted(name, "")
}

// OpenEncrypted opens the first member whose name equals the given path,
// using password to derive the ZipCrypto key if the member is encrypted.
func (a *Archive) OpenEncrypted(name, password string) (*File, error) {
	fh, ok := a.byName[name]
	if !ok {
		return nil, newError(ErrNoSuchMember, "no member named "+name)
	}
	return a.open(fh, password)
}

// OpenAt opens the member at the given index into Files(), bounds-checked.
func (a *Archive) OpenAt(index int) (*File, error) {
	if index < 0 || index >= len(a.entries) {
		return nil, newError(ErrNoSuchMember, "member index out of range")
	}
	return a.open(a.entries[index], "")
}

func (a *Archive) open(fh *FileHeader, password string) (*File, error) {
	rc, err := openPipeline(a.src, fh, password)
	if err != nil {
		return nil, err
	}
	return &File{header: fh, rc: rc}, nil
}

// File is an active read handle for one member. It owns the underlying
// pipeline and refers to the member's immutable header, shared with the
// Archive; it is not safe for
// concurrent use, but independent File handles over the same Archive may
// be read in parallel as long as the Archive's Source is positional-safe.
type File struct {
	header *FileHeader
	rc     interface {
		Read(p []byte) (int, error)
		Close() error
	}
}

// Header returns the member's normalized directory entry.
func (f *File) Header() *FileHeader { return f.header }

func (f *File) Read(p []byte) (int, error) { return f.rc.Read(p) }

// Close releases the pipeline's resources. It does not close the
// Archive's underlying Source, which may be shared by other File handles.
func (f *File) Close() error { return f.rc.Close() }
