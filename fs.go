// Copyright 2026 The zipread Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zipread

import (
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

// FS adapts a, which must have already been opened, as a read-only
// fs.FS. Implicit directories (paths that are a prefix of some member's
// name but have no entry of their own) are synthesized on the fly.
func (a *Archive) FS() fs.FS {
	return &archiveFS{a: a}
}

var (
	_ fs.FS        = (*archiveFS)(nil)
	_ fs.StatFS    = (*archiveFS)(nil)
	_ fs.ReadDirFS = (*archiveFS)(nil)
)

type archiveFS struct {
	a *Archive
}

func (afs *archiveFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	if name == "." || afs.isImplicitDir(name) {
		return &fsDir{afs: afs, name: name}, nil
	}

	fh, ok := afs.a.byName[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	if fh.IsDir() {
		return &fsDir{afs: afs, name: name}, nil
	}

	f, err := afs.a.open(fh, "")
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return &fsFile{f: f}, nil
}

func (afs *archiveFS) Stat(name string) (fs.FileInfo, error) {
	f, err := afs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Stat()
}

func (afs *archiveFS) ReadDir(name string) ([]fs.DirEntry, error) {
	f, err := afs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dir, ok := f.(fs.ReadDirFile)
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	return dir.ReadDir(-1)
}

func (afs *archiveFS) isImplicitDir(name string) bool {
	prefix := name + "/"
	for _, e := range afs.a.entries {
		if strings.HasPrefix(e.name, prefix) {
			return true
		}
	}
	return false
}

// fsFile wraps an open member to satisfy fs.File.
type fsFile struct {
	f *File
}

func (w *fsFile) Stat() (fs.FileInfo, error) { return fileInfoAdapter{w.f.header}, nil }
func (w *fsFile) Read(p []byte) (int, error) { return w.f.Read(p) }
func (w *fsFile) Close() error               { return w.f.Close() }

// fsDir synthesizes a directory entry, real or implicit, to satisfy
// fs.ReadDirFile.
type fsDir struct {
	afs  *archiveFS
	name string
}

func (d *fsDir) Stat() (fs.FileInfo, error) {
	return syntheticDirInfo{name: path.Base(d.name)}, nil
}
func (d *fsDir) Close() error { return nil }
func (d *fsDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *fsDir) ReadDir(n int) ([]fs.DirEntry, error) {
	prefix := d.name
	if prefix == "." {
		prefix = ""
	} else if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	seen := make(map[string]bool)
	var entries []fs.DirEntry
	for _, e := range d.afs.a.entries {
		if !strings.HasPrefix(e.name, prefix) {
			continue
		}
		rel := strings.TrimPrefix(e.name, prefix)
		if rel == "" {
			continue
		}
		parts := strings.SplitN(rel, "/", 2)
		child := parts[0]
		if seen[child] {
			continue
		}
		seen[child] = true

		isDir := len(parts) > 1 || e.isDir
		entries = append(entries, fsDirEntry{name: child, isDir: isDir, info: fileInfoAdapter{e}})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	if n <= 0 {
		return entries, nil
	}
	if len(entries) <= n {
		return entries, io.EOF
	}
	return entries[:n], nil
}

type fileInfoAdapter struct{ fh *FileHeader }

func (i fileInfoAdapter) Name() string       { return path.Base(i.fh.name) }
func (i fileInfoAdapter) Size() int64        { return i.fh.uncompressedSize }
func (i fileInfoAdapter) Mode() fs.FileMode  { return i.fh.mode }
func (i fileInfoAdapter) ModTime() time.Time { return i.fh.lastModified }
func (i fileInfoAdapter) IsDir() bool        { return i.fh.isDir }
func (i fileInfoAdapter) Sys() interface{}   { return nil }

type syntheticDirInfo struct{ name string }

func (s syntheticDirInfo) Name() string       { return s.name }
func (s syntheticDirInfo) Size() int64        { return 0 }
func (s syntheticDirInfo) Mode() fs.FileMode  { return fs.ModeDir | 0755 }
func (s syntheticDirInfo) ModTime() time.Time { return time.Time{} }
func (s syntheticDirInfo) IsDir() bool        { return true }
func (s syntheticDirInfo) Sys() interface{}   { return nil }

type fsDirEntry struct {
	name  string
	isDir bool
	info  fs.FileInfo
}

func (e fsDirEntry) Name() string               { return e.name }
func (e fsDirEntry) IsDir() bool                { return e.isDir }
func (e fsDirEntry) Type() fs.FileMode          { return e.info.Mode().Type() }
func (e fsDirEntry) Info() (fs.FileInfo, error) { return e.info, nil }
