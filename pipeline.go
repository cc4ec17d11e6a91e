// Copyright 2026 The zipread Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zipread

import (
	"compress/bzip2"
	"io"

	"github.com/halden/zipread/internal/deflate"
	"github.com/halden/zipread/internal/wire"
)

// chunkSize bounds how many bytes the chunker wrapper pulls from its
// inner layer per caller request, so every downstream layer operates on
// bounded 32-bit sizes regardless of how large a single Read call asks
// for.
const chunkSize = 1 << 30 // 1 GiB

// openPipeline builds the composed pull chain for one member: raw bounded
// read, optional ZipCrypto decryption, decompression, running CRC-32
// validation, and a final size-chunked wrapper. Each layer wraps the
// previous with exclusive, sequential ownership; nothing here is safe for
// concurrent use by more than one caller.
func openPipeline(src Source, fh *FileHeader, password string) (io.ReadCloser, error) {
	section := io.NewSectionReader(src, fh.localHeaderOffset, src.Size()-fh.localHeaderOffset)
	lfh, err := wire.ReadLocalFileHeader(section)
	if err != nil {
		return nil, wrapError(ErrLocalHeaderMismatch, "read local file header", err)
	}
	if lfh.Signature != wire.LocalFileHeaderSignature {
		return nil, newError(ErrLocalHeaderMismatch, "bad local file header signature")
	}

	dataOffset := fh.localHeaderOffset + lfh.HeaderSize()
	var r io.Reader = newBoundedSectionReader(src, dataOffset, fh.compressedSize)

	if fh.Encrypted() {
		if password == "" {
			return nil, newError(ErrBadPassword, "member is encrypted but no password was supplied")
		}
		r = newZipCryptoReader(r, password, fh.crc32)
	}

	switch fh.compressionMethod {
	case Stored:
		// identity
	case Deflate:
		r = deflate.NewReader(r)
	case Bzip2:
		r = bzip2.NewReader(r)
	default:
		return nil, newError(ErrUnsupportedCompression, "unsupported compression method")
	}

	r = &deflateErrorTranslator{src: r}
	r = &crcValidatingReader{src: r, want: fh.crc32, remaining: fh.uncompressedSize}
	r = &chunkingReader{src: r, limit: chunkSize}

	return &memberReader{r: r}, nil
}

// deflateErrorTranslator maps *deflate.Error values surfacing from the
// DEFLATE decoder into this package's own ErrorKind taxonomy.
type deflateErrorTranslator struct {
	src io.Reader
}

func (t *deflateErrorTranslator) Read(p []byte) (int, error) {
	n, err := t.src.Read(p)
	if de, ok := err.(*deflate.Error); ok {
		return n, wrapError(translateDeflateKind(de.Kind), de.Msg, de)
	}
	return n, err
}

func translateDeflateKind(k deflate.Kind) ErrorKind {
	switch k {
	case deflate.ErrInvalidHuffmanCode:
		return ErrInvalidHuffmanCode
	case deflate.ErrInvalidCodeLengths:
		return ErrInvalidCodeLengths
	case deflate.ErrInvalidStoredBlock:
		return ErrInvalidStoredBlock
	case deflate.ErrInvalidBlockType:
		return ErrInvalidBlockType
	case deflate.ErrInvalidDistance:
		return ErrInvalidDistance
	case deflate.ErrInvalidAlphabet:
		return ErrInvalidAlphabet
	default:
		return ErrUnknown
	}
}

// crcValidatingReader tracks a running CRC-32 over every byte it passes
// through, and the count of uncompressed bytes still owed to the caller.
// The checksum is verified once the last expected byte has been
// delivered.
type crcValidatingReader struct {
	src       io.Reader
	state     crc32State
	want      uint32
	remaining int64
	finalized bool
}

func (c *crcValidatingReader) Read(p []byte) (int, error) {
	if c.remaining <= 0 {
		return 0, c.finalize()
	}
	// Cap the request at remaining+1 rather than remaining: reading one
	// byte past the declared uncompressed size lets an inner layer that
	// keeps producing data past that point be caught as ErrSizeMismatch,
	// instead of being silently truncated by a tighter cap.
	limit := c.remaining + 1
	if int64(len(p)) > limit {
		p = p[:limit]
	}
	n, err := c.src.Read(p)
	if int64(n) > c.remaining {
		return 0, newError(ErrSizeMismatch, "decompressed stream exceeded the declared uncompressed size")
	}
	if n > 0 {
		c.state.update(p[:n])
		c.remaining -= int64(n)
	}
	if n == 0 && err == nil {
		return 0, newError(ErrShortRead, "decompression layer made no progress")
	}
	if err == io.EOF && c.remaining > 0 {
		return n, newError(ErrShortRead, "stream ended before declared uncompressed size was reached")
	}
	if c.remaining == 0 {
		if ferr := c.finalize(); ferr != nil && ferr != io.EOF {
			return n, ferr
		}
	}
	return n, err
}

// finalize verifies the running CRC-32 against the expected value exactly
// once, the first time remaining reaches zero (including the case of a
// zero-length member, verified on its very first call). Subsequent calls
// just report io.EOF.
func (c *crcValidatingReader) finalize() error {
	if c.finalized {
		return io.EOF
	}
	c.finalized = true
	if c.state.sum() != c.want {
		return newError(ErrCrcMismatch, "crc-32 mismatch")
	}
	return io.EOF
}

// chunkingReader splits any single caller request larger than limit into
// successive inner reads, so layers beneath it never have to reason about
// requests wider than a bounded 32-bit size.
type chunkingReader struct {
	src   io.Reader
	limit int
}

func (c *chunkingReader) Read(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		chunk := p
		if len(chunk) > c.limit {
			chunk = chunk[:c.limit]
		}
		n, err := c.src.Read(chunk)
		total += n
		p = p[n:]
		if err != nil || n < len(chunk) {
			return total, err
		}
	}
	return total, nil
}

// memberReader is the outermost handle returned to callers: an io.Reader
// plus a no-op io.Closer, since nothing in the pipeline owns a resource
// that outlives the archive's Source.
type memberReader struct {
	r io.Reader
}

func (m *memberReader) Read(p []byte) (int, error) { return m.r.Read(p) }
func (m *memberReader) Close() error                { return nil }
