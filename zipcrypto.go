// Copyright 2026 The zipread Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zipread

import (
	"io"
)

// zipCryptoKeys holds the traditional PKWARE stream cipher's three
// 32-bit keys and the update/decrypt operations defined by APPNOTE.
type zipCryptoKeys struct {
	k0, k1, k2 uint32
}

const zipCryptoKeyUpdateMultiplier = 134775813

func newZipCryptoKeys(password string) *zipCryptoKeys {
	k := &zipCryptoKeys{k0: 305419896, k1: 591751049, k2: 878082192}
	for i := 0; i < len(password); i++ {
		k.update(password[i])
	}
	return k
}

func (k *zipCryptoKeys) update(c byte) {
	k.k0 = crc32Table[byte(k.k0)^c] ^ (k.k0 >> 8)
	k.k1 = (k.k1+uint32(byte(k.k0)))*zipCryptoKeyUpdateMultiplier + 1
	k.k2 = crc32Table[byte(k.k2)^byte(k.k1>>24)] ^ (k.k2 >> 8)
}

// decryptByte decrypts one ciphertext byte and folds the resulting
// plaintext byte into the key schedule.
func (k *zipCryptoKeys) decryptByte(b byte) byte {
	u := k.k2 | 2
	p := byte((u * (u ^ 1)) >> 8)
	plain := b ^ p
	k.update(plain)
	return plain
}

// zipCryptoHeaderSize is the length, in bytes, of the encryption header
// that precedes a ZipCrypto-encrypted member's payload.
const zipCryptoHeaderSize = 12

// zipCryptoReader decrypts a ZipCrypto-encrypted member stream. The first
// Read consumes and validates the 12-byte encryption header before any
// plaintext payload byte is returned.
type zipCryptoReader struct {
	src        io.Reader
	keys       *zipCryptoKeys
	crc32High  byte
	headerRead bool
}

func newZipCryptoReader(src io.Reader, password string, crc uint32) *zipCryptoReader {
	return &zipCryptoReader{
		src:       src,
		keys:      newZipCryptoKeys(password),
		crc32High: byte(crc >> 24),
	}
}

func (r *zipCryptoReader) Read(p []byte) (int, error) {
	if !r.headerRead {
		if err := r.readHeader(); err != nil {
			return 0, err
		}
	}
	n, err := r.src.Read(p)
	for i := 0; i < n; i++ {
		p[i] = r.keys.decryptByte(p[i])
	}
	return n, err
}

func (r *zipCryptoReader) readHeader() error {
	var header [zipCryptoHeaderSize]byte
	if _, err := io.ReadFull(r.src, header[:]); err != nil {
		return wrapError(ErrShortRead, "read zipcrypto header", err)
	}
	var check byte
	for i, b := range header {
		p := r.keys.decryptByte(b)
		if i == zipCryptoHeaderSize-1 {
			check = p
		}
	}
	r.headerRead = true
	if check != r.crc32High {
		return newError(ErrBadPassword, "zipread: zipcrypto header check failed")
	}
	return nil
}
