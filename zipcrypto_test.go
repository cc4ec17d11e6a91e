// Copyright 2026 The zipread Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zipread

import (
	"bytes"
	"io"
	"testing"
)

// encryptZipCryptoForTest produces a ZipCrypto-encrypted payload
// (12-byte header + ciphertext) the way a compliant writer would, purely
// as test fixture construction — this module never writes archives.
func encryptZipCryptoForTest(password string, header [12]byte, plaintext []byte) []byte {
	k := newZipCryptoKeys(password)
	out := make([]byte, 0, 12+len(plaintext))

	encryptByte := func(m byte) byte {
		u := k.k2 | 2
		p := byte((u * (u ^ 1)) >> 8)
		c := m ^ p
		k.update(m)
		return c
	}

	for _, b := range header {
		out = append(out, encryptByte(b))
	}
	for _, b := range plaintext {
		out = append(out, encryptByte(b))
	}
	return out
}

func TestZipCrypto_RoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		plaintext []byte
	}{
		{name: "binary payload", password: "pw", plaintext: []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F}},
		{name: "text payload", password: "correct horse battery staple", plaintext: []byte("the quick brown fox jumps over the lazy dog")},
		{name: "empty payload", password: "pw", plaintext: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s crc32State
			s.update(tt.plaintext)
			crc := s.sum()

			var header [12]byte
			header[11] = byte(crc >> 24)

			ciphertext := encryptZipCryptoForTest(tt.password, header, tt.plaintext)

			r := newZipCryptoReader(bytes.NewReader(ciphertext), tt.password, crc)
			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("decrypt: %v", err)
			}
			if !bytes.Equal(got, tt.plaintext) {
				t.Fatalf("got %x, want %x", got, tt.plaintext)
			}
		})
	}
}

func TestZipCrypto_WrongPassword(t *testing.T) {
	plaintext := []byte("secret payload")
	var s crc32State
	s.update(plaintext)
	crc := s.sum()

	var header [12]byte
	header[11] = byte(crc >> 24)

	ciphertext := encryptZipCryptoForTest("correct", header, plaintext)

	r := newZipCryptoReader(bytes.NewReader(ciphertext), "wrong", crc)
	_, err := io.ReadAll(r)
	// A wrong password must fail, either at the 12-byte header check or
	// (extremely rarely, on a 1-in-256 header collision) by producing
	// garbage payload bytes — this test only asserts the header check.
	if err == nil {
		t.Fatal("expected an error decrypting with the wrong password")
	}
}
