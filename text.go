// Copyright 2026 The zipread Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zipread

import "golang.org/x/text/encoding/charmap"

// decodeName decodes a member name or comment per the general-purpose
// bit flag's UTF-8 marker (bit 11): UTF-8 when set, legacy CP437 (the
// de-facto default codepage for archives that predate the UTF-8 flag)
// otherwise.
func decodeName(raw []byte, flags uint16) string {
	if flags&0x0800 != 0 {
		return string(raw)
	}
	decoded, err := charmap.CodePage437.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
