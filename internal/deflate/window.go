// Copyright 2026 The zipread Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package deflate

// windowSize oversizes DEFLATE's mandatory 32 KiB back-reference window to
// 64 KiB so indices can be masked with a single AND rather than bounded
// with a conditional; RFC 1951 only requires 32 KiB of history.
const windowSize = 1 << 16
const windowMask = windowSize - 1

// window is a circular buffer recording every byte produced so far (up to
// its capacity), used to resolve DEFLATE length/distance back-references.
type window struct {
	buf    [windowSize]byte
	cursor uint64 // total bytes ever written
}

// put appends b to the window and returns it.
func (w *window) put(b byte) byte {
	w.buf[w.cursor&windowMask] = b
	w.cursor++
	return b
}

// reput copies the byte written distance bytes ago (distance >= 1) to the
// current position, advancing the cursor, and returns the copied byte.
// Returns an error if the back-reference reaches before byte 0 of the
// produced stream.
func (w *window) reput(distance uint32) (byte, error) {
	if uint64(distance) > w.cursor {
		return 0, &Error{Kind: ErrInvalidDistance, Msg: "distance precedes start of stream"}
	}
	src := (w.cursor - uint64(distance)) & windowMask
	return w.put(w.buf[src]), nil
}
