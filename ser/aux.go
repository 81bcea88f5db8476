// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ser

import goio "io"

func goioReadFull(r goio.Reader, b []byte) (int, error) {
	return goio.ReadFull(r, b)
}

// byteReaderFn adapts a read-one-byte closure to io.ByteReader for varint decoding
type byteReaderFn func() (byte, error)

func (f byteReaderFn) ReadByte() (byte, error) { return f() }
