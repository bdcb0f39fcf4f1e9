// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

// inflate decompresses one zlib-compressed gateway message. With
// payload compression each binary message is a self-contained zlib
// stream.
func inflate(message []byte) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(message))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
