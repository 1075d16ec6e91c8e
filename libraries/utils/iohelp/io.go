// Copyright 2019 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package iohelp

import (
	"errors"
	"io"
)

// ErrShortRead is returned by ReadAtExactly when fewer bytes than requested are available.
var ErrShortRead = errors.New("short read")

// WriteAll will write the entirety of the supplied data to the supplied writer, looping over partial writes
func WriteAll(w io.Writer, data []byte) error {
	for len(data) > 0 {
		n, err := w.Write(data)

		if err != nil {
			return err
		}

		data = data[n:]
	}

	return nil
}

// ReadAtExactly fills |buf| from |r| starting at |off|. A read that ends early returns ErrShortRead,
// even when the underlying reader reported io.EOF.
func ReadAtExactly(r io.ReaderAt, buf []byte, off int64) error {
	n, err := r.ReadAt(buf, off)

	if n == len(buf) {
		return nil
	} else if err == nil || errors.Is(err, io.EOF) {
		return ErrShortRead
	}

	return err
}
