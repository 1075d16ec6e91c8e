// Copyright 2026 Dolthub, Inc.
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

package stripelog

import (
	"io"

	"github.com/dolthub/stripelog/libraries/utils/filesys"
)

// dataAppender buffers writes to the end of a data file and tracks the offset at which the next byte
// written will land.
type dataAppender struct {
	buf []byte
	wr  filesys.AppendWriter
	// off is the length of the file, not counting |buf|
	off int64
}

var _ io.Writer = &dataAppender{}

func newDataAppender(wr filesys.AppendWriter, offset int64, size int) *dataAppender {
	return &dataAppender{
		buf: make([]byte, 0, size),
		wr:  wr,
		off: offset,
	}
}

func (a *dataAppender) Offset() int64 {
	return a.off + int64(len(a.buf))
}

func (a *dataAppender) Write(p []byte) (n int, err error) {
	if len(p) > cap(a.buf)-len(a.buf) {
		if err = a.Flush(); err != nil {
			return 0, err
		}
	}

	if len(p) > cap(a.buf) {
		// write directly to |a.wr|
		n, err = a.wr.Write(p)
		a.off += int64(n)
		return n, err
	}

	a.buf = append(a.buf, p...)
	return len(p), nil
}

// Flush writes the buffered bytes to the file. The buffer is emptied even if the write fails, in which
// case the file may hold any prefix of it.
func (a *dataAppender) Flush() error {
	if len(a.buf) == 0 {
		return nil
	}

	n, err := a.wr.Write(a.buf)
	a.off += int64(n)
	a.buf = a.buf[:0]
	return err
}

// discard drops the buffered bytes without writing them.
func (a *dataAppender) discard() {
	a.buf = a.buf[:0]
}

func (a *dataAppender) Sync() error {
	if err := a.Flush(); err != nil {
		return err
	}

	return a.wr.Sync()
}

func (a *dataAppender) Close() error {
	err := a.Flush()
	cerr := a.wr.Close()

	if err == nil {
		err = cerr
	}

	return err
}
