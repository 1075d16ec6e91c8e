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
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

type oneByteWriter struct {
	buf bytes.Buffer
}

func (w *oneByteWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return w.buf.Write(p[:1])
}

func TestWriteAll(t *testing.T) {
	w := &oneByteWriter{}
	err := WriteAll(w, []byte("partial writes are retried"))
	require.NoError(t, err)
	require.Equal(t, "partial writes are retried", w.buf.String())
}

func TestReadAtExactly(t *testing.T) {
	r := bytes.NewReader([]byte("0123456789"))

	buf := make([]byte, 4)
	require.NoError(t, ReadAtExactly(r, buf, 3))
	require.Equal(t, "3456", string(buf))

	buf = make([]byte, 4)
	require.ErrorIs(t, ReadAtExactly(r, buf, 8), ErrShortRead)
	require.ErrorIs(t, ReadAtExactly(r, buf, 20), ErrShortRead)
}
