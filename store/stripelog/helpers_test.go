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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/stripelog/libraries/utils/filesys"
	"github.com/dolthub/stripelog/store/column"
)

type testFS struct {
	fs   filesys.Filesys
	root string
}

func filesystemsToTest(t *testing.T) map[string]testFS {
	return map[string]testFS{
		"inmem": {fs: filesys.EmptyInMemFS("/"), root: "/disk"},
		"local": {fs: filesys.LocalFS, root: t.TempDir()},
	}
}

func testOptions() Options {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	opts := DefaultOptions()
	opts.Logger = logger
	return opts
}

func testNames() Names {
	return Names{Database: "db", Table: "events"}
}

func openTestTable(t *testing.T, tfs testFS, path string, opts Options) *Table {
	tbl, err := Open(context.Background(), tfs.fs, Location{Root: tfs.root, Path: path}, testNames(), opts, false)
	require.NoError(t, err)
	return tbl
}

// makeBlock returns a block of |n| rows whose ids run from |start|.
func makeBlock(start, n int) column.Block {
	ids := make(column.Int64Vector, n)
	names := make(column.StringVector, n)
	scores := make(column.Float64Vector, n)
	even := make(column.BoolVector, n)

	for i := 0; i < n; i++ {
		id := start + i
		ids[i] = int64(id)
		names[i] = fmt.Sprintf("row-%d", id)
		scores[i] = float64(id) * 1.5
		even[i] = id%2 == 0
	}

	return column.NewBlock(
		column.Column{Name: "id", Data: ids},
		column.Column{Name: "name", Data: names},
		column.Column{Name: "score", Data: scores},
		column.Column{Name: "even", Data: even},
	)
}

// writeStripes writes one stripe per entry of |sizes| and returns the total number of rows written. Row
// ids continue from |start|.
func writeStripes(t *testing.T, tbl *Table, start int, sizes ...int) int {
	ctx := context.Background()
	w, err := tbl.Write(ctx)
	require.NoError(t, err)

	total := 0
	for _, n := range sizes {
		require.NoError(t, w.Write(ctx, makeBlock(start+total, n)))
		total += n
	}

	require.NoError(t, w.Close(ctx))
	return total
}

func blockIDs(t *testing.T, b column.Block) []int64 {
	col, ok := b.ColumnByName("id")
	require.True(t, ok)
	return []int64(col.Data.(column.Int64Vector))
}

// readIDs reads the table with |numStreams| streams and returns the ids of every row, streams in order.
func readIDs(t *testing.T, tbl *Table, numStreams int) []int64 {
	ctx := context.Background()
	streams, err := tbl.Read(ctx, nil, numStreams, 0)
	require.NoError(t, err)

	results, err := ReadAll(ctx, streams)
	require.NoError(t, err)

	var ids []int64
	for _, blocks := range results {
		for _, b := range blocks {
			ids = append(ids, blockIDs(t, b)...)
		}
	}

	return ids
}

func seq(start, n int) []int64 {
	if n == 0 {
		return nil
	}

	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(start + i)
	}

	return ids
}

func shrinkFile(t *testing.T, fs filesys.Filesys, path string, by int) {
	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, fs.WriteFile(path, data[:len(data)-by], os.ModePerm))
}

var errInjected = errors.New("injected write failure")

// faultyFS is an in memory filesystem whose append writers fail once they have accepted |budget| bytes.
// A negative budget never fails. WriteFile fails for files named |failWrite|.
type faultyFS struct {
	*filesys.InMemFS

	mu        sync.Mutex
	budget    int64
	failWrite string
}

func newFaultyFS() *faultyFS {
	return &faultyFS{InMemFS: filesys.EmptyInMemFS("/"), budget: -1}
}

func (fs *faultyFS) setBudget(budget int64) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.budget = budget
}

func (fs *faultyFS) setFailWrite(name string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.failWrite = name
}

func (fs *faultyFS) WriteFile(fp string, data []byte, perm os.FileMode) error {
	fs.mu.Lock()
	fail := fs.failWrite != "" && filepath.Base(fp) == fs.failWrite
	fs.mu.Unlock()

	if fail {
		return errInjected
	}

	return fs.InMemFS.WriteFile(fp, data, perm)
}

func (fs *faultyFS) OpenForWriteAppend(fp string, perm os.FileMode) (filesys.AppendWriter, error) {
	wr, err := fs.InMemFS.OpenForWriteAppend(fp, perm)
	if err != nil {
		return nil, err
	}

	return &faultyWriter{AppendWriter: wr, fs: fs}, nil
}

type faultyWriter struct {
	filesys.AppendWriter
	fs *faultyFS
}

func (w *faultyWriter) Write(p []byte) (int, error) {
	w.fs.mu.Lock()
	defer w.fs.mu.Unlock()

	if w.fs.budget < 0 || int64(len(p)) <= w.fs.budget {
		if w.fs.budget >= 0 {
			w.fs.budget -= int64(len(p))
		}
		return w.AppendWriter.Write(p)
	}

	n, err := w.AppendWriter.Write(p[:w.fs.budget])
	w.fs.budget = 0
	if err != nil {
		return n, err
	}

	return n, errInjected
}

func tablePath(tbl *Table, name string) string {
	return filepath.Join(tbl.Location().Dir(), name)
}
