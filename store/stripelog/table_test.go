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
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dolthub/stripelog/store/column"
)

func TestWriteThenReadInWriteOrder(t *testing.T) {
	for name, tfs := range filesystemsToTest(t) {
		t.Run(name, func(t *testing.T) {
			tbl := openTestTable(t, tfs, "db/events", testOptions())
			defer tbl.Close()

			total := writeStripes(t, tbl, 0, 10, 1, 250, 3)
			total += writeStripes(t, tbl, total, 40, 7)

			assert.Equal(t, seq(0, total), readIDs(t, tbl, 1))

			ctx := context.Background()
			streams, err := tbl.Read(ctx, nil, 1, 0)
			require.NoError(t, err)
			require.Len(t, streams, 1)

			b, err := streams[0].Next(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"id", "name", "score", "even"}, b.Names())
			assert.Equal(t, makeBlock(0, 10), b)
			streams[0].Close()
		})
	}
}

func TestStreamPartitioning(t *testing.T) {
	tfs := filesystemsToTest(t)["inmem"]
	tbl := openTestTable(t, tfs, "db/events", testOptions())
	defer tbl.Close()

	sizes := []int{5, 1, 9, 2, 2, 30, 4}
	total := writeStripes(t, tbl, 0, sizes...)
	ctx := context.Background()

	for n := -1; n <= 10; n++ {
		streams, err := tbl.Read(ctx, nil, n, 0)
		require.NoError(t, err)
		assert.Len(t, streams, max(1, min(n, len(sizes))), "requested %d streams", n)

		results, err := ReadAll(ctx, streams)
		require.NoError(t, err)

		var ids []int64
		for _, blocks := range results {
			assert.NotEmpty(t, blocks, "requested %d streams", n)
			for _, b := range blocks {
				ids = append(ids, blockIDs(t, b)...)
			}
		}

		assert.Equal(t, seq(0, total), ids, "requested %d streams", n)
	}
}

func TestPartitionStripes(t *testing.T) {
	for records := 1; records < 20; records++ {
		for streams := 1; streams < 25; streams++ {
			ranges := partitionStripes(records, streams)
			require.Len(t, ranges, min(records, streams))

			next := 0
			for _, r := range ranges {
				assert.Equal(t, next, r.start)
				assert.Greater(t, r.end, r.start)
				assert.LessOrEqual(t, r.end-r.start, records/len(ranges)+1)
				next = r.end
			}
			assert.Equal(t, records, next)
		}
	}

	assert.Empty(t, partitionStripes(0, 4))
}

func TestEmptyTable(t *testing.T) {
	for name, tfs := range filesystemsToTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tbl := openTestTable(t, tfs, "db/empty", testOptions())
			defer tbl.Close()

			streams, err := tbl.Read(ctx, nil, 4, 0)
			require.NoError(t, err)
			assert.Empty(t, streams)

			require.NoError(t, tbl.Truncate(ctx))
			require.NoError(t, tbl.Truncate(ctx))

			results, err := tbl.CheckData(ctx)
			require.NoError(t, err)
			assert.True(t, results.Passed())

			// a session without blocks still finalizes
			w, err := tbl.Write(ctx)
			require.NoError(t, err)
			require.NoError(t, w.Close(ctx))

			stats, err := tbl.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, Stats{}, stats)
		})
	}
}

func TestTruncateThenCheck(t *testing.T) {
	for name, tfs := range filesystemsToTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tbl := openTestTable(t, tfs, "db/events", testOptions())
			defer tbl.Close()

			writeStripes(t, tbl, 0, 100, 100)
			require.NoError(t, tbl.Truncate(ctx))

			results, err := tbl.CheckData(ctx)
			require.NoError(t, err)
			require.Len(t, results, 2)
			for _, r := range results {
				assert.True(t, r.Success, r.File)
				assert.Equal(t, int64(0), r.Expected, r.File)
				assert.Equal(t, int64(0), r.Actual, r.File)
			}

			assert.Empty(t, readIDs(t, tbl, 3))

			// the table is usable after a truncate
			writeStripes(t, tbl, 0, 5)
			assert.Equal(t, seq(0, 5), readIDs(t, tbl, 3))
		})
	}
}

func TestFailedTruncateKeepsTableReadable(t *testing.T) {
	ctx := context.Background()

	t.Run("index write fails", func(t *testing.T) {
		fs := newFaultyFS()
		tbl, err := Open(ctx, fs, Location{Root: "/disk", Path: "db/events"}, testNames(), testOptions(), false)
		require.NoError(t, err)
		defer tbl.Close()

		writeStripes(t, tbl, 0, 20, 20)

		fs.setFailWrite(indexFileName)
		require.ErrorIs(t, tbl.Truncate(ctx), errInjected)
		fs.setFailWrite("")

		// nothing was changed
		assert.Equal(t, seq(0, 40), readIDs(t, tbl, 2))
		results, err := tbl.CheckData(ctx)
		require.NoError(t, err)
		assert.True(t, results.Passed())
	})

	t.Run("data write fails", func(t *testing.T) {
		fs := newFaultyFS()
		tbl, err := Open(ctx, fs, Location{Root: "/disk", Path: "db/events"}, testNames(), testOptions(), false)
		require.NoError(t, err)
		defer tbl.Close()

		writeStripes(t, tbl, 0, 20, 20)

		fs.setFailWrite(dataFileName)
		require.ErrorIs(t, tbl.Truncate(ctx), errInjected)
		fs.setFailWrite("")

		// the index was emptied, so the table reads as empty and the check reports the half done truncate
		assert.Empty(t, readIDs(t, tbl, 2))
		results, err := tbl.CheckData(ctx)
		require.NoError(t, err)
		assert.False(t, results.Passed())

		require.NoError(t, tbl.Truncate(ctx))
		results, err = tbl.CheckData(ctx)
		require.NoError(t, err)
		assert.True(t, results.Passed())
	})
}

func TestCheckDataDetectsShortDataFile(t *testing.T) {
	for name, tfs := range filesystemsToTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tbl := openTestTable(t, tfs, "db/events", testOptions())
			defer tbl.Close()

			writeStripes(t, tbl, 0, 100, 20)

			results, err := tbl.CheckData(ctx)
			require.NoError(t, err)
			assert.True(t, results.Passed())

			shrinkFile(t, tfs.fs, tablePath(tbl, dataFileName), 1)

			results, err = tbl.CheckData(ctx)
			require.NoError(t, err)
			assert.False(t, results.Passed())

			failures := results.Failures()
			require.Len(t, failures, 1)
			assert.Equal(t, dataFileName, failures[0].File)
			assert.Equal(t, int64(-1), failures[0].Delta())

			idx, ok := results.Get(indexFileName)
			require.True(t, ok)
			assert.True(t, idx.Success)
		})
	}
}

func TestReadPastEndOfDataFile(t *testing.T) {
	ctx := context.Background()
	tfs := filesystemsToTest(t)["inmem"]
	tbl := openTestTable(t, tfs, "db/events", testOptions())
	defer tbl.Close()

	writeStripes(t, tbl, 0, 100, 100)
	shrinkFile(t, tfs.fs, tablePath(tbl, dataFileName), 1)

	streams, err := tbl.Read(ctx, nil, 1, 0)
	require.NoError(t, err)
	defer CloseStreams(streams)

	_, err = streams[0].Next(ctx)
	require.NoError(t, err)

	_, err = streams[0].Next(ctx)
	require.Error(t, err)
	assert.True(t, ErrStripeOutOfBounds.Is(err), err.Error())
}

func TestRename(t *testing.T) {
	for name, tfs := range filesystemsToTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tbl := openTestTable(t, tfs, "db/events", testOptions())
			defer tbl.Close()

			total := writeStripes(t, tbl, 0, 10, 20, 30)
			oldLoc := tbl.Location()

			require.NoError(t, tbl.Rename(ctx, "archive/events_old", "archive", "events_old"))

			newLoc := Location{Root: tfs.root, Path: "archive/events_old"}
			assert.Equal(t, newLoc, tbl.Location())
			assert.Equal(t, Names{Database: "archive", Table: "events_old"}, tbl.Names())

			dirs := tbl.DataPaths()
			require.Len(t, dirs, 1)
			abs, err := tfs.fs.Abs(newLoc.Dir())
			require.NoError(t, err)
			assert.Equal(t, abs, dirs[0])

			// the old location no longer holds a table
			exists, _ := tfs.fs.Exists(oldLoc.Dir())
			assert.False(t, exists)
			_, err = Open(ctx, tfs.fs, oldLoc, testNames(), testOptions(), true)
			require.Error(t, err)
			assert.True(t, ErrTableNotFound.Is(err))

			// the renamed table still has its data and is writable
			assert.Equal(t, seq(0, total), readIDs(t, tbl, 2))
			results, err := tbl.CheckData(ctx)
			require.NoError(t, err)
			assert.True(t, results.Passed())

			total += writeStripes(t, tbl, total, 5)

			attached, err := Open(ctx, tfs.fs, newLoc, Names{Database: "archive", Table: "events_old"}, testOptions(), true)
			require.NoError(t, err)
			defer attached.Close()
			assert.Equal(t, seq(0, total), readIDs(t, attached, 1))
		})
	}
}

func TestRenameToExistingLocationFails(t *testing.T) {
	ctx := context.Background()
	tfs := filesystemsToTest(t)["inmem"]

	tbl := openTestTable(t, tfs, "db/events", testOptions())
	defer tbl.Close()
	other := openTestTable(t, tfs, "db/other", testOptions())
	defer other.Close()

	writeStripes(t, tbl, 0, 10)

	err := tbl.Rename(ctx, "db/other", "db", "other")
	require.Error(t, err)
	assert.True(t, ErrTableExists.Is(err))

	assert.Equal(t, Location{Root: tfs.root, Path: "db/events"}, tbl.Location())
	assert.Equal(t, testNames(), tbl.Names())
	assert.Equal(t, seq(0, 10), readIDs(t, tbl, 1))
}

func TestConcurrentReaders(t *testing.T) {
	for name, tfs := range filesystemsToTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tbl := openTestTable(t, tfs, "db/events", testOptions())
			defer tbl.Close()

			total := writeStripes(t, tbl, 0, 100, 37, 512, 1, 64, 200)

			const readers = 8
			results := make([][]int64, readers)

			eg, ctx := errgroup.WithContext(ctx)
			for i := 0; i < readers; i++ {
				eg.Go(func() error {
					streams, err := tbl.Read(ctx, nil, i+1, 0)
					if err != nil {
						return err
					}

					blocks, err := ReadAll(ctx, streams)
					if err != nil {
						return err
					}

					for _, bs := range blocks {
						for _, b := range bs {
							col, _ := b.ColumnByName("id")
							results[i] = append(results[i], col.Data.(column.Int64Vector)...)
						}
					}

					return nil
				})
			}

			require.NoError(t, eg.Wait())
			for i := range results {
				assert.Equal(t, seq(0, total), results[i], "reader %d", i)
			}
		})
	}
}

func TestReadersWaitForWriter(t *testing.T) {
	ctx := context.Background()
	tfs := filesystemsToTest(t)["inmem"]
	tbl := openTestTable(t, tfs, "db/events", testOptions())
	defer tbl.Close()

	w, err := tbl.Write(ctx)
	require.NoError(t, err)
	require.NoError(t, w.Write(ctx, makeBlock(0, 50)))

	const readers = 6
	results := make([][]int64, readers)
	eg := &errgroup.Group{}
	for i := 0; i < readers; i++ {
		eg.Go(func() error {
			streams, err := tbl.Read(ctx, []string{"id"}, 2, 0)
			if err != nil {
				return err
			}

			blocks, err := ReadAll(ctx, streams)
			if err != nil {
				return err
			}

			for _, bs := range blocks {
				for _, b := range bs {
					col, _ := b.ColumnByName("id")
					results[i] = append(results[i], col.Data.(column.Int64Vector)...)
				}
			}

			return nil
		})
	}

	require.NoError(t, w.Write(ctx, makeBlock(50, 50)))
	require.NoError(t, w.Write(ctx, makeBlock(100, 50)))
	require.NoError(t, w.Close(ctx))

	require.NoError(t, eg.Wait())
	for i := range results {
		assert.Equal(t, seq(0, 150), results[i], "reader %d", i)
	}
}

func TestNamesDoNotWaitForTable(t *testing.T) {
	ctx := context.Background()
	tfs := filesystemsToTest(t)["inmem"]
	tbl := openTestTable(t, tfs, "db/events", testOptions())
	defer tbl.Close()

	writeStripes(t, tbl, 0, 10, 10)

	streams, err := tbl.Read(ctx, nil, 2, 0)
	require.NoError(t, err)

	// queue a writer behind the open streams
	writerDone := make(chan error, 1)
	go func() {
		w, err := tbl.Write(ctx)
		if err == nil {
			err = w.Close(ctx)
		}
		writerDone <- err
	}()
	time.Sleep(50 * time.Millisecond)

	identDone := make(chan struct{})
	go func() {
		defer close(identDone)
		assert.Equal(t, testNames(), tbl.Names())
		assert.Equal(t, "db/events", tbl.Location().Path)
		assert.Len(t, tbl.DataPaths(), 1)
	}()

	select {
	case <-identDone:
	case <-time.After(5 * time.Second):
		require.Fail(t, "table identity blocked behind a queued writer")
	}

	CloseStreams(streams)
	require.NoError(t, <-writerDone)
}

func TestClosingStreamsReleasesTable(t *testing.T) {
	ctx := context.Background()
	tfs := filesystemsToTest(t)["inmem"]
	tbl := openTestTable(t, tfs, "db/events", testOptions())
	defer tbl.Close()

	writeStripes(t, tbl, 0, 10, 10, 10)

	streams, err := tbl.Read(ctx, nil, 2, 0)
	require.NoError(t, err)
	require.Len(t, streams, 2)

	// drain the first, abandon the second
	for {
		_, err := streams[0].Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	_, err = streams[1].Next(ctx)
	require.NoError(t, err)
	streams[1].Close()
	streams[1].Close()

	// an exhausted stream stays at EOF, a stream closed early reports it was closed
	_, err = streams[0].Next(ctx)
	assert.Equal(t, io.EOF, err)
	_, err = streams[1].Next(ctx)
	assert.ErrorIs(t, err, ErrStreamClosed)

	// would block forever if a stream still held the table
	writeStripes(t, tbl, 30, 10)
	assert.Equal(t, seq(0, 40), readIDs(t, tbl, 4))
}

func TestReadColumns(t *testing.T) {
	ctx := context.Background()
	tfs := filesystemsToTest(t)["inmem"]
	tbl := openTestTable(t, tfs, "db/events", testOptions())
	defer tbl.Close()

	writeStripes(t, tbl, 0, 10, 10)

	streams, err := tbl.Read(ctx, []string{"name", "missing", "id"}, 1, 0)
	require.NoError(t, err)
	results, err := ReadAll(ctx, streams)
	require.NoError(t, err)
	require.Len(t, results[0], 2)
	for _, b := range results[0] {
		assert.Equal(t, []string{"name", "id"}, b.Names())
		assert.Equal(t, 10, b.NumRows())
	}

	// stripes without any requested column are skipped
	streams, err = tbl.Read(ctx, []string{"missing"}, 2, 0)
	require.NoError(t, err)
	results, err = ReadAll(ctx, streams)
	require.NoError(t, err)
	for _, blocks := range results {
		assert.Empty(t, blocks)
	}
}

func TestReadMaxBlockRows(t *testing.T) {
	ctx := context.Background()
	tfs := filesystemsToTest(t)["inmem"]
	tbl := openTestTable(t, tfs, "db/events", testOptions())
	defer tbl.Close()

	writeStripes(t, tbl, 0, 10, 2)

	streams, err := tbl.Read(ctx, nil, 1, 3)
	require.NoError(t, err)
	results, err := ReadAll(ctx, streams)
	require.NoError(t, err)

	var sizes []int
	var ids []int64
	for _, b := range results[0] {
		sizes = append(sizes, b.NumRows())
		ids = append(ids, blockIDs(t, b)...)
	}

	assert.Equal(t, []int{3, 3, 3, 1, 2}, sizes)
	assert.Equal(t, seq(0, 12), ids)
}

func TestFailedWriteLeavesUnindexedBytes(t *testing.T) {
	ctx := context.Background()
	fs := newFaultyFS()
	loc := Location{Root: "/disk", Path: "db/events"}

	tbl, err := Open(ctx, fs, loc, testNames(), testOptions(), false)
	require.NoError(t, err)
	defer tbl.Close()

	w, err := tbl.Write(ctx)
	require.NoError(t, err)
	require.NoError(t, w.Write(ctx, makeBlock(0, 20)))

	fs.setBudget(10)
	err = w.Write(ctx, makeBlock(20, 20))
	require.ErrorIs(t, err, errInjected)

	// the session accepts nothing more, but still finalizes what was written
	assert.ErrorIs(t, w.Write(ctx, makeBlock(40, 20)), errInjected)
	require.NoError(t, w.Close(ctx))
	assert.ErrorIs(t, w.Write(ctx, makeBlock(40, 20)), ErrWriterClosed)

	fs.setBudget(-1)

	results, err := tbl.CheckData(ctx)
	require.NoError(t, err)

	failures := results.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, dataFileName, failures[0].File)
	assert.Equal(t, int64(10), failures[0].Delta())

	assert.Equal(t, seq(0, 20), readIDs(t, tbl, 2))
}

func TestWriterLifecycle(t *testing.T) {
	ctx := context.Background()
	tfs := filesystemsToTest(t)["inmem"]
	tbl := openTestTable(t, tfs, "db/events", testOptions())
	defer tbl.Close()

	w, err := tbl.Write(ctx)
	require.NoError(t, err)

	// invalid and empty blocks don't poison the session
	bad := column.NewBlock(
		column.Column{Name: "id", Data: column.Int64Vector{1, 2}},
		column.Column{Name: "name", Data: column.StringVector{"a"}},
	)
	assert.ErrorIs(t, w.Write(ctx, bad), column.ErrInvalidBlock)
	require.NoError(t, w.Write(ctx, makeBlock(0, 0)))
	require.NoError(t, w.Write(ctx, makeBlock(0, 5)))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, w.Write(canceled, makeBlock(5, 5)), context.Canceled)

	require.NoError(t, w.Close(ctx))
	require.NoError(t, w.Close(ctx))

	stats, err := tbl.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Stripes)
	assert.Equal(t, uint64(5), stats.Rows)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	tfs := filesystemsToTest(t)["inmem"]
	tbl := openTestTable(t, tfs, "db/events", testOptions())
	defer tbl.Close()

	total := writeStripes(t, tbl, 0, 10, 20, 30)

	stats, err := tbl.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Stripes)
	assert.Equal(t, uint64(total), stats.Rows)
	assert.Equal(t, []string{"id", "name", "score", "even"}, stats.Columns)
	assert.Equal(t, []column.Kind{column.Int64Kind, column.StringKind, column.Float64Kind, column.BoolKind}, stats.Kinds)

	dataSz, err := tfs.fs.Size(tablePath(tbl, dataFileName))
	require.NoError(t, err)
	assert.Equal(t, dataSz, stats.DataSize)

	indexSz, err := tfs.fs.Size(tablePath(tbl, indexFileName))
	require.NoError(t, err)
	assert.Equal(t, indexSz, stats.IndexSize)
}

func TestCorruptIndex(t *testing.T) {
	ctx := context.Background()
	tfs := filesystemsToTest(t)["inmem"]
	tbl := openTestTable(t, tfs, "db/events", testOptions())
	defer tbl.Close()

	writeStripes(t, tbl, 0, 10, 10)
	shrinkFile(t, tfs.fs, tablePath(tbl, indexFileName), 3)

	_, err := tbl.Read(ctx, nil, 1, 0)
	require.Error(t, err)
	assert.True(t, ErrCorruptIndex.Is(err))

	_, err = tbl.Write(ctx)
	require.Error(t, err)
	assert.True(t, ErrCorruptIndex.Is(err))

	// truncate recovers the table
	require.NoError(t, tbl.Truncate(ctx))
	writeStripes(t, tbl, 0, 3)
	assert.Equal(t, seq(0, 3), readIDs(t, tbl, 1))
}

func TestDrop(t *testing.T) {
	for name, tfs := range filesystemsToTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tbl := openTestTable(t, tfs, "db/events", testOptions())
			writeStripes(t, tbl, 0, 10)

			require.NoError(t, tbl.Drop(ctx))
			exists, _ := tfs.fs.Exists(tbl.Location().Dir())
			assert.False(t, exists)

			_, err := tbl.Read(ctx, nil, 1, 0)
			assert.True(t, ErrTableDropped.Is(err))
			_, err = tbl.Write(ctx)
			assert.True(t, ErrTableDropped.Is(err))
			assert.True(t, ErrTableDropped.Is(tbl.Truncate(ctx)))
			assert.True(t, ErrTableDropped.Is(tbl.Drop(ctx)))

			require.NoError(t, tbl.Close())
			require.NoError(t, tbl.Close())
		})
	}
}

func TestClosedTable(t *testing.T) {
	ctx := context.Background()
	tfs := filesystemsToTest(t)["inmem"]
	tbl := openTestTable(t, tfs, "db/events", testOptions())
	require.NoError(t, tbl.Close())

	_, err := tbl.Read(ctx, nil, 1, 0)
	assert.ErrorIs(t, err, ErrTableClosed)
	_, err = tbl.CheckData(ctx)
	assert.ErrorIs(t, err, ErrTableClosed)
}
