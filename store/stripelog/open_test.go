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
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExists(t *testing.T) {
	for name, tfs := range filesystemsToTest(t) {
		t.Run(name, func(t *testing.T) {
			loc := Location{Root: tfs.root, Path: "db/events"}
			require.NoError(t, tfs.fs.MkDirs(loc.Dir()))
			assert.False(t, Exists(tfs.fs, loc))

			require.NoError(t, tfs.fs.WriteFile(loc.indexPath(), nil, os.ModePerm))
			assert.True(t, Exists(tfs.fs, loc))
			require.NoError(t, tfs.fs.DeleteFile(loc.indexPath()))

			tbl := openTestTable(t, tfs, loc.Path, testOptions())
			require.NoError(t, tbl.Close())
			assert.True(t, Exists(tfs.fs, loc))
		})
	}
}

func TestOpenCreate(t *testing.T) {
	for name, tfs := range filesystemsToTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			loc := Location{Root: tfs.root, Path: "db/events"}

			tbl, err := Open(ctx, tfs.fs, loc, testNames(), testOptions(), false)
			require.NoError(t, err)
			defer tbl.Close()

			for _, f := range []string{dataFileName, indexFileName, sizesFileName} {
				exists, isDir := tfs.fs.Exists(tablePath(tbl, f))
				assert.True(t, exists, f)
				assert.False(t, isDir, f)
			}

			_, err = Open(ctx, tfs.fs, loc, testNames(), testOptions(), false)
			require.Error(t, err)
			assert.True(t, ErrTableExists.Is(err))
		})
	}
}

func TestOpenAttach(t *testing.T) {
	ctx := context.Background()
	tfs := filesystemsToTest(t)["inmem"]
	loc := Location{Root: tfs.root, Path: "db/events"}

	t.Run("missing directory", func(t *testing.T) {
		_, err := Open(ctx, tfs.fs, Location{Root: tfs.root, Path: "db/nothing"}, testNames(), testOptions(), true)
		require.Error(t, err)
		assert.True(t, ErrTableNotFound.Is(err))
	})

	t.Run("empty directory", func(t *testing.T) {
		emptyLoc := Location{Root: tfs.root, Path: "db/empty"}
		require.NoError(t, tfs.fs.MkDirs(emptyLoc.Dir()))

		tbl, err := Open(ctx, tfs.fs, emptyLoc, testNames(), testOptions(), true)
		require.NoError(t, err)
		defer tbl.Close()

		results, err := tbl.CheckData(ctx)
		require.NoError(t, err)
		assert.True(t, results.Passed())
	})

	tbl := openTestTable(t, tfs, loc.Path, testOptions())
	total := writeStripes(t, tbl, 0, 10, 10)
	require.NoError(t, tbl.Close())

	t.Run("existing table", func(t *testing.T) {
		tbl, err := Open(ctx, tfs.fs, loc, testNames(), testOptions(), true)
		require.NoError(t, err)
		defer tbl.Close()
		assert.Equal(t, seq(0, total), readIDs(t, tbl, 2))
	})

	t.Run("missing sizes", func(t *testing.T) {
		require.NoError(t, tfs.fs.DeleteFile(loc.Dir()+"/"+sizesFileName))

		tbl, err := Open(ctx, tfs.fs, loc, testNames(), testOptions(), true)
		require.NoError(t, err)
		defer tbl.Close()

		exists, _ := tfs.fs.Exists(loc.Dir() + "/" + sizesFileName)
		assert.True(t, exists)

		results, err := tbl.CheckData(ctx)
		require.NoError(t, err)
		assert.True(t, results.Passed())
	})

	t.Run("partial files", func(t *testing.T) {
		require.NoError(t, tfs.fs.DeleteFile(loc.Dir()+"/"+indexFileName))

		_, err := Open(ctx, tfs.fs, loc, testNames(), testOptions(), true)
		require.Error(t, err)
		assert.True(t, ErrPartialTableFiles.Is(err))
	})
}

func TestProcessLock(t *testing.T) {
	for name, tfs := range filesystemsToTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			loc := Location{Root: tfs.root, Path: "db/events"}
			opts := testOptions()
			opts.ProcessLock = true

			tbl, err := Open(ctx, tfs.fs, loc, testNames(), opts, false)
			require.NoError(t, err)

			_, err = Open(ctx, tfs.fs, loc, testNames(), opts, true)
			require.Error(t, err)
			assert.True(t, ErrTableLocked.Is(err))

			// the lock moves with the table
			require.NoError(t, tbl.Rename(ctx, "db/renamed", "db", "renamed"))
			renamed := Location{Root: tfs.root, Path: "db/renamed"}
			_, err = Open(ctx, tfs.fs, renamed, testNames(), opts, true)
			require.Error(t, err)
			assert.True(t, ErrTableLocked.Is(err))

			require.NoError(t, tbl.Close())

			again, err := Open(ctx, tfs.fs, renamed, testNames(), opts, true)
			require.NoError(t, err)
			require.NoError(t, again.Close())
		})
	}
}
