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
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dolthub/stripelog/libraries/utils/filesys"
	"github.com/dolthub/stripelog/store/column"
)

var tracer = otel.Tracer("github.com/dolthub/stripelog/store/stripelog")

// Engine is the set of operations a table storage engine exposes to the query layer.
type Engine interface {
	Read(ctx context.Context, columns []string, numStreams, maxBlockRows int) ([]*BlockStream, error)
	Write(ctx context.Context) (*TableWriter, error)
	Rename(ctx context.Context, newPath, newDatabase, newTable string) error
	Truncate(ctx context.Context) error
	CheckData(ctx context.Context) (CheckResults, error)
	DataPaths() []string
}

var _ Engine = (*Table)(nil)

// Table is a StripeLog table: a data file of compressed column frames appended one block at a time, an
// index file holding a stripe record per block, and a sizes.json with the expected size of both.
//
// Reads share the table. Write sessions, truncate, rename and drop hold it exclusively.
type Table struct {
	fs      filesys.Filesys
	opts    Options
	encoder column.Encoder

	// ident holds the location and names for readers that must not wait on the gate. It is swapped
	// holding the gate exclusively, together with loc and names.
	ident atomic.Pointer[tableIdent]

	// gate guards every field below as well as the table files
	gate    sync.RWMutex
	loc     Location
	names   Names
	log     *logrus.Entry
	checker *fileChecker
	lock    filesys.FilesysLock
	dropped bool
	closed  bool
}

// Open creates or attaches the table stored at |loc|.
//
// When |attach| is false the table is created: its directory is made if needed and must not already hold
// a data or index file. When |attach| is true the directory must exist. If it holds both files the table
// is attached to them, if it holds neither they are created empty, and if it holds only one
// ErrPartialTableFiles is returned.
func Open(ctx context.Context, fs filesys.Filesys, loc Location, names Names, opts Options, attach bool) (*Table, error) {
	_, span := tracer.Start(ctx, "stripelog.Open", trace.WithAttributes(
		attribute.String("table", names.String()),
		attribute.Bool("attach", attach),
	))
	defer span.End()

	t := &Table{
		fs:      fs,
		opts:    opts,
		encoder: column.NewEncoder(opts.MaxCompressBlockSize, opts.Compression),
		checker: newFileChecker(fs, loc.Dir()),
	}
	t.setIdent(loc, names)
	t.log = t.newLogEntry()

	dir := loc.Dir()
	if exists, isDir := fs.Exists(dir); exists && !isDir {
		return nil, errors.Wrapf(filesys.ErrIsFile, "table directory %s", dir)
	} else if !exists {
		if attach {
			return nil, ErrTableNotFound.New(dir)
		}

		if err := fs.MkDirs(dir); err != nil {
			return nil, errors.Wrapf(err, "creating table directory %s", dir)
		}
	}

	if opts.ProcessLock {
		if err := t.acquireProcessLock(); err != nil {
			return nil, err
		}
	}

	var err error
	if attach {
		err = t.attachFiles()
	} else {
		err = t.createFiles()
	}

	if err != nil {
		t.releaseProcessLock()
		return nil, err
	}

	return t, nil
}

func (t *Table) newLogEntry() *logrus.Entry {
	return t.opts.logger().WithFields(logrus.Fields{
		"database": t.names.Database,
		"table":    t.names.Table,
	})
}

func (t *Table) acquireProcessLock() error {
	lck := filesys.CreateFilesysLock(t.fs, t.loc.lockPath())

	ok, err := lck.TryLock()
	if err != nil {
		return err
	} else if !ok {
		return ErrTableLocked.New(t.loc.Dir())
	}

	t.lock = lck
	return nil
}

func (t *Table) releaseProcessLock() {
	if t.lock == nil {
		return
	}

	if err := t.lock.Unlock(); err != nil {
		t.log.WithError(err).Warn("failed to release table lock")
	}

	t.lock = nil
}

func (t *Table) createFiles() error {
	dataExists, _ := t.fs.Exists(t.loc.dataPath())
	indexExists, _ := t.fs.Exists(t.loc.indexPath())

	if dataExists || indexExists {
		return ErrTableExists.New(t.names.String(), t.loc.Dir())
	}

	if err := t.createEmptyFiles(); err != nil {
		return err
	}

	t.log.Info("created table")
	return nil
}

func (t *Table) attachFiles() error {
	dataExists, _ := t.fs.Exists(t.loc.dataPath())
	indexExists, _ := t.fs.Exists(t.loc.indexPath())

	switch {
	case !dataExists && !indexExists:
		if err := t.createEmptyFiles(); err != nil {
			return err
		}
	case !indexExists:
		return ErrPartialTableFiles.New(t.loc.Dir(), dataFileName, indexFileName)
	case !dataExists:
		return ErrPartialTableFiles.New(t.loc.Dir(), indexFileName, dataFileName)
	default:
		exists, err := t.checker.load()
		if err != nil {
			return err
		}

		if !exists {
			t.log.Warnf("%s is missing, expecting the current file sizes", sizesFileName)
			if err = t.checker.updateFromDisk(dataFileName, indexFileName); err != nil {
				return err
			}
		}
	}

	t.log.Info("attached table")
	return nil
}

// createEmptyFiles replaces the data and index files with empty ones and expects both to be empty. The
// index is emptied first and the manifest last, so a failure part way leaves a table that reads as empty
// and fails CheckData.
func (t *Table) createEmptyFiles() error {
	for _, path := range []string{t.loc.indexPath(), t.loc.dataPath()} {
		if err := t.fs.WriteFile(path, nil, filePerm); err != nil {
			return errors.Wrapf(err, "creating %s", path)
		}
	}

	return t.checker.setEmpty(dataFileName, indexFileName)
}

// usable returns an error if the table can no longer be operated on. It must be called holding the gate.
func (t *Table) usable() error {
	if t.dropped {
		return ErrTableDropped.New(t.names.String())
	} else if t.closed {
		return ErrTableClosed
	}

	return nil
}

// Exists returns whether the directory at |loc| holds a data or index file.
func Exists(fs filesys.ReadableFS, loc Location) bool {
	dataExists, _ := fs.Exists(loc.dataPath())
	indexExists, _ := fs.Exists(loc.indexPath())
	return dataExists || indexExists
}

type tableIdent struct {
	loc   Location
	names Names
}

// setIdent must be called holding the gate exclusively, or before the table is shared.
func (t *Table) setIdent(loc Location, names Names) {
	t.loc, t.names = loc, names
	t.ident.Store(&tableIdent{loc: loc, names: names})
}

// Location returns the current location of the table. It never waits for other operations on the table.
func (t *Table) Location() Location {
	return t.ident.Load().loc
}

// Names returns the current catalog names of the table. It never waits for other operations on the table.
func (t *Table) Names() Names {
	return t.ident.Load().names
}

// DataPaths returns the absolute path of the table directory, the one path holding all of the table's data.
func (t *Table) DataPaths() []string {
	dir := t.Location().Dir()
	if abs, err := t.fs.Abs(dir); err == nil {
		dir = abs
	}

	return []string{dir}
}

// Stats describes the contents of a table.
type Stats struct {
	Stripes   int
	Rows      uint64
	DataSize  int64
	IndexSize int64
	// Columns are the column names of the most recently written stripe.
	Columns []string
	Kinds   []column.Kind
}

// Stats loads the stripe index and reports the size of the table.
func (t *Table) Stats(ctx context.Context) (Stats, error) {
	_, span := tracer.Start(ctx, "stripelog.Stats")
	defer span.End()

	t.gate.RLock()
	defer t.gate.RUnlock()

	if err := t.usable(); err != nil {
		return Stats{}, err
	}

	idx, err := loadStripeIndex(t.fs, t.loc.indexPath())
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Stripes: len(idx.records), Rows: idx.rowCount()}
	if stats.DataSize, err = t.fs.Size(t.loc.dataPath()); err != nil {
		return Stats{}, errors.Wrapf(err, "getting size of %s", t.loc.dataPath())
	}
	if stats.IndexSize, err = t.fs.Size(t.loc.indexPath()); err != nil {
		return Stats{}, errors.Wrapf(err, "getting size of %s", t.loc.indexPath())
	}

	if len(idx.records) > 0 {
		for _, m := range idx.records[len(idx.records)-1].columns {
			stats.Columns = append(stats.Columns, m.name)
			stats.Kinds = append(stats.Kinds, m.kind)
		}
	}

	return stats, nil
}

// Close releases the table's process lock. It waits for open write sessions and read streams to finish.
// A closed table cannot be used.
func (t *Table) Close() error {
	t.gate.Lock()
	defer t.gate.Unlock()

	if t.closed {
		return nil
	}

	t.closed = true
	t.releaseProcessLock()
	return nil
}
