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
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dolthub/stripelog/store/column"
)

// TableWriter is a write session. It holds its table exclusively from the call to Table.Write until Close.
// Blocks written to it are visible to readers once it is closed.
//
// Callers must always Close a TableWriter, typically with a defer, or the table stays locked.
type TableWriter struct {
	t     *Table
	span  trace.Span
	start time.Time
	log   *logrus.Entry

	data *dataAppender
	idx  stripeIndex
	// committed is the end of the last stripe whose record was added to |idx|
	committed int64
	// err is set by the first failed write to the data file. Once set, no more blocks are accepted.
	err    error
	closed bool
}

// Write opens a write session. It blocks until no other session, read or lifecycle operation is using
// the table.
func (t *Table) Write(ctx context.Context) (*TableWriter, error) {
	_, span := tracer.Start(ctx, "stripelog.Write")

	t.gate.Lock()
	w, err := t.newWriter(span)

	if err != nil {
		t.gate.Unlock()
		span.End()
		return nil, err
	}

	return w, nil
}

// newWriter must be called holding the gate exclusively.
func (t *Table) newWriter(span trace.Span) (*TableWriter, error) {
	if err := t.usable(); err != nil {
		return nil, err
	}

	idx, err := loadStripeIndex(t.fs, t.loc.indexPath())
	if err != nil {
		return nil, err
	}

	dataPath := t.loc.dataPath()
	if exists, _ := t.fs.Exists(dataPath); !exists {
		return nil, ErrTableNotFound.New(t.loc.Dir())
	}

	size, err := t.fs.Size(dataPath)
	if err != nil {
		return nil, errors.Wrapf(err, "getting size of %s", dataPath)
	}

	wr, err := t.fs.OpenForWriteAppend(dataPath, filePerm)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", dataPath)
	}

	return &TableWriter{
		t:         t,
		span:      span,
		start:     time.Now(),
		log:       t.log,
		data:      newDataAppender(wr, size, t.encoder.MaxCompressBlockSize),
		idx:       idx,
		committed: size,
	}, nil
}

// Write appends |b| to the data file as a new stripe. Each column of |b| is encoded in turn; the stripe is
// recorded in the index only once every column has been written. A block with no rows is ignored.
//
// If writing to the data file fails the bytes already written remain in the file without a stripe
// referencing them, and the session accepts no further blocks. Close still finalizes the stripes written
// before the failure.
func (w *TableWriter) Write(ctx context.Context, b column.Block) error {
	if w.closed {
		return ErrWriterClosed
	} else if w.err != nil {
		return w.err
	} else if err := ctx.Err(); err != nil {
		return err
	}

	if err := b.Validate(); err != nil {
		return err
	}

	rows := b.NumRows()
	if rows == 0 {
		return nil
	}

	start := w.data.Offset()
	rec := stripeRecord{rows: uint64(rows), columns: make([]columnMark, 0, b.NumColumns())}
	for _, col := range b.Columns {
		off := w.data.Offset()
		if _, err := w.t.encoder.EncodeTo(w.data, col.Data); err != nil {
			return w.fail(err)
		}

		rec.columns = append(rec.columns, columnMark{
			name:   col.Name,
			kind:   col.Data.Kind(),
			offset: uint64(off),
			length: uint64(w.data.Offset() - off),
		})
	}

	if err := w.data.Flush(); err != nil {
		return w.fail(err)
	}

	w.idx.records = append(w.idx.records, rec)
	w.committed = w.data.Offset()

	w.t.opts.Metrics.stripeWritten(int64(rows), w.committed-start)
	w.log.WithFields(logrus.Fields{
		"stripe": len(w.idx.records) - 1,
		"rows":   rows,
		"offset": start,
		"bytes":  w.committed - start,
	}).Debug("wrote stripe")

	return nil
}

func (w *TableWriter) fail(err error) error {
	w.data.discard()
	w.err = errors.Wrapf(err, "writing stripe %d to %s", len(w.idx.records), w.t.loc.dataPath())
	w.log.WithError(err).Error("failed to write stripe")
	return w.err
}

// Close finalizes the session: the data file is flushed (and synced when configured), the index file is
// rewritten with every stripe recorded so far, and the expected file sizes are refreshed. The table is
// released even if finalizing fails. Closing a closed writer does nothing.
func (w *TableWriter) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}

	w.closed = true
	defer func() {
		w.t.gate.Unlock()
		w.t.opts.Metrics.writeSessionDone(w.start)
		w.span.End()
	}()

	w.span.SetAttributes(attribute.Int("stripes", len(w.idx.records)))

	if err := w.finalize(); err != nil {
		w.log.WithError(err).Error("failed to finalize write session")
		return err
	}

	return nil
}

func (w *TableWriter) finalize() error {
	dataPath := w.t.loc.dataPath()

	if w.t.opts.SyncOnClose {
		if err := w.data.Sync(); err != nil {
			_ = w.data.Close()
			return errors.Wrapf(err, "syncing %s", dataPath)
		}
	}

	if err := w.data.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", dataPath)
	}

	indexPath := w.t.loc.indexPath()
	if err := w.t.fs.WriteFile(indexPath, w.idx.encode(), filePerm); err != nil {
		return errors.Wrapf(err, "writing %s", indexPath)
	}

	// the data file is expected to end with the last recorded stripe, so bytes left behind by a failed
	// write show up as a size mismatch
	return w.t.checker.update(map[string]int64{
		dataFileName:  w.committed,
		indexFileName: -1,
	})
}
