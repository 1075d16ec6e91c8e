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
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dolthub/stripelog/libraries/utils/filesys"
	"github.com/dolthub/stripelog/libraries/utils/iohelp"
	"github.com/dolthub/stripelog/store/column"
)

// readerSet is the state shared by the streams returned from one call to Read. It holds the table's gate
// shared and the data file open until every stream has been closed or exhausted.
type readerSet struct {
	data    filesys.ReadAtCloser
	metrics *Metrics
	release func()
	refCnt  atomic.Int32
}

func (rs *readerSet) done() {
	rs.metrics.streamClosed()

	if rs.refCnt.Add(-1) == 0 {
		rs.data.Close()
		rs.release()
	}
}

// BlockStream is one of the parallel streams returned by Read. It yields the stripes of a contiguous range
// of the table's index, in write order. A BlockStream must not be used from multiple goroutines at once.
type BlockStream struct {
	set     *readerSet
	columns []string
	maxRows int

	records []stripeRecord
	// first is the index position of records[0]
	first int
	pos   int

	// pending holds the unreturned rows of the current stripe when it is larger than maxRows
	pending column.Block
	pendOff int

	done bool
	// exhausted is set once Next has returned io.EOF
	exhausted bool
}

// Read returns up to |numStreams| streams over the table's stripes. The stripes are split into contiguous
// groups of nearly equal count, so reading the streams in order, each to the end, visits every stripe in
// the order it was written. No stream is empty; a table with fewer stripes than |numStreams| returns one
// stream per stripe and an empty table returns none. A |numStreams| below one is treated as one.
//
// Each block holds the columns named in |columns| that its stripe has, or every column of the stripe if
// |columns| is empty. When |maxBlockRows| is positive, stripes with more rows are returned in pieces.
//
// The table is held shared until every returned stream is closed or exhausted, so callers must drain or
// Close every stream.
func (t *Table) Read(ctx context.Context, columns []string, numStreams, maxBlockRows int) ([]*BlockStream, error) {
	_, span := tracer.Start(ctx, "stripelog.Read", trace.WithAttributes(attribute.Int("num_streams", numStreams)))
	defer span.End()

	t.gate.RLock()
	streams, err := t.openStreams(columns, numStreams, maxBlockRows)

	if err != nil || len(streams) == 0 {
		t.gate.RUnlock()
		return nil, err
	}

	span.SetAttributes(attribute.Int("streams", len(streams)))
	return streams, nil
}

// openStreams must be called holding the gate shared. If it returns streams, they own the hold.
func (t *Table) openStreams(columns []string, numStreams, maxBlockRows int) ([]*BlockStream, error) {
	if err := t.usable(); err != nil {
		return nil, err
	}

	idx, err := loadStripeIndex(t.fs, t.loc.indexPath())
	if err != nil {
		return nil, err
	}

	if len(idx.records) == 0 {
		return nil, nil
	}

	data, err := t.fs.OpenForReadAt(t.loc.dataPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrTableNotFound.New(t.loc.Dir())
	} else if err != nil {
		return nil, errors.Wrapf(err, "opening %s", t.loc.dataPath())
	}

	groups := partitionStripes(len(idx.records), numStreams)
	set := &readerSet{data: data, metrics: t.opts.Metrics, release: t.gate.RUnlock}
	set.refCnt.Store(int32(len(groups)))
	set.metrics.streamsOpened(len(groups))

	streams := make([]*BlockStream, len(groups))
	for i, g := range groups {
		streams[i] = &BlockStream{
			set:     set,
			columns: columns,
			maxRows: maxBlockRows,
			records: idx.records[g.start:g.end],
			first:   g.start,
		}
	}

	t.log.WithFields(logrus.Fields{
		"stripes": len(idx.records),
		"streams": len(streams),
	}).Debug("opened read streams")

	return streams, nil
}

type stripeRange struct {
	start, end int
}

// partitionStripes splits |numRecords| records into min(|numStreams|, |numRecords|) contiguous non-empty
// ranges whose sizes differ by at most one.
func partitionStripes(numRecords, numStreams int) []stripeRange {
	if numStreams < 1 {
		numStreams = 1
	}

	n := min(numStreams, numRecords)
	ranges := make([]stripeRange, n)
	for i := range ranges {
		ranges[i] = stripeRange{start: i * numRecords / n, end: (i + 1) * numRecords / n}
	}

	return ranges
}

// Next returns the next block of the stream, or io.EOF when the stream is exhausted. The stream releases
// its share of the table when it first returns io.EOF and returns io.EOF from every later call. Calling Next
// on a stream closed before it was exhausted returns ErrStreamClosed.
func (s *BlockStream) Next(ctx context.Context) (column.Block, error) {
	if s.exhausted {
		return column.Block{}, io.EOF
	} else if s.done {
		return column.Block{}, ErrStreamClosed
	} else if err := ctx.Err(); err != nil {
		return column.Block{}, err
	}

	if s.pending.NumRows() > 0 {
		return s.nextPiece(), nil
	}

	for s.pos < len(s.records) {
		b, err := s.readStripe(s.pos)
		if err != nil {
			return column.Block{}, err
		}
		s.pos++

		if b.NumColumns() == 0 {
			// none of the requested columns are in this stripe
			continue
		}

		if s.maxRows > 0 && b.NumRows() > s.maxRows {
			s.pending, s.pendOff = b, 0
			return s.nextPiece(), nil
		}

		return b, nil
	}

	s.exhausted = true
	s.Close()
	return column.Block{}, io.EOF
}

func (s *BlockStream) nextPiece() column.Block {
	end := min(s.pendOff+s.maxRows, s.pending.NumRows())
	piece := s.pending.Slice(s.pendOff, end)
	s.pendOff = end

	if end == s.pending.NumRows() {
		s.pending, s.pendOff = column.Block{}, 0
	}

	return piece
}

func (s *BlockStream) readStripe(i int) (column.Block, error) {
	rec := s.records[i]
	stripe := s.first + i
	dataSz := s.set.data.Size()

	marks := rec.columns
	if len(s.columns) > 0 {
		marks = make([]columnMark, 0, len(s.columns))
		for _, name := range s.columns {
			if m, ok := rec.mark(name); ok {
				marks = append(marks, m)
			}
		}
	}

	cols := make([]column.Column, 0, len(marks))
	for _, m := range marks {
		if m.end() > uint64(dataSz) {
			return column.Block{}, ErrStripeOutOfBounds.New(stripe, m.name, m.end(), dataSz)
		}

		buf := make([]byte, m.length)
		if err := iohelp.ReadAtExactly(s.set.data, buf, int64(m.offset)); err != nil {
			return column.Block{}, errors.Wrapf(err, "reading stripe %d column %s", stripe, m.name)
		}

		vec, err := column.Decode(buf, m.kind, rec.rows)
		if err != nil {
			return column.Block{}, errors.Wrapf(err, "decoding stripe %d column %s", stripe, m.name)
		}

		cols = append(cols, column.Column{Name: m.name, Data: vec})
	}

	s.set.metrics.stripeRead(int(rec.rows))
	return column.NewBlock(cols...), nil
}

// Close releases the stream's share of the table. Closing a closed or exhausted stream does nothing.
func (s *BlockStream) Close() {
	if s.done {
		return
	}

	s.done = true
	s.pending = column.Block{}
	s.set.done()
}

// CloseStreams closes every stream in |streams|.
func CloseStreams(streams []*BlockStream) {
	for _, s := range streams {
		s.Close()
	}
}

// ReadAll drains every stream concurrently and returns the blocks of each stream in order. Every stream is
// closed when ReadAll returns.
func ReadAll(ctx context.Context, streams []*BlockStream) ([][]column.Block, error) {
	defer CloseStreams(streams)

	results := make([][]column.Block, len(streams))
	eg, ctx := errgroup.WithContext(ctx)
	for i, s := range streams {
		eg.Go(func() error {
			var blocks []column.Block
			for {
				b, err := s.Next(ctx)
				if err == io.EOF {
					break
				} else if err != nil {
					return err
				}

				blocks = append(blocks, b)
			}

			results[i] = blocks
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
