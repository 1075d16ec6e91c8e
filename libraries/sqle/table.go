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

// Package sqle presents stripelog tables to go-mysql-server.
package sqle

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dolthub/go-mysql-server/sql"

	"github.com/dolthub/stripelog/store/column"
	"github.com/dolthub/stripelog/store/stripelog"
)

const (
	DefaultReadStreams   = 4
	DefaultRowsPerStripe = 65536
)

var _ sql.Table = (*StripeLogTable)(nil)
var _ sql.InsertableTable = (*StripeLogTable)(nil)
var _ sql.TruncateableTable = (*StripeLogTable)(nil)
var _ sql.StatisticsTable = (*StripeLogTable)(nil)

// StripeLogTable is a sql.Table backed by a stripelog table. Every partition is one read stream of the
// table, so partitions are read in parallel by the engine and concatenating them in key order yields the
// rows in insertion order.
type StripeLogTable struct {
	tbl   *stripelog.Table
	sch   sql.Schema
	kinds []column.Kind

	// ReadStreams is the number of partitions requested from the table
	ReadStreams int
	// RowsPerStripe is the number of buffered rows that causes an inserter to write a stripe
	RowsPerStripe int
}

// NewStripeLogTable returns a sql table over |tbl| with schema |sch|. Every column of |sch| must be non
// nullable and of a type KindForType accepts.
func NewStripeLogTable(tbl *stripelog.Table, sch sql.Schema) (*StripeLogTable, error) {
	kinds := make([]column.Kind, len(sch))
	for i, col := range sch {
		if col.Nullable {
			return nil, fmt.Errorf("column %s: stripelog columns cannot be nullable", col.Name)
		}

		k, err := KindForType(col.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
		kinds[i] = k
	}

	return &StripeLogTable{
		tbl:           tbl,
		sch:           sch,
		kinds:         kinds,
		ReadStreams:   DefaultReadStreams,
		RowsPerStripe: DefaultRowsPerStripe,
	}, nil
}

// Name implements sql.Table
func (t *StripeLogTable) Name() string {
	return t.tbl.Names().Table
}

// String implements sql.Table
func (t *StripeLogTable) String() string {
	return t.tbl.Names().String()
}

// Schema implements sql.Table
func (t *StripeLogTable) Schema() sql.Schema {
	return t.sch
}

// Collation implements sql.Table
func (t *StripeLogTable) Collation() sql.CollationID {
	return sql.Collation_Default
}

func (t *StripeLogTable) columnNames() []string {
	names := make([]string, len(t.sch))
	for i, col := range t.sch {
		names[i] = col.Name
	}

	return names
}

// Partitions opens the table's read streams. The table is held shared until every partition's rows have been
// read or closed and the partition iterator is closed.
func (t *StripeLogTable) Partitions(ctx *sql.Context) (sql.PartitionIter, error) {
	streams, err := t.tbl.Read(ctx, t.columnNames(), t.ReadStreams, 0)
	if err != nil {
		return nil, err
	}

	return &streamPartitionIter{streams: streams}, nil
}

// PartitionRows implements sql.Table
func (t *StripeLogTable) PartitionRows(ctx *sql.Context, part sql.Partition) (sql.RowIter, error) {
	p, ok := part.(*streamPartition)
	if !ok {
		return nil, fmt.Errorf("unexpected partition type %T for table %s", part, t.Name())
	}

	return &blockRowIter{t: t, stream: p.stream}, nil
}

// Inserter implements sql.InsertableTable
func (t *StripeLogTable) Inserter(*sql.Context) sql.RowInserter {
	return &stripeInserter{t: t}
}

// Truncate removes every row and returns the number of rows removed.
func (t *StripeLogTable) Truncate(ctx *sql.Context) (int, error) {
	stats, err := t.tbl.Stats(ctx)
	if err != nil {
		return 0, err
	}

	if err := t.tbl.Truncate(ctx); err != nil {
		return 0, err
	}

	return int(stats.Rows), nil
}

// RowCount implements sql.StatisticsTable
func (t *StripeLogTable) RowCount(ctx *sql.Context) (uint64, bool, error) {
	stats, err := t.tbl.Stats(ctx)
	if err != nil {
		return 0, false, err
	}

	return stats.Rows, true, nil
}

// DataLength implements sql.StatisticsTable
func (t *StripeLogTable) DataLength(ctx *sql.Context) (uint64, error) {
	stats, err := t.tbl.Stats(ctx)
	if err != nil {
		return 0, err
	}

	return uint64(stats.DataSize), nil
}

type streamPartition struct {
	key    []byte
	stream *stripelog.BlockStream
}

// Key implements sql.Partition
func (p *streamPartition) Key() []byte {
	return p.key
}

type streamPartitionIter struct {
	streams []*stripelog.BlockStream
	i       int
}

// Next returns the partition for the next stream, or io.EOF when every stream has been returned.
func (itr *streamPartitionIter) Next(*sql.Context) (sql.Partition, error) {
	if itr.i >= len(itr.streams) {
		return nil, io.EOF
	}

	p := &streamPartition{key: []byte(strconv.Itoa(itr.i)), stream: itr.streams[itr.i]}
	itr.i++
	return p, nil
}

// Close closes the streams that were never returned as partitions.
func (itr *streamPartitionIter) Close(*sql.Context) error {
	stripelog.CloseStreams(itr.streams[itr.i:])
	itr.i = len(itr.streams)
	return nil
}

// blockRowIter returns the rows of a stream's blocks one at a time.
type blockRowIter struct {
	t      *StripeLogTable
	stream *stripelog.BlockStream

	cols []column.Vector
	pos  int
	rows int
}

// Next implements sql.RowIter
func (itr *blockRowIter) Next(ctx *sql.Context) (sql.Row, error) {
	for itr.pos >= itr.rows {
		b, err := itr.stream.Next(ctx)
		if err != nil {
			return nil, err
		}

		itr.load(b)
	}

	row := make(sql.Row, len(itr.cols))
	for i, vec := range itr.cols {
		if vec != nil {
			row[i] = fromStored(itr.t.kinds[i], vec.Value(itr.pos))
		}
	}

	itr.pos++
	return row, nil
}

// load positions the iterator at the start of |b|. Schema columns missing from the block read as NULL.
func (itr *blockRowIter) load(b column.Block) {
	itr.cols = make([]column.Vector, len(itr.t.sch))
	for i, col := range itr.t.sch {
		if c, ok := b.ColumnByName(col.Name); ok {
			itr.cols[i] = c.Data
		}
	}

	itr.pos, itr.rows = 0, b.NumRows()
}

// Close implements sql.RowIter
func (itr *blockRowIter) Close(*sql.Context) error {
	itr.stream.Close()
	return nil
}
