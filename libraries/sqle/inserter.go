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

package sqle

import (
	"github.com/dolthub/go-mysql-server/sql"

	"github.com/dolthub/stripelog/store/column"
	"github.com/dolthub/stripelog/store/stripelog"
)

var _ sql.RowInserter = (*stripeInserter)(nil)

// stripeInserter buffers inserted rows and writes them as a stripe every RowsPerStripe rows and at the end
// of each statement. The table's write session is opened with the first stripe and held until Close.
type stripeInserter struct {
	t        *StripeLogTable
	w        *stripelog.TableWriter
	buf      []column.Vector
	buffered int
}

// StatementBegin implements sql.EditOpenerCloser
func (si *stripeInserter) StatementBegin(*sql.Context) {
	si.reset()
}

// DiscardChanges drops the rows buffered by the statement. Stripes that were already written stay in the
// table.
func (si *stripeInserter) DiscardChanges(*sql.Context, error) error {
	si.reset()
	return nil
}

// StatementComplete writes the rows buffered by the statement.
func (si *stripeInserter) StatementComplete(ctx *sql.Context) error {
	return si.flush(ctx)
}

// Insert implements sql.RowInserter
func (si *stripeInserter) Insert(ctx *sql.Context, row sql.Row) error {
	if si.buf == nil {
		si.reset()
	}

	if len(row) != len(si.t.sch) {
		return sql.ErrUnexpectedRowLength.New(len(si.t.sch), len(row))
	}

	vals := make([]interface{}, len(row))
	for i, v := range row {
		col := si.t.sch[i]
		if v == nil {
			return sql.ErrInsertIntoNonNullableProvidedNull.New(col.Name)
		}

		stored, err := toStored(si.t.kinds[i], v)
		if err != nil {
			return err
		}
		vals[i] = stored
	}

	for i, v := range vals {
		vec, err := column.Append(si.buf[i], v)
		if err != nil {
			return err
		}
		si.buf[i] = vec
	}
	si.buffered++

	if si.buffered >= si.t.RowsPerStripe {
		return si.flush(ctx)
	}

	return nil
}

// Close writes any buffered rows and ends the table's write session.
func (si *stripeInserter) Close(ctx *sql.Context) error {
	err := si.flush(ctx)

	if si.w != nil {
		cerr := si.w.Close(ctx)
		si.w = nil

		if err == nil {
			err = cerr
		}
	}

	return err
}

func (si *stripeInserter) reset() {
	si.buf = make([]column.Vector, len(si.t.kinds))
	for i, k := range si.t.kinds {
		si.buf[i], _ = column.NewVector(k, 0)
	}
	si.buffered = 0
}

func (si *stripeInserter) flush(ctx *sql.Context) error {
	if si.buffered == 0 {
		return nil
	}

	if si.w == nil {
		w, err := si.t.tbl.Write(ctx)
		if err != nil {
			return err
		}
		si.w = w
	}

	cols := make([]column.Column, len(si.buf))
	for i, vec := range si.buf {
		cols[i] = column.Column{Name: si.t.sch[i].Name, Data: vec}
	}

	err := si.w.Write(ctx, column.NewBlock(cols...))
	si.reset()
	return err
}
