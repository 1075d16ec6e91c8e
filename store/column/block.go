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

package column

import (
	"fmt"
)

// Column is a named vector.
type Column struct {
	Name string
	Data Vector
}

// Block is a batch of rows stored column by column. All columns of a valid block have the same length.
type Block struct {
	Columns []Column
}

// NewBlock returns a Block holding |cols| in order.
func NewBlock(cols ...Column) Block {
	return Block{Columns: cols}
}

// NumRows returns the number of rows in the block, or 0 if it has no columns.
func (b Block) NumRows() int {
	if len(b.Columns) == 0 || b.Columns[0].Data == nil {
		return 0
	}

	return b.Columns[0].Data.Len()
}

func (b Block) NumColumns() int {
	return len(b.Columns)
}

// ColumnByName returns the column named |name|.
func (b Block) ColumnByName(name string) (Column, bool) {
	for _, col := range b.Columns {
		if col.Name == name {
			return col, true
		}
	}

	return Column{}, false
}

// Names returns the column names in block order.
func (b Block) Names() []string {
	names := make([]string, len(b.Columns))
	for i, col := range b.Columns {
		names[i] = col.Name
	}

	return names
}

// Project returns a block holding the columns named in |names| that are present in |b|, in the order of
// |names|. An empty |names| returns |b| unchanged.
func (b Block) Project(names []string) Block {
	if len(names) == 0 {
		return b
	}

	cols := make([]Column, 0, len(names))
	for _, name := range names {
		if col, ok := b.ColumnByName(name); ok {
			cols = append(cols, col)
		}
	}

	return Block{Columns: cols}
}

// Slice returns the rows [lo, hi) of every column.
func (b Block) Slice(lo, hi int) Block {
	cols := make([]Column, len(b.Columns))
	for i, col := range b.Columns {
		cols[i] = Column{Name: col.Name, Data: col.Data.Slice(lo, hi)}
	}

	return Block{Columns: cols}
}

// Validate checks that every column is named, typed and unique, and that all columns have the same length.
func (b Block) Validate() error {
	seen := make(map[string]struct{}, len(b.Columns))
	rows := b.NumRows()

	for _, col := range b.Columns {
		if col.Name == "" {
			return fmt.Errorf("%w: column with empty name", ErrInvalidBlock)
		} else if col.Data == nil || !col.Data.Kind().IsValid() {
			return fmt.Errorf("%w: column '%s' has no data", ErrInvalidBlock, col.Name)
		}

		if _, ok := seen[col.Name]; ok {
			return fmt.Errorf("%w: duplicate column '%s'", ErrInvalidBlock, col.Name)
		}
		seen[col.Name] = struct{}{}

		if col.Data.Len() != rows {
			return fmt.Errorf("%w: column '%s' has %d rows, expected %d", ErrInvalidBlock, col.Name, col.Data.Len(), rows)
		}
	}

	return nil
}
