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

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/attic-labs/kingpin"
	"github.com/goccy/go-json"

	"github.com/dolthub/stripelog/store/column"
	"github.com/dolthub/stripelog/store/stripelog"
)

func stripelogDump(app *kingpin.Application) (*kingpin.CmdClause, kingpinHandler) {
	cmd := app.Command("dump", "writes the rows of a table as json lines, in the order they were appended")
	dir := cmd.Arg("dir", "table directory").Required().String()
	columns := cmd.Flag("columns", "columns to read, all columns if not given").Strings()
	streams := cmd.Flag("streams", "number of parallel read streams, the configured read_streams if not given").Int()

	return cmd, func(ctx context.Context, c *cli) int {
		return c.withTable(ctx, *dir, func(tbl *stripelog.Table) int {
			numStreams := *streams
			if numStreams < 1 {
				numStreams = c.cfg.ReadStreams
			}

			blockStreams, err := tbl.Read(ctx, *columns, numStreams, 0)
			if err != nil {
				return c.fail(err)
			}

			results, err := stripelog.ReadAll(ctx, blockStreams)
			if err != nil {
				return c.fail(err)
			}

			wr := bufio.NewWriter(c.out)
			for _, blocks := range results {
				for _, b := range blocks {
					if err := writeBlockJSON(wr, b); err != nil {
						return c.fail(err)
					}
				}
			}

			if err := wr.Flush(); err != nil {
				return c.fail(err)
			}

			return 0
		})
	}
}

// writeBlockJSON writes one json object per row of |b|, with keys in column order.
func writeBlockJSON(wr io.Writer, b column.Block) error {
	for row := 0; row < b.NumRows(); row++ {
		var sb strings.Builder
		sb.WriteByte('{')

		for i, col := range b.Columns {
			if i > 0 {
				sb.WriteByte(',')
			}

			key, err := json.Marshal(col.Name)
			if err != nil {
				return err
			}

			val, err := json.Marshal(col.Data.Value(row))
			if err != nil {
				return err
			}

			sb.Write(key)
			sb.WriteByte(':')
			sb.Write(val)
		}

		sb.WriteString("}\n")
		if _, err := io.WriteString(wr, sb.String()); err != nil {
			return err
		}
	}

	return nil
}

func stripelogAppend(app *kingpin.Application) (*kingpin.CmdClause, kingpinHandler) {
	cmd := app.Command("append", "appends json lines to a table in one write session")
	dir := cmd.Arg("dir", "table directory").Required().String()
	file := cmd.Arg("file", "json lines file, stdin if not given").String()
	colDefs := cmd.Flag("column", "column to append, as name:kind. Repeat for every column").Required().Strings()

	return cmd, func(ctx context.Context, c *cli) int {
		schema, err := parseColumnDefs(*colDefs)
		if err != nil {
			return c.fail(err)
		}

		in := c.in
		if *file != "" {
			f, err := c.fs.OpenForRead(*file)
			if err != nil {
				return c.fail(err)
			}
			defer f.Close()
			in = f
		}

		return c.withTable(ctx, *dir, func(tbl *stripelog.Table) int {
			rows, err := appendJSONLines(ctx, tbl, schema, in, c.cfg.RowsPerStripe)
			if err != nil {
				return c.fail(err)
			}

			fmt.Fprintf(c.out, "appended %d rows to %s\n", rows, tbl.Names())
			return 0
		})
	}
}

type columnDef struct {
	name string
	kind column.Kind
}

func parseColumnDefs(defs []string) ([]columnDef, error) {
	schema := make([]columnDef, len(defs))
	for i, def := range defs {
		name, kindStr, ok := strings.Cut(def, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid column '%s', expected name:kind", def)
		}

		k, err := column.ParseKind(kindStr)
		if err != nil {
			return nil, err
		}

		schema[i] = columnDef{name: name, kind: k}
	}

	return schema, nil
}

// appendJSONLines writes the rows read from |rd| as stripes of up to |rowsPerStripe| rows in one write
// session. Stripes written before an invalid row stay in the table.
func appendJSONLines(ctx context.Context, tbl *stripelog.Table, schema []columnDef, rd io.Reader, rowsPerStripe int) (int, error) {
	w, err := tbl.Write(ctx)
	if err != nil {
		return 0, err
	}

	newBuffer := func() []column.Vector {
		vecs := make([]column.Vector, len(schema))
		for i, def := range schema {
			vecs[i], _ = column.NewVector(def.kind, rowsPerStripe)
		}
		return vecs
	}

	flush := func(vecs []column.Vector) error {
		cols := make([]column.Column, len(schema))
		for i, def := range schema {
			cols[i] = column.Column{Name: def.name, Data: vecs[i]}
		}
		return w.Write(ctx, column.NewBlock(cols...))
	}

	dec := json.NewDecoder(rd)
	dec.UseNumber()

	total, buffered := 0, 0
	vecs := newBuffer()
	for {
		var obj map[string]interface{}
		err = dec.Decode(&obj)
		if err == io.EOF {
			break
		} else if err != nil {
			w.Close(ctx)
			return 0, fmt.Errorf("row %d: %w", total+1, err)
		}

		for i, def := range schema {
			val, err := jsonValue(def, obj[def.name])
			if err == nil {
				vecs[i], err = column.Append(vecs[i], val)
			}

			if err != nil {
				w.Close(ctx)
				return 0, fmt.Errorf("row %d: %w", total+1, err)
			}
		}

		total++
		buffered++
		if buffered == rowsPerStripe {
			if err := flush(vecs); err != nil {
				w.Close(ctx)
				return 0, err
			}
			vecs, buffered = newBuffer(), 0
		}
	}

	if buffered > 0 {
		if err := flush(vecs); err != nil {
			w.Close(ctx)
			return 0, err
		}
	}

	if err := w.Close(ctx); err != nil {
		return 0, err
	}

	return total, nil
}

// jsonValue converts a decoded json value to the Go type of |def|'s kind.
func jsonValue(def columnDef, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, fmt.Errorf("column %s: missing or null value", def.name)
	}

	switch def.kind {
	case column.Int64Kind:
		if n, ok := v.(json.Number); ok {
			return n.Int64()
		}
	case column.Float64Kind:
		if n, ok := v.(json.Number); ok {
			return n.Float64()
		}
	case column.StringKind:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case column.BoolKind:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	}

	return nil, fmt.Errorf("column %s: cannot read %v as %s", def.name, v, def.kind)
}
