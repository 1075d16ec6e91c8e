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
	"context"
	"fmt"
	"strings"

	"github.com/attic-labs/kingpin"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/dolthub/stripelog/store/stripelog"
)

func stripelogCheck(app *kingpin.Application) (*kingpin.CmdClause, kingpinHandler) {
	cmd := app.Command("check", "compares the size of each table file with the size recorded when it was written")
	dir := cmd.Arg("dir", "table directory").Required().String()

	return cmd, func(ctx context.Context, c *cli) int {
		return c.withTable(ctx, *dir, func(tbl *stripelog.Table) int {
			results, err := tbl.CheckData(ctx)
			if err != nil {
				return c.fail(err)
			}

			for _, r := range results {
				if r.Success {
					fmt.Fprintf(c.out, "%-12s %s\n", r.File, color.GreenString("ok"))
				} else {
					fmt.Fprintf(c.out, "%-12s %s %s\n", r.File, color.RedString("FAILED"), r.Message)
				}
			}

			if !results.Passed() {
				return 1
			}

			return 0
		})
	}
}

func stripelogStats(app *kingpin.Application) (*kingpin.CmdClause, kingpinHandler) {
	cmd := app.Command("stats", "shows the size of a table")
	dir := cmd.Arg("dir", "table directory").Required().String()

	return cmd, func(ctx context.Context, c *cli) int {
		return c.withTable(ctx, *dir, func(tbl *stripelog.Table) int {
			stats, err := tbl.Stats(ctx)
			if err != nil {
				return c.fail(err)
			}

			cols := make([]string, len(stats.Columns))
			for i, name := range stats.Columns {
				cols[i] = name + ":" + stats.Kinds[i].String()
			}

			fmt.Fprintf(c.out, "table:      %s\n", tbl.Names())
			fmt.Fprintf(c.out, "stripes:    %s\n", humanize.Comma(int64(stats.Stripes)))
			fmt.Fprintf(c.out, "rows:       %s\n", humanize.Comma(int64(stats.Rows)))
			fmt.Fprintf(c.out, "data size:  %s\n", humanize.Bytes(uint64(stats.DataSize)))
			fmt.Fprintf(c.out, "index size: %s\n", humanize.Bytes(uint64(stats.IndexSize)))
			fmt.Fprintf(c.out, "columns:    %s\n", strings.Join(cols, ", "))
			return 0
		})
	}
}
