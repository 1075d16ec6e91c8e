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
	"path/filepath"

	"github.com/attic-labs/kingpin"

	"github.com/dolthub/stripelog/store/stripelog"
)

func stripelogCreate(app *kingpin.Application) (*kingpin.CmdClause, kingpinHandler) {
	cmd := app.Command("create", "creates an empty table in a directory")
	dir := cmd.Arg("dir", "table directory").Required().String()

	return cmd, func(ctx context.Context, c *cli) int {
		tbl, err := c.openTable(ctx, *dir, false)
		if err != nil {
			return c.fail(err)
		}
		defer tbl.Close()

		fmt.Fprintf(c.out, "created %s in %s\n", tbl.Names(), tbl.Location().Dir())
		return 0
	}
}

func stripelogTruncate(app *kingpin.Application) (*kingpin.CmdClause, kingpinHandler) {
	cmd := app.Command("truncate", "removes every row of a table")
	dir := cmd.Arg("dir", "table directory").Required().String()

	return cmd, func(ctx context.Context, c *cli) int {
		return c.withTable(ctx, *dir, func(tbl *stripelog.Table) int {
			if err := tbl.Truncate(ctx); err != nil {
				return c.fail(err)
			}

			fmt.Fprintf(c.out, "truncated %s\n", tbl.Names())
			return 0
		})
	}
}

func stripelogRename(app *kingpin.Application) (*kingpin.CmdClause, kingpinHandler) {
	cmd := app.Command("rename", "moves a table to a new directory under the same parent root")
	dir := cmd.Arg("dir", "table directory").Required().String()
	newDir := cmd.Arg("new-dir", "new table directory").Required().String()

	return cmd, func(ctx context.Context, c *cli) int {
		return c.withTable(ctx, *dir, func(tbl *stripelog.Table) int {
			absNew, err := c.fs.Abs(*newDir)
			if err != nil {
				return c.fail(err)
			}

			newPath, err := filepath.Rel(tbl.Location().Root, absNew)
			if err != nil {
				return c.fail(err)
			}

			newDatabase := filepath.Base(filepath.Dir(absNew))
			if err := tbl.Rename(ctx, newPath, newDatabase, filepath.Base(absNew)); err != nil {
				return c.fail(err)
			}

			fmt.Fprintf(c.out, "renamed to %s in %s\n", tbl.Names(), tbl.Location().Dir())
			return 0
		})
	}
}

func stripelogDrop(app *kingpin.Application) (*kingpin.CmdClause, kingpinHandler) {
	cmd := app.Command("drop", "deletes a table and its directory")
	dir := cmd.Arg("dir", "table directory").Required().String()

	return cmd, func(ctx context.Context, c *cli) int {
		return c.withTable(ctx, *dir, func(tbl *stripelog.Table) int {
			if err := tbl.Drop(ctx); err != nil {
				return c.fail(err)
			}

			fmt.Fprintf(c.out, "dropped %s\n", tbl.Names())
			return 0
		})
	}
}
