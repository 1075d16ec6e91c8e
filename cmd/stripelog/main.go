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
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/attic-labs/kingpin"
	"github.com/cenkalti/backoff/v4"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/dolthub/stripelog/libraries/utils/filesys"
	"github.com/dolthub/stripelog/store/stripelog"
)

type kingpinHandler func(ctx context.Context, c *cli) int
type kingpinCommand func(*kingpin.Application) (*kingpin.CmdClause, kingpinHandler)

var kingpinCommands = []kingpinCommand{
	stripelogCreate,
	stripelogAppend,
	stripelogDump,
	stripelogStats,
	stripelogCheck,
	stripelogTruncate,
	stripelogRename,
	stripelogDrop,
}

// cli is the environment a command runs in.
type cli struct {
	fs   filesys.Filesys
	cfg  *stripelog.YAMLConfig
	opts stripelog.Options
	// lockWait is how long to retry opening a table locked by another process
	lockWait time.Duration

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func main() {
	os.Exit(run(context.Background(), filesys.LocalFS, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, fs filesys.Filesys, args []string, in io.Reader, out, errOut io.Writer) int {
	app := kingpin.New("stripelog", "Inspects and maintains stripelog tables.")
	app.HelpFlag.Short('h')

	configVal := app.Flag("config", "path to a yaml config file").String()
	verboseVal := app.Flag("verbose", "log debug messages").Short('v').Bool()
	lockWaitVal := app.Flag("lock-wait", "how long to wait for a table locked by another process").Default("0s").Duration()

	handlers := map[string]kingpinHandler{}
	for _, cmdFunction := range kingpinCommands {
		command, handler := cmdFunction(app)
		handlers[command.FullCommand()] = handler
	}

	input, err := app.Parse(args)
	if err != nil {
		fmt.Fprintln(errOut, color.RedString("error: %s", err.Error()))
		return 2
	}

	c, err := newCLI(fs, *configVal, *verboseVal)
	if err != nil {
		fmt.Fprintln(errOut, color.RedString("error: %s", err.Error()))
		return 1
	}
	c.in, c.out, c.errOut = in, out, errOut
	c.lockWait = *lockWaitVal
	c.opts.Logger.SetOutput(errOut)

	if !isTerminal(out) {
		color.NoColor = true
	}

	handler := handlers[strings.Split(input, " ")[0]]
	if handler == nil {
		fmt.Fprintln(errOut, color.RedString("error: unknown command %s", input))
		return 2
	}

	return handler(ctx, c)
}

func newCLI(fs filesys.Filesys, configPath string, verbose bool) (*cli, error) {
	cfg := stripelog.DefaultYAMLConfig()
	if configPath != "" {
		var err error
		if cfg, err = stripelog.LoadYAMLConfig(fs, configPath); err != nil {
			return nil, err
		}
	}

	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	// commands may run alongside a server using the same tables
	opts.ProcessLock = true
	if verbose {
		opts.Logger.SetLevel(logrus.DebugLevel)
	}

	return &cli{fs: fs, cfg: cfg, opts: opts}, nil
}

// location returns the location and catalog names of the table stored in |dir|. The table is named after
// its directory and the database after the directory's parent.
func (c *cli) location(dir string) (stripelog.Location, stripelog.Names, error) {
	abs, err := c.fs.Abs(dir)
	if err != nil {
		return stripelog.Location{}, stripelog.Names{}, err
	}

	loc := stripelog.Location{Root: filepath.Dir(abs), Path: filepath.Base(abs)}
	return loc, stripelog.Names{Database: filepath.Base(loc.Root), Table: loc.Path}, nil
}

func (c *cli) openTable(ctx context.Context, dir string, attach bool) (*stripelog.Table, error) {
	loc, names, err := c.location(dir)
	if err != nil {
		return nil, err
	}

	if c.lockWait <= 0 {
		return stripelog.Open(ctx, c.fs, loc, names, c.opts, attach)
	}

	params := backoff.NewExponentialBackOff()
	params.InitialInterval = 10 * time.Millisecond
	params.MaxInterval = 500 * time.Millisecond
	params.MaxElapsedTime = c.lockWait

	var tbl *stripelog.Table
	err = backoff.Retry(func() error {
		var err error
		tbl, err = stripelog.Open(ctx, c.fs, loc, names, c.opts, attach)
		if err != nil && !stripelog.ErrTableLocked.Is(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(params, ctx))

	if err != nil {
		return nil, err
	}

	return tbl, nil
}

// withTable attaches the table in |dir|, calls |cb| and closes the table. The directory must already
// hold the table's files; only create makes new ones.
func (c *cli) withTable(ctx context.Context, dir string, cb func(tbl *stripelog.Table) int) int {
	loc, _, err := c.location(dir)
	if err != nil {
		return c.fail(err)
	}

	if !stripelog.Exists(c.fs, loc) {
		return c.fail(stripelog.ErrTableNotFound.New(loc.Dir()))
	}

	tbl, err := c.openTable(ctx, dir, true)
	if err != nil {
		return c.fail(err)
	}
	defer tbl.Close()

	return cb(tbl)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func (c *cli) fail(err error) int {
	fmt.Fprintln(c.errOut, color.RedString("error: %s", err.Error()))
	return 1
}
