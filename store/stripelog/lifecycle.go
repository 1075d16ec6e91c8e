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
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Rename moves the table to |newPath| under the same disk root and gives it new catalog names. The whole
// table directory is moved in one filesystem operation, and the table's location and names change only
// once that move has succeeded. The destination must not exist.
func (t *Table) Rename(ctx context.Context, newPath, newDatabase, newTable string) error {
	_, span := tracer.Start(ctx, "stripelog.Rename", trace.WithAttributes(attribute.String("new_path", newPath)))
	defer span.End()

	t.gate.Lock()
	defer t.gate.Unlock()

	if err := t.usable(); err != nil {
		return err
	}

	newLoc := Location{Root: t.loc.Root, Path: newPath}
	newNames := Names{Database: newDatabase, Table: newTable}
	oldDir, newDir := t.loc.Dir(), newLoc.Dir()

	if newDir != oldDir {
		if exists, _ := t.fs.Exists(newDir); exists {
			return ErrTableExists.New(newNames.String(), newDir)
		}

		if err := t.fs.MkDirs(filepath.Dir(newDir)); err != nil {
			return errors.Wrapf(err, "creating %s", filepath.Dir(newDir))
		}

		if err := t.fs.MoveDir(oldDir, newDir); err != nil {
			return errors.Wrapf(err, "moving table from %s to %s", oldDir, newDir)
		}
	}

	t.setIdent(newLoc, newNames)
	t.checker.setPath(newDir)
	t.log = t.newLogEntry()

	t.log.WithField("from", oldDir).Info("renamed table")
	return nil
}

// Truncate replaces the data and index files with empty ones and expects both to be empty. Truncating an
// empty table does nothing observable.
func (t *Table) Truncate(ctx context.Context) error {
	_, span := tracer.Start(ctx, "stripelog.Truncate")
	defer span.End()

	t.gate.Lock()
	defer t.gate.Unlock()

	if err := t.usable(); err != nil {
		return err
	}

	if err := t.createEmptyFiles(); err != nil {
		return err
	}

	t.log.Info("truncated table")
	return nil
}

// CheckData compares the size of each table file with the size recorded when it was last written. It
// only reports; nothing is repaired.
func (t *Table) CheckData(ctx context.Context) (CheckResults, error) {
	_, span := tracer.Start(ctx, "stripelog.CheckData")
	defer span.End()

	t.gate.RLock()
	defer t.gate.RUnlock()

	if err := t.usable(); err != nil {
		return nil, err
	}

	results, err := t.checker.check()
	if err != nil {
		return nil, err
	}

	failures := results.Failures()
	for _, f := range failures {
		t.log.WithFields(logrus.Fields{
			"file":     f.Path,
			"expected": f.Expected,
			"actual":   f.Actual,
		}).Warn(f.Message)
	}

	t.opts.Metrics.checkFailed(len(failures))
	span.SetAttributes(attribute.Int("failures", len(failures)))
	return results, nil
}

// Drop removes the table directory and everything in it. A dropped table cannot be used.
func (t *Table) Drop(ctx context.Context) error {
	_, span := tracer.Start(ctx, "stripelog.Drop")
	defer span.End()

	t.gate.Lock()
	defer t.gate.Unlock()

	if err := t.usable(); err != nil {
		return err
	}

	dir := t.loc.Dir()
	if err := t.fs.Delete(dir, true); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "removing %s", dir)
	}

	t.dropped = true
	t.releaseProcessLock()

	t.log.Info("dropped table")
	return nil
}
