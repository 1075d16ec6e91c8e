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
	"os"

	"github.com/sirupsen/logrus"

	"github.com/dolthub/stripelog/store/column"
)

const filePerm os.FileMode = 0644

// Options are the tuning parameters of a Table. They are fixed for the lifetime of the Table.
type Options struct {
	// MaxCompressBlockSize bounds the uncompressed size of each compressed frame written to the data file.
	MaxCompressBlockSize int
	// Compression is the method used for new frames.
	Compression column.Compression
	// SyncOnClose makes a write session fsync the data file before it is finalized.
	SyncOnClose bool
	// ProcessLock holds a file lock in the table directory while the table is open, so that no other
	// process can open the same table.
	ProcessLock bool
	// Logger defaults to the logrus standard logger.
	Logger *logrus.Logger
	// Metrics may be nil.
	Metrics *Metrics
}

// DefaultOptions returns the Options used when none are configured.
func DefaultOptions() Options {
	return Options{
		MaxCompressBlockSize: column.DefaultMaxCompressBlockSize,
		Compression:          column.DefaultCompression,
		SyncOnClose:          true,
	}
}

func (opts Options) logger() *logrus.Logger {
	if opts.Logger == nil {
		return logrus.StandardLogger()
	}

	return opts.Logger
}
