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
	goerrors "errors"

	"gopkg.in/src-d/go-errors.v1"
)

var (
	ErrTableExists       = errors.NewKind("table `%s` already has files at %s")
	ErrTableNotFound     = errors.NewKind("no table found at %s")
	ErrPartialTableFiles = errors.NewKind("table at %s has %s but is missing %s")
	ErrStripeOutOfBounds = errors.NewKind("stripe %d column `%s` ends at offset %d which is past the end of the %d byte data file")
	ErrCorruptIndex      = errors.NewKind("stripe index %s is corrupt: %s")
	ErrTableLocked       = errors.NewKind("table at %s is locked by another process")
	ErrTableDropped      = errors.NewKind("table `%s` has been dropped")
)

var (
	ErrTableClosed  = goerrors.New("table is closed")
	ErrWriterClosed = goerrors.New("table writer is closed")
	ErrStreamClosed = goerrors.New("block stream is closed")
)
