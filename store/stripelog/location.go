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
	"path/filepath"
)

const (
	dataFileName  = "data.bin"
	indexFileName = "index.mrk"
	sizesFileName = "sizes.json"
	lockFileName  = "LOCK"
)

// Location identifies the directory holding a table's files: |Path| relative to the disk root |Root|.
// A Location is a value; a rename replaces a table's Location rather than editing it.
type Location struct {
	Root string
	Path string
}

// Dir returns the table directory.
func (l Location) Dir() string {
	return filepath.Join(l.Root, l.Path)
}

func (l Location) dataPath() string {
	return filepath.Join(l.Dir(), dataFileName)
}

func (l Location) indexPath() string {
	return filepath.Join(l.Dir(), indexFileName)
}

func (l Location) lockPath() string {
	return filepath.Join(l.Dir(), lockFileName)
}

// Names are the catalog names of a table.
type Names struct {
	Database string
	Table    string
}

func (n Names) String() string {
	if n.Database == "" {
		return n.Table
	}

	return n.Database + "." + n.Table
}
