// Copyright 2019 Dolthub, Inc.
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

package filesys

import (
	"errors"
	"io"
	"os"

	"github.com/goccy/go-json"
)

var ErrIsDir = errors.New("operation not valid on a directory")
var ErrIsFile = errors.New("operation not valid on a file")
var ErrDirNotExist = errors.New("directory does not exist")
var ErrDestExists = errors.New("destination already exists")

// ReadAtCloser is a random access handle on a file. Size is the length of the file at the time it was opened.
type ReadAtCloser interface {
	io.ReaderAt
	io.Closer
	Size() int64
}

// AppendWriter writes to the end of a file. Sync makes everything written so far durable.
type AppendWriter interface {
	io.Writer
	Sync() error
	Close() error
}

// ReadableFS is an interface providing read access to objs in a filesystem
type ReadableFS interface {

	// OpenForRead opens a file for reading
	OpenForRead(fp string) (io.ReadCloser, error)

	// OpenForReadAt opens a file for concurrent random access reads
	OpenForReadAt(fp string) (ReadAtCloser, error)

	// ReadFile reads the entire contents of a file
	ReadFile(fp string) ([]byte, error)

	// Exists will tell you if a file or directory with a given path already exists, and if it does is it a directory
	Exists(path string) (exists bool, isDir bool)

	// Size returns the length in bytes of the file at the given path.  os.ErrNotExist is returned for missing files.
	Size(fp string) (int64, error)

	// converts a path to an absolute path.  If it's already an absolute path the input path will be returned unaltered
	Abs(path string) (string, error)
}

// WritableFS is an interface providing write access to objs in a filesystem
type WritableFS interface {
	// OpenForWriteAppend opens |fp| for appending, creating it if needed. Every write lands at the current end of
	// the file.
	OpenForWriteAppend(fp string, perm os.FileMode) (AppendWriter, error)

	// WriteFile replaces the contents of |fp| with |data|. Readers see either the old or the new contents,
	// never a mix, and the new contents are durable when WriteFile returns.
	WriteFile(fp string, data []byte, perm os.FileMode) error

	// MkDirs creates a folder and all the parent folders that are necessary to create it.
	MkDirs(path string) error

	// DeleteFile will delete a file at the given path
	DeleteFile(path string) error

	// Delete will delete an empty directory, or a file.  If trying delete a directory that is not empty you can set force to
	// true in order to delete the dir and all of it's contents
	Delete(path string, force bool) error

	// MoveDir moves the directory |srcPath| and everything in it to |destPath| in one step. The parent of
	// |destPath| must exist and |destPath| itself must not.
	MoveDir(srcPath, destPath string) error
}

// Filesys is the storage table files live on.
type Filesys interface {
	ReadableFS
	WritableFS
}

// UnmarshalJSONFile reads the file at |path| and decodes it into |dest|.
func UnmarshalJSONFile(fs ReadableFS, path string, dest interface{}) error {
	data, err := fs.ReadFile(path)

	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

// MarshalJSONFile encodes |src| and atomically writes it to |path|.
func MarshalJSONFile(fs WritableFS, path string, src interface{}) error {
	data, err := json.MarshalIndent(src, "", "  ")

	if err != nil {
		return err
	}

	return fs.WriteFile(path, data, os.ModePerm)
}
