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
	"io"
	"os"
	"path/filepath"

	"github.com/edsrzf/mmap-go"
	"github.com/google/uuid"

	"github.com/dolthub/stripelog/libraries/utils/iohelp"
)

// LocalFS is the machines local filesystem
var LocalFS = &localFS{}

type localFS struct{}

var _ Filesys = (*localFS)(nil)

// Exists will tell you if a file or directory with a given path already exists, and if it does is it a directory
func (fs *localFS) Exists(path string) (exists bool, isDir bool) {
	stat, err := os.Stat(path)

	if err != nil {
		return false, false
	}

	return true, stat.IsDir()
}

// Size returns the length of the file at |fp|
func (fs *localFS) Size(fp string) (int64, error) {
	stat, err := os.Stat(fp)

	if err != nil {
		return 0, err
	} else if stat.IsDir() {
		return 0, ErrIsDir
	}

	return stat.Size(), nil
}

// OpenForRead opens a file for reading
func (fs *localFS) OpenForRead(fp string) (io.ReadCloser, error) {
	if exists, isDir := fs.Exists(fp); !exists {
		return nil, os.ErrNotExist
	} else if isDir {
		return nil, ErrIsDir
	}

	return os.Open(fp)
}

// OpenForReadAt memory maps the file at |fp| read only.
func (fs *localFS) OpenForReadAt(fp string) (ReadAtCloser, error) {
	if exists, isDir := fs.Exists(fp); !exists {
		return nil, os.ErrNotExist
	} else if isDir {
		return nil, ErrIsDir
	}

	f, err := os.Open(fp)

	if err != nil {
		return nil, err
	}

	stat, err := f.Stat()

	if err != nil {
		f.Close()
		return nil, err
	}

	// zero length files cannot be mapped
	if stat.Size() == 0 {
		if err = f.Close(); err != nil {
			return nil, err
		}

		return emptyReaderAt{}, nil
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)

	if err != nil {
		f.Close()
		return nil, err
	}

	return &mmapReaderAt{data: data, f: f}, nil
}

type mmapReaderAt struct {
	data mmap.MMap
	f    *os.File
}

func (r *mmapReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, os.ErrInvalid
	} else if off >= int64(len(r.data)) {
		return 0, io.EOF
	}

	n := copy(p, r.data[off:])

	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (r *mmapReaderAt) Size() int64 {
	return int64(len(r.data))
}

func (r *mmapReaderAt) Close() error {
	err := r.data.Unmap()
	cerr := r.f.Close()

	if err == nil {
		err = cerr
	}

	return err
}

type emptyReaderAt struct{}

func (emptyReaderAt) ReadAt(p []byte, off int64) (int, error) {
	return 0, io.EOF
}

func (emptyReaderAt) Size() int64 {
	return 0
}

func (emptyReaderAt) Close() error {
	return nil
}

// ReadFile reads the entire contents of a file
func (fs *localFS) ReadFile(fp string) ([]byte, error) {
	return os.ReadFile(fp)
}

// OpenForWriteAppend opens a file for writing. The file will be created if it does not exist, and it will
// append only to that new file. If file exists, it will append to existing file.
func (fs *localFS) OpenForWriteAppend(fp string, perm os.FileMode) (AppendWriter, error) {
	if exists, isDir := fs.Exists(fp); exists && isDir {
		return nil, ErrIsDir
	}

	return os.OpenFile(fp, os.O_CREATE|os.O_WRONLY|os.O_APPEND, perm)
}

// WriteFile writes the entire data buffer to a given file.  The data is written to a temporary file in the same
// directory which is then renamed over |fp|, so readers observe either the old or the new contents.
func (fs *localFS) WriteFile(fp string, data []byte, perm os.FileMode) (err error) {
	if exists, isDir := fs.Exists(fp); exists && isDir {
		return ErrIsDir
	}

	tmp := filepath.Join(filepath.Dir(fp), ".tmp-"+uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)

	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if err = iohelp.WriteAll(f, data); err != nil {
		f.Close()
		return err
	}

	if err = f.Sync(); err != nil {
		f.Close()
		return err
	}

	if err = f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, fp)
}

// MkDirs creates a folder and all the parent folders that are necessary to create it.
func (fs *localFS) MkDirs(path string) error {
	_, err := os.Stat(path)

	if err != nil {
		return os.MkdirAll(path, os.ModePerm)
	}

	return nil
}

// DeleteFile will delete a file at the given path
func (fs *localFS) DeleteFile(path string) error {
	if exists, isDir := fs.Exists(path); exists {
		if isDir {
			return ErrIsDir
		}

		return os.Remove(path)
	}

	return os.ErrNotExist
}

// Delete will delete an empty directory, or a file.  If trying delete a directory that is not empty you can set force to
// true in order to delete the dir and all of it's contents
func (fs *localFS) Delete(path string, force bool) error {
	if !force {
		return os.Remove(path)
	} else {
		return os.RemoveAll(path)
	}
}

// MoveDir will move a directory from the srcPath in the filesystem to the destPath
func (fs *localFS) MoveDir(srcPath, destPath string) error {
	var err error
	srcPath, err = fs.Abs(srcPath)

	if err != nil {
		return err
	}

	destPath, err = fs.Abs(destPath)

	if err != nil {
		return err
	}

	if exists, isDir := fs.Exists(srcPath); !exists {
		return os.ErrNotExist
	} else if !isDir {
		return ErrIsFile
	}

	if exists, isDir := fs.Exists(filepath.Dir(destPath)); !exists || !isDir {
		return ErrDirNotExist
	}

	if exists, _ := fs.Exists(destPath); exists {
		return ErrDestExists
	}

	return os.Rename(srcPath, destPath)
}

// converts a path to an absolute path.  If it's already an absolute path the input path will be returned unaltered
func (fs *localFS) Abs(path string) (string, error) {
	return filepath.Abs(path)
}
