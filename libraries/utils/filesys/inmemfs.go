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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const inMemRoot = "/"

type memObj interface {
	isDir() bool
	parent() *memDir
}

type memFile struct {
	absPath   string
	data      []byte
	parentDir *memDir
}

func (mf *memFile) isDir() bool {
	return false
}

func (mf *memFile) parent() *memDir {
	return mf.parentDir
}

type memDir struct {
	absPath   string
	objs      map[string]memObj
	parentDir *memDir
}

func newEmptyDir(path string, parent *memDir) *memDir {
	return &memDir{path, make(map[string]memObj), parent}
}

func (md *memDir) isDir() bool {
	return true
}

func (md *memDir) parent() *memDir {
	return md.parentDir
}

// InMemFS is an in memory filesystem implementation that is primarily intended for testing
type InMemFS struct {
	rwLock *sync.RWMutex
	cwd    string
	objs   map[string]memObj

	// locks holds the state of every FilesysLock created against this filesystem, keyed by path
	locks map[string]*int32
}

var _ Filesys = (*InMemFS)(nil)

// EmptyInMemFS creates an empty InMemFS whose relative paths resolve against |workingDir|.
func EmptyInMemFS(workingDir string) *InMemFS {
	if workingDir == "" {
		workingDir = inMemRoot
	}

	if !filepath.IsAbs(workingDir) {
		panic("cwd for InMemFilesys must be absolute path.")
	}

	return &InMemFS{
		rwLock: &sync.RWMutex{},
		cwd:    filepath.Clean(workingDir),
		objs:   map[string]memObj{inMemRoot: newEmptyDir(inMemRoot, nil)},
		locks:  map[string]*int32{},
	}
}

func (fs *InMemFS) getAbsPath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(fs.cwd, path)
}

// Exists will tell you if a file or directory with a given path already exists, and if it does is it a directory
func (fs *InMemFS) Exists(path string) (exists bool, isDir bool) {
	fs.rwLock.RLock()
	defer fs.rwLock.RUnlock()

	return fs.exists(path)
}

func (fs *InMemFS) exists(path string) (exists bool, isDir bool) {
	path = fs.getAbsPath(path)

	if obj, ok := fs.objs[path]; ok {
		return true, obj.isDir()
	}

	return false, false
}

// Size returns the length of the file at |fp|
func (fs *InMemFS) Size(fp string) (int64, error) {
	fs.rwLock.RLock()
	defer fs.rwLock.RUnlock()

	f, err := fs.file(fp)

	if err != nil {
		return 0, err
	}

	return int64(len(f.data)), nil
}

func (fs *InMemFS) file(fp string) (*memFile, error) {
	obj, ok := fs.objs[fs.getAbsPath(fp)]

	if !ok {
		return nil, os.ErrNotExist
	} else if obj.isDir() {
		return nil, ErrIsDir
	}

	return obj.(*memFile), nil
}

// OpenForRead opens a file for reading
func (fs *InMemFS) OpenForRead(fp string) (io.ReadCloser, error) {
	r, err := fs.OpenForReadAt(fp)

	if err != nil {
		return nil, err
	}

	return io.NopCloser(io.NewSectionReader(r, 0, r.Size())), nil
}

// OpenForReadAt returns a reader over the contents of the file at the time it was opened. Later appends and
// replacements are not visible through the returned reader.
func (fs *InMemFS) OpenForReadAt(fp string) (ReadAtCloser, error) {
	fs.rwLock.RLock()
	defer fs.rwLock.RUnlock()

	f, err := fs.file(fp)

	if err != nil {
		return nil, err
	}

	return &inMemReaderAt{bytes.NewReader(f.data[:len(f.data):len(f.data)])}, nil
}

type inMemReaderAt struct {
	*bytes.Reader
}

func (r *inMemReaderAt) Close() error {
	return nil
}

// ReadFile reads the entire contents of a file
func (fs *InMemFS) ReadFile(fp string) ([]byte, error) {
	fs.rwLock.RLock()
	defer fs.rwLock.RUnlock()

	f, err := fs.file(fp)

	if err != nil {
		return nil, err
	}

	data := make([]byte, len(f.data))
	copy(data, f.data)
	return data, nil
}

type inMemAppender struct {
	fs     *InMemFS
	file   *memFile
	closed bool
}

func (w *inMemAppender) Write(p []byte) (int, error) {
	w.fs.rwLock.Lock()
	defer w.fs.rwLock.Unlock()

	if w.closed {
		return 0, os.ErrClosed
	} else if w.fs.objs[w.file.absPath] != w.file {
		// the file was deleted or replaced out from under the writer
		return 0, os.ErrNotExist
	}

	w.file.data = append(w.file.data, p...)
	return len(p), nil
}

func (w *inMemAppender) Sync() error {
	return nil
}

func (w *inMemAppender) Close() error {
	w.fs.rwLock.Lock()
	defer w.fs.rwLock.Unlock()

	w.closed = true
	return nil
}

// OpenForWriteAppend opens a file for writing.  The file will be created if it does not exist, and if it does exist
// it will append to existing file.
func (fs *InMemFS) OpenForWriteAppend(fp string, perm os.FileMode) (AppendWriter, error) {
	fs.rwLock.Lock()
	defer fs.rwLock.Unlock()

	fp = fs.getAbsPath(fp)

	if obj, ok := fs.objs[fp]; ok {
		if obj.isDir() {
			return nil, ErrIsDir
		}

		return &inMemAppender{fs: fs, file: obj.(*memFile)}, nil
	}

	parentDir, err := fs.mkDirs(filepath.Dir(fp))

	if err != nil {
		return nil, err
	}

	newFile := &memFile{fp, nil, parentDir}
	parentDir.objs[fp] = newFile
	fs.objs[fp] = newFile

	return &inMemAppender{fs: fs, file: newFile}, nil
}

// WriteFile writes the entire data buffer to a given file.  The file will be created if it does not exist,
// and if it does exist it will be replaced.
func (fs *InMemFS) WriteFile(fp string, data []byte, perm os.FileMode) error {
	fs.rwLock.Lock()
	defer fs.rwLock.Unlock()

	fp = fs.getAbsPath(fp)

	if exists, isDir := fs.exists(fp); exists && isDir {
		return ErrIsDir
	}

	parentDir, err := fs.mkDirs(filepath.Dir(fp))

	if err != nil {
		return err
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	newFile := &memFile{fp, buf, parentDir}
	parentDir.objs[fp] = newFile
	fs.objs[fp] = newFile

	return nil
}

// MkDirs creates a folder and all the parent folders that are necessary to create it.
func (fs *InMemFS) MkDirs(path string) error {
	fs.rwLock.Lock()
	defer fs.rwLock.Unlock()

	_, err := fs.mkDirs(path)
	return err
}

func (fs *InMemFS) mkDirs(path string) (*memDir, error) {
	path = fs.getAbsPath(path)
	elements := strings.Split(path, string(filepath.Separator))

	currPath := inMemRoot
	parentObj, ok := fs.objs[currPath]

	if !ok {
		panic("Filesystem does not have a root directory.")
	}

	parentDir := parentObj.(*memDir)
	for _, element := range elements {
		if element == "" {
			continue
		}

		currPath = filepath.Join(currPath, element)

		if obj, ok := fs.objs[currPath]; !ok {
			newDir := newEmptyDir(currPath, parentDir)
			parentDir.objs[currPath] = newDir
			fs.objs[currPath] = newDir
			parentDir = newDir
		} else if !obj.isDir() {
			return nil, errors.New("Could not create directory with same path as existing file: " + currPath)
		} else {
			parentDir = obj.(*memDir)
		}
	}

	return parentDir, nil
}

// DeleteFile will delete a file at the given path
func (fs *InMemFS) DeleteFile(path string) error {
	fs.rwLock.Lock()
	defer fs.rwLock.Unlock()

	return fs.deleteFile(path)
}

func (fs *InMemFS) deleteFile(path string) error {
	path = fs.getAbsPath(path)

	if obj, ok := fs.objs[path]; ok {
		if obj.isDir() {
			return ErrIsDir
		}

		delete(fs.objs, path)

		parentDir := obj.parent()
		if parentDir != nil {
			delete(parentDir.objs, path)
		}
	} else {
		return os.ErrNotExist
	}

	return nil
}

// Delete will delete an empty directory, or a file.  If trying delete a directory that is not empty you can set force to
// true in order to delete the dir and all of it's contents
func (fs *InMemFS) Delete(path string, force bool) error {
	fs.rwLock.Lock()
	defer fs.rwLock.Unlock()

	path = fs.getAbsPath(path)

	if exists, isDir := fs.exists(path); !exists {
		return os.ErrNotExist
	} else if !isDir {
		return fs.deleteFile(path)
	}

	dir := fs.objs[path].(*memDir)

	if !force && len(dir.objs) > 0 {
		return errors.New(path + " is a directory which is not empty. Delete the contents first, or set force to true")
	}

	fs.unlinkTree(dir)

	if parentDir := dir.parent(); parentDir != nil {
		delete(parentDir.objs, path)
	}

	return nil
}

// unlinkTree removes |dir| and everything below it from the path table. It must be called with the
// filesystem's read-write mutex locked.
func (fs *InMemFS) unlinkTree(dir *memDir) {
	for path, obj := range dir.objs {
		if sub, ok := obj.(*memDir); ok {
			fs.unlinkTree(sub)
		}
		delete(fs.objs, path)
	}

	delete(fs.objs, dir.absPath)
}

// MoveDir will move a directory from the srcPath in the filesystem to the destPath
func (fs *InMemFS) MoveDir(srcPath, destPath string) error {
	fs.rwLock.Lock()
	defer fs.rwLock.Unlock()

	srcPath = fs.getAbsPath(srcPath)
	destPath = fs.getAbsPath(destPath)

	if exists, destIsDir := fs.exists(filepath.Dir(destPath)); !exists || !destIsDir {
		return ErrDirNotExist
	}

	obj, ok := fs.objs[srcPath]
	if !ok {
		return os.ErrNotExist
	}

	if !obj.isDir() {
		return ErrIsFile
	}

	if _, exists := fs.objs[destPath]; exists {
		return ErrDestExists
	}

	if err := fs.moveDirHelper(obj.(*memDir), destPath); err != nil {
		return err
	}

	fs.moveLocks(srcPath, destPath)
	return nil
}

// moveLocks rekeys the lock state of every path under |srcPath| to the same path under |destPath|, so held
// locks move along with their directory. It must be called with the filesystem's read-write mutex locked.
func (fs *InMemFS) moveLocks(srcPath, destPath string) {
	moved := make(map[string]*int32)
	for path, state := range fs.locks {
		if strings.HasPrefix(path, srcPath+string(filepath.Separator)) {
			moved[filepath.Join(destPath, path[len(srcPath):])] = state
			delete(fs.locks, path)
		}
	}

	for path, state := range moved {
		fs.locks[path] = state
	}
}

// moveDirHelper must be called with the filesystem's read-write mutex locked
func (fs *InMemFS) moveDirHelper(dir *memDir, destPath string) error {
	destParentDir := fs.objs[filepath.Dir(destPath)].(*memDir)
	destObj := newEmptyDir(destPath, destParentDir)
	fs.objs[destPath] = destObj
	destParentDir.objs[destPath] = destObj

	for _, v := range dir.objs {
		switch obj := v.(type) {
		case *memDir:
			if err := fs.moveDirHelper(obj, filepath.Join(destPath, filepath.Base(obj.absPath))); err != nil {
				return err
			}
		case *memFile:
			fs.moveFileHelper(obj, destObj, filepath.Join(destPath, filepath.Base(obj.absPath)))
		default:
			return fmt.Errorf("unexpected type of memory object: %T", v)
		}
	}

	delete(dir.parentDir.objs, dir.absPath)
	delete(fs.objs, dir.absPath)
	return nil
}

// moveFileHelper must be called with the filesystem's read-write mutex locked
func (fs *InMemFS) moveFileHelper(obj *memFile, destParentDir *memDir, destPath string) {
	destObj := &memFile{destPath, obj.data, destParentDir}

	delete(fs.objs, obj.absPath)
	if parentDir := obj.parent(); parentDir != nil {
		delete(parentDir.objs, obj.absPath)
	}

	fs.objs[destPath] = destObj
	destParentDir.objs[destPath] = destObj
}

// converts a path to an absolute path.  If it's already an absolute path the input path will be returned unaltered
func (fs *InMemFS) Abs(path string) (string, error) {
	return fs.getAbsPath(path), nil
}

func (fs *InMemFS) lockState(path string) *int32 {
	fs.rwLock.Lock()
	defer fs.rwLock.Unlock()

	path = fs.getAbsPath(path)
	state, ok := fs.locks[path]

	if !ok {
		state = new(int32)
		fs.locks[path] = state
	}

	return state
}
