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
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/dolthub/stripelog/libraries/utils/filesys"
)

// sizesFile is the json document stored in sizes.json
type sizesFile struct {
	Files map[string]fileSize `json:"files"`
}

type fileSize struct {
	Size int64 `json:"size"`
}

// fileChecker tracks the expected size of each managed file in a table directory and persists those
// sizes in the directory's sizes.json. Expected sizes only change through update and setEmpty, which
// persist the new sizes before adopting them.
type fileChecker struct {
	fs    filesys.Filesys
	dir   string
	sizes map[string]int64
}

func newFileChecker(fs filesys.Filesys, dir string) *fileChecker {
	return &fileChecker{fs: fs, dir: dir, sizes: map[string]int64{}}
}

func (fc *fileChecker) path() string {
	return filepath.Join(fc.dir, sizesFileName)
}

// setPath points the checker at a moved table directory.
func (fc *fileChecker) setPath(dir string) {
	fc.dir = dir
}

// load reads sizes.json. |exists| is false if the directory has none.
func (fc *fileChecker) load() (exists bool, err error) {
	var doc sizesFile
	err = filesys.UnmarshalJSONFile(fc.fs, fc.path(), &doc)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, errors.Wrapf(err, "reading %s", fc.path())
	}

	sizes := make(map[string]int64, len(doc.Files))
	for name, entry := range doc.Files {
		sizes[name] = entry.Size
	}

	fc.sizes = sizes
	return true, nil
}

// update sets the expected size of each file in |expected|. A negative size is replaced with the file's
// current size on disk.
func (fc *fileChecker) update(expected map[string]int64) error {
	sizes := make(map[string]int64, len(fc.sizes)+len(expected))
	for name, sz := range fc.sizes {
		sizes[name] = sz
	}

	for name, sz := range expected {
		if sz < 0 {
			var err error
			if sz, err = fc.fs.Size(filepath.Join(fc.dir, name)); err != nil {
				return errors.Wrapf(err, "getting size of %s", name)
			}
		}

		sizes[name] = sz
	}

	return fc.save(sizes)
}

// updateFromDisk sets the expected size of every named file to its current size.
func (fc *fileChecker) updateFromDisk(names ...string) error {
	expected := make(map[string]int64, len(names))
	for _, name := range names {
		expected[name] = -1
	}

	return fc.update(expected)
}

// setEmpty expects every named file to be empty.
func (fc *fileChecker) setEmpty(names ...string) error {
	expected := make(map[string]int64, len(names))
	for _, name := range names {
		expected[name] = 0
	}

	return fc.update(expected)
}

func (fc *fileChecker) save(sizes map[string]int64) error {
	doc := sizesFile{Files: make(map[string]fileSize, len(sizes))}
	for name, sz := range sizes {
		doc.Files[name] = fileSize{Size: sz}
	}

	if err := filesys.MarshalJSONFile(fc.fs, fc.path(), doc); err != nil {
		return errors.Wrapf(err, "writing %s", fc.path())
	}

	fc.sizes = sizes
	return nil
}

// check compares every tracked file's size on disk with its expected size.
func (fc *fileChecker) check() (CheckResults, error) {
	names := make([]string, 0, len(fc.sizes))
	for name := range fc.sizes {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(CheckResults, 0, len(names))
	for _, name := range names {
		path := filepath.Join(fc.dir, name)
		res := CheckResult{File: name, Path: path, Expected: fc.sizes[name]}

		actual, err := fc.fs.Size(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			res.Actual = -1
			res.Message = "file does not exist"
		case err != nil:
			return nil, errors.Wrapf(err, "getting size of %s", path)
		default:
			res.Actual = actual
			res.Success = actual == res.Expected
			if !res.Success {
				res.Message = fmt.Sprintf("size of file %s is %d, expected %d", name, actual, res.Expected)
			}
		}

		results = append(results, res)
	}

	return results, nil
}

// CheckResult is the outcome of comparing one table file with its expected size.
type CheckResult struct {
	File     string
	Path     string
	Expected int64
	// Actual is -1 for a missing file
	Actual  int64
	Success bool
	Message string
}

// Delta is the number of bytes the file is longer than expected. It is negative for a short file.
func (r CheckResult) Delta() int64 {
	if r.Actual < 0 {
		return -r.Expected
	}

	return r.Actual - r.Expected
}

// CheckResults holds one CheckResult per tracked file, ordered by file name.
type CheckResults []CheckResult

// Passed returns true if every file has its expected size.
func (rs CheckResults) Passed() bool {
	return len(rs.Failures()) == 0
}

// Failures returns the results for the files that do not have their expected size.
func (rs CheckResults) Failures() CheckResults {
	var failed CheckResults
	for _, r := range rs {
		if !r.Success {
			failed = append(failed, r)
		}
	}

	return failed
}

// Get returns the result for |file|.
func (rs CheckResults) Get(file string) (CheckResult, bool) {
	for _, r := range rs {
		if r.File == file {
			return r, true
		}
	}

	return CheckResult{}, false
}
