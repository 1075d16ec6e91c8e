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

package test

import (
	"math/rand"
	"path/filepath"

	"github.com/google/uuid"
)

// TestDir returns a unique path for a test under |dir|. The directory is not created.
func TestDir(dir, testName string) string {
	return filepath.Join(dir, testName, uuid.NewString())
}

// RandomData returns |size| pseudo random bytes. The same size always produces the same bytes.
func RandomData(size int) []byte {
	rng := rand.New(rand.NewSource(int64(size)))
	data := make([]byte, size)
	rng.Read(data)
	return data
}

// RandomStrings returns |n| pseudo random lowercase strings of up to |maxLen| characters, seeded by |seed|.
func RandomStrings(seed int64, n, maxLen int) []string {
	rng := rand.New(rand.NewSource(seed))
	letters := []byte("abcdefghijklmnopqrstuvwxyz")

	strs := make([]string, n)
	for i := range strs {
		b := make([]byte, rng.Intn(maxLen+1))
		for j := range b {
			b[j] = letters[rng.Intn(len(letters))]
		}
		strs[i] = string(b)
	}

	return strs
}
