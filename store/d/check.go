// Copyright 2020 Dolthub, Inc.
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

// Package d holds the invariant assertions used across the store. A failed assertion panics; these are for
// conditions that can only be false because of a programming error, never for bad input or I/O failures.
package d

import (
	"fmt"

	"github.com/stretchr/testify/assert"
)

// Chk panics with a formatted message when an assertion fails.
var Chk = assert.New(&panicker{})

type panicker struct {
}

func (s panicker) Errorf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

// PanicIfError panics with |err| when it is non-nil.
func PanicIfError(err error) {
	if err != nil {
		panic(err)
	}
}

// PanicIfTrue panics when |b| is true.
func PanicIfTrue(b bool) {
	if b {
		panic("expected false")
	}
}

// PanicIfFalse panics when |b| is false.
func PanicIfFalse(b bool) {
	if !b {
		panic("expected true")
	}
}
