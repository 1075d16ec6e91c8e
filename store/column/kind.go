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

// Package column is the column chunk codec used by stripelog. A column chunk is a typed vector of values
// serialized as a sequence of independently compressed, checksummed frames.
package column

import (
	"fmt"
	"strings"
)

// Kind is the value type of a column.
type Kind uint8

const (
	UnknownKind Kind = iota
	Int64Kind
	Float64Kind
	StringKind
	BoolKind
)

var kindNames = map[Kind]string{
	Int64Kind:   "int64",
	Float64Kind: "float64",
	StringKind:  "string",
	BoolKind:    "bool",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// IsValid returns true for the kinds that can be encoded.
func (k Kind) IsValid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind returns the Kind named by |s|, ignoring case.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}

	return UnknownKind, fmt.Errorf("unknown column kind '%s'", s)
}
