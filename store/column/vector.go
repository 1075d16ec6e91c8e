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

package column

import (
	"fmt"
)

// Vector is a sequence of values of a single Kind.
type Vector interface {
	Kind() Kind
	Len() int
	// Slice returns the values in [lo, hi). The result shares memory with the receiver.
	Slice(lo, hi int) Vector
	// Value returns the value at |i| as int64, float64, string or bool.
	Value(i int) interface{}
}

type Int64Vector []int64

func (v Int64Vector) Kind() Kind { return Int64Kind }
func (v Int64Vector) Len() int { return len(v) }
func (v Int64Vector) Slice(lo, hi int) Vector { return v[lo:hi] }
func (v Int64Vector) Value(i int) interface{} { return v[i] }

type Float64Vector []float64

func (v Float64Vector) Kind() Kind { return Float64Kind }
func (v Float64Vector) Len() int { return len(v) }
func (v Float64Vector) Slice(lo, hi int) Vector { return v[lo:hi] }
func (v Float64Vector) Value(i int) interface{} { return v[i] }

type StringVector []string

func (v StringVector) Kind() Kind { return StringKind }
func (v StringVector) Len() int { return len(v) }
func (v StringVector) Slice(lo, hi int) Vector { return v[lo:hi] }
func (v StringVector) Value(i int) interface{} { return v[i] }

type BoolVector []bool

func (v BoolVector) Kind() Kind { return BoolKind }
func (v BoolVector) Len() int { return len(v) }
func (v BoolVector) Slice(lo, hi int) Vector { return v[lo:hi] }
func (v BoolVector) Value(i int) interface{} { return v[i] }

// NewVector returns an empty vector of kind |k| with room for |capacity| values.
func NewVector(k Kind, capacity int) (Vector, error) {
	switch k {
	case Int64Kind:
		return make(Int64Vector, 0, capacity), nil
	case Float64Kind:
		return make(Float64Vector, 0, capacity), nil
	case StringKind:
		return make(StringVector, 0, capacity), nil
	case BoolKind:
		return make(BoolVector, 0, capacity), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, k)
}

// Append returns |v| with |val| added to the end. |val| must be the Go type of the vector's kind.
func Append(v Vector, val interface{}) (Vector, error) {
	switch vec := v.(type) {
	case Int64Vector:
		if i, ok := val.(int64); ok {
			return append(vec, i), nil
		}
	case Float64Vector:
		if f, ok := val.(float64); ok {
			return append(vec, f), nil
		}
	case StringVector:
		if s, ok := val.(string); ok {
			return append(vec, s), nil
		}
	case BoolVector:
		if b, ok := val.(bool); ok {
			return append(vec, b), nil
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, v)
	}

	return nil, fmt.Errorf("%w: cannot append %T to %s column", ErrTypeMismatch, val, v.Kind())
}
