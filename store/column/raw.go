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
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

const fixedWidthSz = 8

// appendRaw appends the uncompressed serialization of |v| to |buf|. Fixed width values are 8 byte little
// endian, bools are one byte and strings are a uvarint length followed by the bytes.
func appendRaw(buf []byte, v Vector) ([]byte, error) {
	switch vec := v.(type) {
	case Int64Vector:
		return appendFixed(buf, vec, func(i int64) uint64 { return uint64(i) }), nil
	case Float64Vector:
		return appendFixed(buf, vec, math.Float64bits), nil
	case BoolVector:
		for _, b := range vec {
			if b {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		}
		return buf, nil
	case StringVector:
		for _, s := range vec {
			buf = binary.AppendUvarint(buf, uint64(len(s)))
			buf = append(buf, s...)
		}
		return buf, nil
	}

	return nil, fmt.Errorf("%w: %T", ErrUnknownKind, v)
}

func appendFixed[T constraints.Integer | constraints.Float](buf []byte, vals []T, toBits func(T) uint64) []byte {
	for _, val := range vals {
		buf = binary.LittleEndian.AppendUint64(buf, toBits(val))
	}

	return buf
}

func decodeRaw(raw []byte, k Kind, rows uint64) (Vector, error) {
	switch k {
	case Int64Kind:
		vals, err := decodeFixed(raw, rows, func(u uint64) int64 { return int64(u) })
		if err != nil {
			return nil, err
		}
		return Int64Vector(vals), nil
	case Float64Kind:
		vals, err := decodeFixed(raw, rows, math.Float64frombits)
		if err != nil {
			return nil, err
		}
		return Float64Vector(vals), nil
	case BoolKind:
		return decodeBools(raw, rows)
	case StringKind:
		return decodeStrings(raw, rows)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, k)
}

func decodeFixed[T constraints.Integer | constraints.Float](raw []byte, rows uint64, fromBits func(uint64) T) ([]T, error) {
	if uint64(len(raw))/fixedWidthSz < rows {
		return nil, fmt.Errorf("%w: %d bytes hold fewer than %d values", ErrShortColumn, len(raw), rows)
	} else if uint64(len(raw)) != rows*fixedWidthSz {
		return nil, fmt.Errorf("%w: %d unexpected trailing bytes", ErrCorruptFrame, uint64(len(raw))-rows*fixedWidthSz)
	}

	vals := make([]T, rows)
	for i := range vals {
		vals[i] = fromBits(binary.LittleEndian.Uint64(raw[i*fixedWidthSz:]))
	}

	return vals, nil
}

func decodeBools(raw []byte, rows uint64) (Vector, error) {
	if uint64(len(raw)) < rows {
		return nil, fmt.Errorf("%w: %d bytes hold fewer than %d values", ErrShortColumn, len(raw), rows)
	} else if uint64(len(raw)) != rows {
		return nil, fmt.Errorf("%w: %d unexpected trailing bytes", ErrCorruptFrame, uint64(len(raw))-rows)
	}

	vals := make(BoolVector, rows)
	for i, b := range raw {
		switch b {
		case 0:
		case 1:
			vals[i] = true
		default:
			return nil, fmt.Errorf("%w: invalid bool byte %d", ErrCorruptFrame, b)
		}
	}

	return vals, nil
}

func decodeStrings(raw []byte, rows uint64) (Vector, error) {
	// every value takes at least one byte
	if uint64(len(raw)) < rows {
		return nil, fmt.Errorf("%w: %d bytes hold fewer than %d values", ErrShortColumn, len(raw), rows)
	}

	vals := make(StringVector, rows)
	for i := range vals {
		l, n := binary.Uvarint(raw)
		if n <= 0 {
			return nil, fmt.Errorf("%w: bad string length at value %d", ErrShortColumn, i)
		}
		raw = raw[n:]

		if l > uint64(len(raw)) {
			return nil, fmt.Errorf("%w: string of %d bytes at value %d exceeds the %d remaining", ErrShortColumn, l, i, len(raw))
		}

		vals[i] = string(raw[:l])
		raw = raw[l:]
	}

	if len(raw) != 0 {
		return nil, fmt.Errorf("%w: %d unexpected trailing bytes", ErrCorruptFrame, len(raw))
	}

	return vals, nil
}
