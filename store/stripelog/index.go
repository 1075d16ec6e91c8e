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
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/dolthub/stripelog/libraries/utils/filesys"
	"github.com/dolthub/stripelog/store/column"
	"github.com/dolthub/stripelog/store/d"
)

// stripeRecord is the index entry for one written block. Its column marks locate each column's frames
// within the data file.
//
// Like the records of a chunk journal index, its serialization uses uint8 tag prefixes to identify fields:
//
// +---------+-----+------+-----+-------+---------------------------------------------+--------+
// | rec len | tag | rows | tag | ncols | (tag, name len, name, kind, offset, length)* | crc32c |
// | uint32  | u8  | u64  | u8  |  u16  | (u8, u16, bytes, u8, u64, u64)              | uint32 |
// +---------+-----+------+-----+-------+---------------------------------------------+--------+
type stripeRecord struct {
	rows    uint64
	columns []columnMark
}

type columnMark struct {
	name   string
	kind   column.Kind
	offset uint64
	length uint64
}

func (m columnMark) end() uint64 {
	return m.offset + m.length
}

type stripeRecTag uint8

const (
	unknownStripeRecTag  stripeRecTag = 0
	rowCountStripeRecTag stripeRecTag = 1
	numColsStripeRecTag  stripeRecTag = 2
	columnStripeRecTag   stripeRecTag = 3
)

const (
	stripeRecLenSz      = 4
	stripeRecTagSz      = 1
	stripeRecRowsSz     = 8
	stripeRecNumColsSz  = 2
	stripeRecNameLenSz  = 2
	stripeRecKindSz     = 1
	stripeRecOffsetSz   = 8
	stripeRecLengthSz   = 8
	stripeRecChecksumSz = 4

	stripeRecMinSz = stripeRecLenSz + stripeRecTagSz + stripeRecRowsSz + stripeRecTagSz + stripeRecNumColsSz + stripeRecChecksumSz
)

var crcTable = crc32.MakeTable(crc32.Castagnoli)

func crc(b []byte) uint32 {
	return crc32.Checksum(b, crcTable)
}

// mark returns the mark of the column named |name|.
func (r stripeRecord) mark(name string) (columnMark, bool) {
	for _, m := range r.columns {
		if m.name == name {
			return m, true
		}
	}

	return columnMark{}, false
}

func (r stripeRecord) size() (recordSz uint32) {
	recordSz += stripeRecLenSz
	recordSz += stripeRecTagSz + stripeRecRowsSz
	recordSz += stripeRecTagSz + stripeRecNumColsSz
	for _, m := range r.columns {
		recordSz += stripeRecTagSz + stripeRecNameLenSz + uint32(len(m.name))
		recordSz += stripeRecKindSz + stripeRecOffsetSz + stripeRecLengthSz
	}
	recordSz += stripeRecChecksumSz
	return
}

// appendStripeRecord serializes |r| to the end of |buf|.
func appendStripeRecord(buf []byte, r stripeRecord) []byte {
	d.PanicIfTrue(len(r.columns) > math.MaxUint16)

	start := len(buf)
	l := r.size()

	buf = binary.BigEndian.AppendUint32(buf, l)
	// row count
	buf = append(buf, byte(rowCountStripeRecTag))
	buf = binary.BigEndian.AppendUint64(buf, r.rows)
	// column count
	buf = append(buf, byte(numColsStripeRecTag))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(r.columns)))
	// column marks
	for _, m := range r.columns {
		d.PanicIfTrue(len(m.name) > math.MaxUint16)
		buf = append(buf, byte(columnStripeRecTag))
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(m.name)))
		buf = append(buf, m.name...)
		buf = append(buf, byte(m.kind))
		buf = binary.BigEndian.AppendUint64(buf, m.offset)
		buf = binary.BigEndian.AppendUint64(buf, m.length)
	}
	// checksum
	buf = binary.BigEndian.AppendUint32(buf, crc(buf[start:]))

	d.PanicIfFalse(uint32(len(buf)-start) == l)
	return buf
}

var errTruncatedRecord = errors.New("truncated record")

// readStripeRecord parses the record at the start of |buf| and returns it along with its encoded length.
func readStripeRecord(buf []byte) (rec stripeRecord, n int, err error) {
	if len(buf) < stripeRecMinSz {
		return rec, 0, errTruncatedRecord
	}

	l := binary.BigEndian.Uint32(buf)
	if l < stripeRecMinSz || uint64(l) > uint64(len(buf)) {
		return rec, 0, fmt.Errorf("record length %d is invalid with %d bytes remaining", l, len(buf))
	}

	n = int(l)
	body := buf[stripeRecLenSz : n-stripeRecChecksumSz]
	if crc(buf[:n-stripeRecChecksumSz]) != binary.BigEndian.Uint32(buf[n-stripeRecChecksumSz:n]) {
		return rec, 0, errors.New("record checksum mismatch")
	}

	var numCols uint16
	for len(body) > 0 {
		tag := stripeRecTag(body[0])
		body = body[stripeRecTagSz:]

		switch tag {
		case rowCountStripeRecTag:
			if len(body) < stripeRecRowsSz {
				return rec, 0, errTruncatedRecord
			}
			rec.rows = binary.BigEndian.Uint64(body)
			body = body[stripeRecRowsSz:]
		case numColsStripeRecTag:
			if len(body) < stripeRecNumColsSz {
				return rec, 0, errTruncatedRecord
			}
			numCols = binary.BigEndian.Uint16(body)
			body = body[stripeRecNumColsSz:]
			rec.columns = make([]columnMark, 0, numCols)
		case columnStripeRecTag:
			var m columnMark
			if m, body, err = readColumnMark(body); err != nil {
				return rec, 0, err
			}
			rec.columns = append(rec.columns, m)
		case unknownStripeRecTag:
			fallthrough
		default:
			return rec, 0, fmt.Errorf("unknown record field tag: %d", tag)
		}
	}

	if len(rec.columns) != int(numCols) {
		return rec, 0, fmt.Errorf("record declares %d columns but holds %d", numCols, len(rec.columns))
	}

	return rec, n, nil
}

func readColumnMark(body []byte) (m columnMark, rest []byte, err error) {
	if len(body) < stripeRecNameLenSz {
		return m, nil, errTruncatedRecord
	}

	nameLen := int(binary.BigEndian.Uint16(body))
	body = body[stripeRecNameLenSz:]

	if len(body) < nameLen+stripeRecKindSz+stripeRecOffsetSz+stripeRecLengthSz {
		return m, nil, errTruncatedRecord
	}

	m.name = string(body[:nameLen])
	body = body[nameLen:]
	m.kind = column.Kind(body[0])
	body = body[stripeRecKindSz:]
	m.offset = binary.BigEndian.Uint64(body)
	body = body[stripeRecOffsetSz:]
	m.length = binary.BigEndian.Uint64(body)
	body = body[stripeRecLengthSz:]

	if !m.kind.IsValid() {
		return m, nil, fmt.Errorf("column `%s` has unknown kind %d", m.name, uint8(m.kind))
	} else if m.end() < m.offset {
		return m, nil, fmt.Errorf("column `%s` range overflows", m.name)
	}

	return m, body, nil
}

// stripeIndex is the ordered list of stripe records of a table. Order is write order.
type stripeIndex struct {
	records []stripeRecord
}

func (idx stripeIndex) rowCount() (rows uint64) {
	for _, r := range idx.records {
		rows += r.rows
	}

	return rows
}

func (idx stripeIndex) encode() []byte {
	var sz int
	for _, r := range idx.records {
		sz += int(r.size())
	}

	buf := make([]byte, 0, sz)
	for _, r := range idx.records {
		buf = appendStripeRecord(buf, r)
	}

	return buf
}

func decodeStripeIndex(buf []byte) (stripeIndex, error) {
	var idx stripeIndex
	for len(buf) > 0 {
		rec, n, err := readStripeRecord(buf)
		if err != nil {
			return stripeIndex{}, fmt.Errorf("record %d: %w", len(idx.records), err)
		}

		idx.records = append(idx.records, rec)
		buf = buf[n:]
	}

	return idx, nil
}

// loadStripeIndex reads the whole index file at |path|.
func loadStripeIndex(fs filesys.ReadableFS, path string) (stripeIndex, error) {
	buf, err := fs.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return stripeIndex{}, ErrTableNotFound.New(filepath.Dir(path))
	} else if err != nil {
		return stripeIndex{}, errors.Wrapf(err, "reading stripe index %s", path)
	}

	idx, err := decodeStripeIndex(buf)
	if err != nil {
		return stripeIndex{}, ErrCorruptIndex.New(path, err.Error())
	}

	return idx, nil
}
