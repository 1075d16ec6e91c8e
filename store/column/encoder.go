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
	"io"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/dolthub/stripelog/libraries/utils/iohelp"
	"github.com/dolthub/stripelog/store/d"
)

// DefaultMaxCompressBlockSize is the largest number of uncompressed bytes placed in a single frame when an
// Encoder does not set one.
const DefaultMaxCompressBlockSize = 1 << 20

// frame layout, big endian
// +--------+-----------------+----------+-------------------+---------+
// | method | compressed size | raw size | xxhash64(payload) | payload |
// | uint8  |     uint32      |  uint32  |      uint64       |   ...   |
// +--------+-----------------+----------+-------------------+---------+
const (
	frameMethodSz     = 1
	frameCompressedSz = 4
	frameRawSz        = 4
	frameChecksumSz   = 8
	frameHeaderSize   = frameMethodSz + frameCompressedSz + frameRawSz + frameChecksumSz
)

// Encoder serializes vectors into frames.
type Encoder struct {
	// MaxCompressBlockSize bounds the uncompressed bytes held by one frame.
	MaxCompressBlockSize int
	Compression          Compression
}

// NewEncoder returns an Encoder, replacing a non-positive |maxCompressBlockSize| with the default.
func NewEncoder(maxCompressBlockSize int, c Compression) Encoder {
	if maxCompressBlockSize <= 0 {
		maxCompressBlockSize = DefaultMaxCompressBlockSize
	}

	return Encoder{MaxCompressBlockSize: maxCompressBlockSize, Compression: c}
}

// EncodeTo writes |v| to |w| and returns the number of bytes written. A frame whose payload does not shrink
// when compressed is stored uncompressed. An empty vector writes nothing.
func (e Encoder) EncodeTo(w io.Writer, v Vector) (int64, error) {
	raw, err := appendRaw(nil, v)
	if err != nil {
		return 0, err
	}

	blockSize := e.MaxCompressBlockSize
	if blockSize <= 0 {
		blockSize = DefaultMaxCompressBlockSize
	}

	var written int64
	var hdr [frameHeaderSize]byte
	for len(raw) > 0 {
		chunk := raw[:min(len(raw), blockSize)]
		raw = raw[len(chunk):]

		method := e.Compression
		payload, err := method.compress(chunk)
		if err != nil {
			return written, err
		}

		if len(payload) >= len(chunk) {
			method = NoCompression
			payload = chunk
		}

		d.PanicIfTrue(uint64(len(chunk)) > math.MaxUint32 || uint64(len(payload)) > math.MaxUint32)

		hdr[0] = byte(method)
		binary.BigEndian.PutUint32(hdr[frameMethodSz:], uint32(len(payload)))
		binary.BigEndian.PutUint32(hdr[frameMethodSz+frameCompressedSz:], uint32(len(chunk)))
		binary.BigEndian.PutUint64(hdr[frameMethodSz+frameCompressedSz+frameRawSz:], xxhash.Sum64(payload))

		if err = iohelp.WriteAll(w, hdr[:]); err != nil {
			return written, err
		}
		written += frameHeaderSize

		if err = iohelp.WriteAll(w, payload); err != nil {
			return written, err
		}
		written += int64(len(payload))
	}

	return written, nil
}

// Decode verifies and decompresses the frames in |buf| and decodes exactly |rows| values of kind |k|.
func Decode(buf []byte, k Kind, rows uint64) (Vector, error) {
	raw, err := readFrames(buf)
	if err != nil {
		return nil, err
	}

	return decodeRaw(raw, k, rows)
}

func readFrames(buf []byte) ([]byte, error) {
	var raw []byte
	for len(buf) > 0 {
		if len(buf) < frameHeaderSize {
			return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptFrame, len(buf))
		}

		method := Compression(buf[0])
		compressedSz := binary.BigEndian.Uint32(buf[frameMethodSz:])
		rawSz := binary.BigEndian.Uint32(buf[frameMethodSz+frameCompressedSz:])
		checksum := binary.BigEndian.Uint64(buf[frameMethodSz+frameCompressedSz+frameRawSz:])
		buf = buf[frameHeaderSize:]

		if uint64(compressedSz) > uint64(len(buf)) {
			return nil, fmt.Errorf("%w: payload of %d bytes exceeds the %d remaining", ErrCorruptFrame, compressedSz, len(buf))
		}

		payload := buf[:compressedSz]
		buf = buf[compressedSz:]

		if xxhash.Sum64(payload) != checksum {
			return nil, ErrChecksumMismatch
		}

		start := len(raw)
		var err error
		raw, err = method.decompress(raw, payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFrame, err)
		}

		if len(raw)-start != int(rawSz) {
			return nil, fmt.Errorf("%w: frame decompressed to %d bytes, expected %d", ErrCorruptFrame, len(raw)-start, rawSz)
		}
	}

	return raw, nil
}
