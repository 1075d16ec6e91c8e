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
	"strings"

	"github.com/dolthub/gozstd"
	"github.com/golang/snappy"
)

// Compression is the method used to compress a frame. It is stored in every frame header, so a column
// may be read back regardless of the Encoder settings it was written with.
type Compression uint8

const (
	NoCompression Compression = iota
	SnappyCompression
	ZstdCompression
)

// DefaultCompression is used by encoders that don't specify one.
const DefaultCompression = SnappyCompression

func (c Compression) String() string {
	switch c {
	case NoCompression:
		return "none"
	case SnappyCompression:
		return "snappy"
	case ZstdCompression:
		return "zstd"
	}

	return fmt.Sprintf("unknown(%d)", uint8(c))
}

// ParseCompression returns the Compression named by |s|. The empty string is DefaultCompression.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultCompression, nil
	case "none":
		return NoCompression, nil
	case "snappy":
		return SnappyCompression, nil
	case "zstd":
		return ZstdCompression, nil
	}

	return 0, fmt.Errorf("unknown compression method '%s'", s)
}

// compress returns |src| compressed with |c|. The result may alias |src|.
func (c Compression) compress(src []byte) ([]byte, error) {
	switch c {
	case NoCompression:
		return src, nil
	case SnappyCompression:
		return snappy.Encode(nil, src), nil
	case ZstdCompression:
		return gozstd.Compress(nil, src), nil
	}

	return nil, fmt.Errorf("unknown compression method %d", uint8(c))
}

// decompress appends the decompressed contents of |src| to |dst|.
func (c Compression) decompress(dst, src []byte) ([]byte, error) {
	switch c {
	case NoCompression:
		return append(dst, src...), nil
	case SnappyCompression:
		out, err := snappy.Decode(nil, src)
		if err != nil {
			return nil, err
		}

		return append(dst, out...), nil
	case ZstdCompression:
		return gozstd.Decompress(dst, src)
	}

	return nil, fmt.Errorf("%w: unknown compression method %d", ErrCorruptFrame, uint8(c))
}
