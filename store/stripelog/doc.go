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

// Package stripelog implements the StripeLog table storage engine. A table is a directory holding three
// files:
//
//	data.bin    compressed column frames, appended one block at a time and never rewritten
//	index.mrk   one stripe record per block, in write order, locating each column's frames in data.bin
//	sizes.json  the expected size of data.bin and index.mrk as of the last completed write
//
// Blocks are appended by a TableWriter, which holds the table exclusively for the length of the session.
// Reads hold the table shared and split the stripes into parallel BlockStreams. CheckData compares the
// files on disk with sizes.json to find truncated or partially written files.
package stripelog
