// Copyright 2018 Andrew Fort
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package rfc6242

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"
)

// ErrMalformedChunk reports input that does not follow the RFC6242 chunked framing grammar.
var ErrMalformedChunk = errors.New("malformed chunked framing")

// DecodeChunked validates b against the chunked framing grammar (RFC6242 section 4.2)
//
//	Chunked-Message = 1*chunk end-of-chunks
//	chunk           = LF HASH chunk-size LF chunk-data
//	end-of-chunks   = LF HASH HASH LF
//
// and returns the concatenated chunk data. b must end exactly with the end-of-chunks token.
// Whitespace preceding the first chunk is ignored.
func DecodeChunked(b []byte) ([]byte, error) {
	// Devices commonly emit a newline after the hello end-of-message token.
	start := 0
	for start < len(b) && isSpace(b[start]) && !bytes.HasPrefix(b[start:], []byte("\n#")) {
		start++
	}

	var out bytes.Buffer
	chunks := 0
	pos := start
	for {
		if !bytes.HasPrefix(b[pos:], []byte("\n#")) {
			return nil, errors.Wrapf(ErrMalformedChunk, "expected chunk header at offset %d", pos)
		}
		pos += 2

		if bytes.Equal(b[pos:], []byte("#\n")) {
			if chunks == 0 {
				return nil, errors.Wrap(ErrMalformedChunk, "message has no chunks")
			}
			return out.Bytes(), nil
		}

		size, n, err := parseChunkSize(b[pos:])
		if err != nil {
			return nil, errors.Wrapf(err, "chunk header at offset %d", pos-2)
		}
		pos += n

		if uint64(len(b)-pos) < size {
			return nil, errors.Wrapf(ErrMalformedChunk, "chunk declares %d bytes, %d available", size, len(b)-pos)
		}
		out.Write(b[pos : pos+int(size)])
		pos += int(size)
		chunks++
	}
}

// parseChunkSize parses "<digits>\n", returning the size and the number of bytes consumed.
func parseChunkSize(b []byte) (size uint64, n int, err error) {
	end := bytes.IndexByte(b, '\n')
	if end < 0 || end > rfc6242maximumAllowedChunkSizeLength {
		return 0, 0, errors.Wrap(ErrMalformedChunk, "chunk size not terminated")
	}
	digits := b[:end]
	if len(digits) == 0 || digits[0] == '0' {
		return 0, 0, errors.Wrapf(ErrMalformedChunk, "invalid chunk size %q", digits)
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, 0, errors.Wrapf(ErrMalformedChunk, "invalid chunk size %q", digits)
		}
	}
	size, err = strconv.ParseUint(string(digits), 10, 64)
	if err != nil || size > rfc6242maximumAllowedChunkSize {
		return 0, 0, errors.Wrapf(ErrMalformedChunk, "chunk size %q out of range", digits)
	}
	return size, end + 1, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

const (
	// RFC6242 section 4.2 defines the "maximum allowed chunk-size".
	rfc6242maximumAllowedChunkSize = 4294967295
	// the length of `rfc6242maximumAllowedChunkSize` in bytes on the wire.
	rfc6242maximumAllowedChunkSizeLength = 10
)
