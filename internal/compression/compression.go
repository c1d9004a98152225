// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package compression

import (
	"errors"
	"fmt"
	"io"
)

// Algorithm identifies a payload compression algorithm.
type Algorithm uint8

const (
	// None leaves payloads as they are.
	None Algorithm = iota
	// Zstd is Zstandard.
	Zstd
	// Brotli is Brotli at the default level.
	Brotli
)

// ErrUnknownAlgorithm is returned for an Algorithm value with no codec.
var ErrUnknownAlgorithm = errors.New("unknown compression algorithm")

// ErrSizeExceeded is returned when decompressed data is larger than allowed.
var ErrSizeExceeded = errors.New("decompressed size exceeds the limit")

// String returns the IANA content-coding name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case None:
		return "identity"
	case Zstd:
		return "zstd"
	case Brotli:
		return "br"
	default:
		return fmt.Sprintf("Algorithm(%d)", uint8(a))
	}
}

// Compress compresses data with algorithm.
func Compress(algorithm Algorithm, data []byte) ([]byte, error) {
	switch algorithm {
	case None:
		return data, nil
	case Zstd:
		return zstdCompress(data), nil
	case Brotli:
		return brotliCompress(data)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, algorithm)
	}
}

// Decompress reverses Compress. When limit is positive, output larger than
// limit bytes fails with ErrSizeExceeded; data itself is not checked for None.
func Decompress(algorithm Algorithm, data []byte, limit int) ([]byte, error) {
	switch algorithm {
	case None:
		return data, nil
	case Zstd:
		return zstdDecompress(data, limit)
	case Brotli:
		return brotliDecompress(data, limit)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, algorithm)
	}
}

// readLimited reads r to the end, stopping one byte past limit.
func readLimited(r io.Reader, limit int) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if len(data) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrSizeExceeded, limit)
	}
	return data, nil
}
