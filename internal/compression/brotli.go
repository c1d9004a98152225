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
	"bytes"
	"sync"

	"github.com/andybalholm/brotli"
)

var brotliReaderPool = sync.Pool{
	New: func() any {
		return brotli.NewReader(nil)
	},
}

var brotliWriterPool = sync.Pool{
	New: func() any {
		return brotli.NewWriterLevel(nil, brotli.DefaultCompression)
	},
}

func brotliCompress(data []byte) ([]byte, error) {
	buffer := bytes.NewBuffer(make([]byte, 0, len(data)/2))

	writer := brotliWriterPool.Get().(*brotli.Writer)
	writer.Reset(buffer)
	defer func() {
		writer.Reset(nil)
		brotliWriterPool.Put(writer)
	}()

	if _, err := writer.Write(data); err != nil {
		return nil, err
	}
	// Close flushes the last block
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func brotliDecompress(data []byte, limit int) ([]byte, error) {
	reader := brotliReaderPool.Get().(*brotli.Reader)
	defer func() {
		_ = reader.Reset(nil)
		brotliReaderPool.Put(reader)
	}()

	if err := reader.Reset(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return readLimited(reader, limit)
}
