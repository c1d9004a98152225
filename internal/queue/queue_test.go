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

package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnbounded(t *testing.T) {
	t.Run("FIFO order", func(t *testing.T) {
		q := NewUnbounded[int]()
		require.True(t, q.IsEmpty())
		for i := range 5 {
			require.True(t, q.Push(i))
		}
		assert.EqualValues(t, 5, q.Len())
		for i := range 5 {
			v, ok := q.Pop()
			require.True(t, ok)
			assert.Equal(t, i, v)
		}
		_, ok := q.Pop()
		assert.False(t, ok)
		assert.True(t, q.IsEmpty())
	})
	t.Run("many producers", func(t *testing.T) {
		q := NewUnbounded[int]()
		var wg sync.WaitGroup
		for p := range 8 {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := range 100 {
					q.Push(p*100 + i)
				}
			}(p)
		}
		wg.Wait()
		assert.EqualValues(t, 800, q.Len())

		seen := make(map[int]struct{}, 800)
		for {
			v, ok := q.Pop()
			if !ok {
				break
			}
			seen[v] = struct{}{}
		}
		assert.Len(t, seen, 800)
	})
	t.Run("Dispose refuses pushes", func(t *testing.T) {
		q := NewUnbounded[string]()
		require.True(t, q.Push("a"))
		q.Dispose()
		assert.False(t, q.Push("b"))
		v, ok := q.Pop()
		assert.True(t, ok)
		assert.Equal(t, "a", v)
	})
}

func TestBounded(t *testing.T) {
	t.Run("refuses when full", func(t *testing.T) {
		q := NewBounded[int](2)
		require.EqualValues(t, 2, q.Cap())
		assert.True(t, q.Push(1))
		assert.True(t, q.Push(2))
		assert.False(t, q.Push(3))
		assert.EqualValues(t, 2, q.Len())

		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, 1, v)
		assert.True(t, q.Push(3))
	})
	t.Run("Pop on empty does not block", func(t *testing.T) {
		q := NewBounded[int](4)
		_, ok := q.Pop()
		assert.False(t, ok)
		assert.True(t, q.IsEmpty())
	})
	t.Run("Dispose", func(t *testing.T) {
		q := NewBounded[int](4)
		q.Dispose()
		assert.False(t, q.Push(1))
	})
}
