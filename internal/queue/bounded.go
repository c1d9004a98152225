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
	gods "github.com/Workiva/go-datastructures/queue"
)

// Bounded is a fixed capacity queue backed by a ring buffer.
// Push never blocks: a full queue refuses the value.
type Bounded[T any] struct {
	underlying *gods.RingBuffer
}

var _ Queue[int] = (*Bounded[int])(nil)

// NewBounded creates a Bounded queue. The ring buffer rounds capacity up
// to the next power of two.
func NewBounded[T any](capacity int) *Bounded[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Bounded[T]{underlying: gods.NewRingBuffer(uint64(capacity))}
}

// Push offers value to the ring buffer.
func (q *Bounded[T]) Push(value T) bool {
	ok, err := q.underlying.Offer(value)
	return ok && err == nil
}

// Pop removes the oldest value. Single consumer only, so checking the length
// first keeps the underlying Get from blocking.
func (q *Bounded[T]) Pop() (T, bool) {
	var zero T
	if q.underlying.Len() == 0 {
		return zero, false
	}
	item, err := q.underlying.Get()
	if err != nil {
		return zero, false
	}
	value, ok := item.(T)
	if !ok {
		return zero, false
	}
	return value, true
}

// Len returns the current number of values.
func (q *Bounded[T]) Len() int64 {
	return int64(q.underlying.Len())
}

// IsEmpty reports whether the queue currently has no values.
func (q *Bounded[T]) IsEmpty() bool {
	return q.underlying.Len() == 0
}

// Cap returns the effective capacity.
func (q *Bounded[T]) Cap() int64 {
	return int64(q.underlying.Cap())
}

// Dispose releases the ring buffer.
func (q *Bounded[T]) Dispose() {
	q.underlying.Dispose()
}
