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
	"sync/atomic"
)

type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
}

// Unbounded is a multi-producer single-consumer linked queue.
// reference: https://concurrencyfreaks.blogspot.com/2014/04/multi-producer-single-consumer-queue.html
type Unbounded[T any] struct {
	head     atomic.Pointer[node[T]]
	tail     *node[T]
	length   atomic.Int64
	disposed atomic.Bool
	lock     sync.Mutex
}

var _ Queue[int] = (*Unbounded[int])(nil)

// NewUnbounded creates an instance of Unbounded
func NewUnbounded[T any]() *Unbounded[T] {
	stub := new(node[T])
	q := &Unbounded[T]{tail: stub}
	q.head.Store(stub)
	return q
}

// Push places value at the head of the queue.
func (q *Unbounded[T]) Push(value T) bool {
	if q.disposed.Load() {
		return false
	}
	n := &node[T]{value: value}
	previous := q.head.Swap(n)
	previous.next.Store(n)
	q.length.Add(1)
	return true
}

// Pop takes the oldest value from the tail. Single consumer only.
func (q *Unbounded[T]) Pop() (T, bool) {
	var zero T
	q.lock.Lock()
	next := q.tail.next.Load()
	if next == nil {
		q.lock.Unlock()
		return zero, false
	}
	q.tail = next
	q.lock.Unlock()

	value := next.value
	next.value = zero
	q.length.Add(-1)
	return value, true
}

// Len returns queue length
func (q *Unbounded[T]) Len() int64 {
	return q.length.Load()
}

// IsEmpty returns true when the queue is empty
func (q *Unbounded[T]) IsEmpty() bool {
	q.lock.Lock()
	tail := q.tail
	q.lock.Unlock()
	return tail.next.Load() == nil
}

// Dispose refuses further pushes. Queued values can still be drained.
func (q *Unbounded[T]) Dispose() {
	q.disposed.Store(true)
}
