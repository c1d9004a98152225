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

package future

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/gobam/errors"
)

// DefaultTimeout applies when a Future is created without a positive timeout.
const DefaultTimeout = 5 * time.Second

// State is the resolution state of a Future.
type State int32

const (
	// Unset means no result has arrived yet.
	Unset State = iota
	// Resolved means a query result arrived first.
	Resolved
	// Failed means a query error arrived first.
	Failed
	// Expired means the deadline elapsed first.
	Expired
)

func (s State) String() string {
	switch s {
	case Unset:
		return "unset"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Result is the outcome of a query.
type Result struct {
	// To is the address the reply was sent to.
	To string
	// From is the address that replied.
	From string
	// Value is the reply payload. For errors it is the payload that came with the error.
	Value any
	// Err is set when the query failed or expired.
	Err error
}

// Future is one outstanding query. It leaves Unset exactly once: the first of
// OnQueryResult, OnQueryError or the deadline wins and later calls are no-ops.
type Future struct {
	timeout time.Duration
	state   *atomic.Int32
	done    chan struct{}
	timer   *time.Timer
	result  Result

	mu        sync.Mutex
	callbacks []func(Result)
}

// New creates a Future whose deadline starts now.
func New(timeout time.Duration) *Future {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	f := &Future{
		timeout: timeout,
		state:   atomic.NewInt32(int32(Unset)),
		done:    make(chan struct{}),
	}
	f.mu.Lock()
	f.timer = time.AfterFunc(timeout, f.expire)
	f.mu.Unlock()
	return f
}

// OnQueryResult resolves the future with value. It reports whether this call won.
func (f *Future) OnQueryResult(to, from string, value any) bool {
	return f.complete(Resolved, Result{To: to, From: from, Value: value})
}

// OnQueryError fails the future with err. A nil err is recorded as a delivery failure.
// It reports whether this call won.
func (f *Future) OnQueryError(to, from string, payload any, err error) bool {
	if err == nil {
		err = gerrors.ErrDeliveryFailure
	}
	return f.complete(Failed, Result{To: to, From: from, Value: payload, Err: err})
}

// Cancel fails the future with err unless it is already resolved.
func (f *Future) Cancel(err error) bool {
	return f.complete(Failed, Result{Err: err})
}

// Get blocks until the future leaves Unset. An expired future returns ErrQueryTimeout.
func (f *Future) Get() (any, error) {
	<-f.done
	return f.result.Value, f.result.Err
}

// Await is Get bounded by ctx. Cancelling ctx does not resolve the future.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.result.Value, f.result.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OnComplete registers cb to run once with the outcome. cb runs immediately
// when the future is already resolved, otherwise on the resolving goroutine.
func (f *Future) OnComplete(cb func(Result)) {
	f.mu.Lock()
	select {
	case <-f.done:
		f.mu.Unlock()
		cb(f.result)
		return
	default:
	}
	f.callbacks = append(f.callbacks, cb)
	f.mu.Unlock()
}

// Done is closed once the future leaves Unset.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Outcome returns the result and true once the future is resolved.
func (f *Future) Outcome() (Result, bool) {
	select {
	case <-f.done:
		return f.result, true
	default:
		return Result{}, false
	}
}

// State returns the current state.
func (f *Future) State() State {
	return State(f.state.Load())
}

// Timeout returns the deadline the future was created with.
func (f *Future) Timeout() time.Duration {
	return f.timeout
}

func (f *Future) expire() {
	f.complete(Expired, Result{Err: gerrors.ErrQueryTimeout})
}

func (f *Future) complete(state State, result Result) bool {
	if !f.state.CompareAndSwap(int32(Unset), int32(state)) {
		return false
	}

	f.result = result

	f.mu.Lock()
	f.timer.Stop()
	close(f.done)
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(result)
	}
	return true
}
