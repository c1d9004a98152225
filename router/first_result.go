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

package router

import "github.com/tochemey/gobam/actor"

// FirstResult is FirstAvailable for lookups across equivalent backends that
// may not know the answer: a nil result counts as no answer and the query
// moves on to the next candidate.
//
// With no candidate at all the query is answered with a nil result. With
// candidates that all fail or answer nil it is answered with a
// remote-connection-failed error.
type FirstResult struct {
	*router
}

var _ actor.Stream = (*FirstResult)(nil)

// NewFirstResult creates a FirstResult router over candidates.
func NewFirstResult(broker *actor.Broker, candidates []ActorRef, opts ...Option) (*FirstResult, error) {
	r, err := newRouter("first-result", broker, candidates, opts...)
	if err != nil {
		return nil, err
	}
	return &FirstResult{router: r}, nil
}

// Query implements actor.Stream.
func (x *FirstResult) Query(id uint64, to, from string, payload any) {
	candidates := x.Candidates()
	if len(candidates) == 0 {
		x.broker.QueryResult(id, from, to, nil)
		return
	}
	x.route(candidates, 0, id, to, from, payload, acceptNonNil, nil)
}

func acceptNonNil(value any) bool {
	return value != nil
}
