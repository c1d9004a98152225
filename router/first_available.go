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

// FirstAvailable sends each message to the first active candidate. A query
// goes to the first active candidate as well and falls through to the next
// one when it fails or times out. The first result is forwarded to the caller.
//
// FirstAvailable is a Stream: register it with a broker to give the candidate
// set one address.
type FirstAvailable struct {
	*router
}

var _ actor.Stream = (*FirstAvailable)(nil)

// NewFirstAvailable creates a FirstAvailable router over candidates.
func NewFirstAvailable(broker *actor.Broker, candidates []ActorRef, opts ...Option) (*FirstAvailable, error) {
	r, err := newRouter("first-available", broker, candidates, opts...)
	if err != nil {
		return nil, err
	}
	return &FirstAvailable{router: r}, nil
}

// Query implements actor.Stream.
func (x *FirstAvailable) Query(id uint64, to, from string, payload any) {
	x.route(x.Candidates(), 0, id, to, from, payload, acceptAny, nil)
}

func acceptAny(any) bool {
	return true
}
