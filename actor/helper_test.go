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

package actor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tochemey/gobam/log"
)

type record struct {
	kind    packetKind
	id      uint64
	to      string
	from    string
	payload any
	err     error
}

// recorder is a Stream keeping every call it receives.
type recorder struct {
	mu      sync.Mutex
	records []record
}

var _ Stream = (*recorder)(nil)

func (r *recorder) add(rec record) {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
}

func (r *recorder) all() []record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]record, len(r.records))
	copy(out, r.records)
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func (r *recorder) Message(to, from string, payload any) {
	r.add(record{kind: kindMessage, to: to, from: from, payload: payload})
}

func (r *recorder) MessageError(to, from string, payload any, err error) {
	r.add(record{kind: kindMessageError, to: to, from: from, payload: payload, err: err})
}

func (r *recorder) Query(id uint64, to, from string, payload any) {
	r.add(record{kind: kindQuery, id: id, to: to, from: from, payload: payload})
}

func (r *recorder) QueryResult(id uint64, to, from string, payload any) {
	r.add(record{kind: kindQueryResult, id: id, to: to, from: from, payload: payload})
}

func (r *recorder) QueryError(id uint64, to, from string, payload any, err error) {
	r.add(record{kind: kindQueryError, id: id, to: to, from: from, payload: payload, err: err})
}

// panicky panics on every message and query.
func panicky(value any) *StreamFuncs {
	return &StreamFuncs{
		OnMessage: func(string, string, any) { panic(value) },
		OnQuery:   func(uint64, string, string, any) { panic(value) },
	}
}

// gate blocks dispatch until released, then forwards to next.
type gate struct {
	release chan struct{}
	next    Stream
}

func newGate(next Stream) *gate {
	return &gate{release: make(chan struct{}), next: next}
}

func (g *gate) Message(to, from string, payload any) {
	<-g.release
	g.next.Message(to, from, payload)
}

func (g *gate) MessageError(to, from string, payload any, err error) {
	<-g.release
	g.next.MessageError(to, from, payload, err)
}

func (g *gate) Query(id uint64, to, from string, payload any) {
	<-g.release
	g.next.Query(id, to, from, payload)
}

func (g *gate) QueryResult(id uint64, to, from string, payload any) {
	<-g.release
	g.next.QueryResult(id, to, from, payload)
}

func (g *gate) QueryError(id uint64, to, from string, payload any, err error) {
	<-g.release
	g.next.QueryError(id, to, from, payload, err)
}

func (g *gate) open() {
	close(g.release)
}

func newTestBroker(t *testing.T, domain string, opts ...Option) *Broker {
	t.Helper()
	opts = append([]Option{WithLogger(log.DiscardLogger)}, opts...)
	broker, err := NewBroker(domain, opts...)
	require.NoError(t, err)
	return broker
}

type bigPayload struct{ data []byte }

func (bigPayload) IsLargePayload() bool { return true }

// blob reads its own field, so a nil *blob panics when classified.
type blob struct{ size int }

func (b *blob) IsLargePayload() bool { return b.size > 1024 }
