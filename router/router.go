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

import (
	"fmt"
	"strings"

	"go.uber.org/atomic"

	"github.com/tochemey/gobam/actor"
	gerrors "github.com/tochemey/gobam/errors"
	"github.com/tochemey/gobam/future"
	"github.com/tochemey/gobam/log"
)

// ActorRef is a routing candidate.
type ActorRef interface {
	// Address returns the address traffic is sent to.
	Address() string
	// IsActive reports whether the candidate can currently receive traffic.
	IsActive() bool
}

var _ ActorRef = (*actor.Ref)(nil)

// acceptFunc decides whether a sub-query result ends the iteration.
type acceptFunc func(value any) bool

// router holds what both routing policies share: the ordered candidates,
// the broker replies go through and the client issuing sub-queries.
type router struct {
	name       string
	broker     *actor.Broker
	client     *actor.Client
	candidates *atomic.Pointer[[]ActorRef]
	logger     log.Logger
}

func newRouter(name string, broker *actor.Broker, candidates []ActorRef, opts ...Option) (*router, error) {
	cfg := newConfig(opts...)
	client, err := actor.NewClient(broker,
		actor.WithUser(cfg.user),
		actor.WithQueryTimeout(cfg.timeout),
		actor.WithClientLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s router: %w", name, err)
	}

	r := &router{
		name:       name,
		broker:     broker,
		client:     client,
		candidates: atomic.NewPointer(new([]ActorRef)),
		logger:     cfg.logger,
	}
	r.SetCandidates(candidates...)
	return r, nil
}

// SetCandidates replaces the candidate list.
func (r *router) SetCandidates(candidates ...ActorRef) {
	list := make([]ActorRef, len(candidates))
	copy(list, candidates)
	r.candidates.Store(&list)
}

// Candidates returns the current candidate list.
func (r *router) Candidates() []ActorRef {
	return *r.candidates.Load()
}

// Client returns the client issuing the sub-queries.
func (r *router) Client() *actor.Client {
	return r.client
}

// Close unregisters the sub-query client. Pending sub-queries fail and their
// original callers get an error reply.
func (r *router) Close() {
	r.client.Close()
}

// Message forwards to the first active candidate, keeping from so the
// candidate answers the original sender.
func (r *router) Message(to, from string, payload any) {
	for _, candidate := range r.Candidates() {
		if candidate.IsActive() {
			r.broker.Message(candidate.Address(), from, payload)
			return
		}
	}
	r.broker.MessageError(from, to, payload, gerrors.NoValidActors(fmt.Sprintf("%s: no active actor", to)))
}

// MessageError forwards to the first active candidate.
func (r *router) MessageError(to, from string, payload any, err error) {
	for _, candidate := range r.Candidates() {
		if candidate.IsActive() {
			r.broker.MessageError(candidate.Address(), from, payload, err)
			return
		}
	}
	r.logger.Debugf("%s: dropping message error from %s: no active actor", to, from)
}

// QueryResult implements actor.Stream. Sub-query answers reach the router
// client, not the router address.
func (r *router) QueryResult(id uint64, to, from string, _ any) {
	r.logger.Debugf("%s router %s: unexpected query result %d from %s", r.name, to, id, from)
}

// QueryError implements actor.Stream.
func (r *router) QueryError(id uint64, to, from string, _ any, err error) {
	r.logger.Debugf("%s router %s: unexpected query error %d from %s: %v", r.name, to, id, from, err)
}

// route issues the query to the active candidates in order, starting at
// index, until accept takes a result.
func (r *router) route(candidates []ActorRef, index int, id uint64, to, from string, payload any, accept acceptFunc, failures []string) {
	for index < len(candidates) && !candidates[index].IsActive() {
		index++
	}

	if index == len(candidates) {
		text := fmt.Sprintf("%s: no valid actor", to)
		if len(failures) > 0 {
			text = fmt.Sprintf("%s: no valid actor (%s)", to, strings.Join(failures, "; "))
		}
		r.broker.QueryError(id, from, to, payload, gerrors.NoValidActors(text))
		return
	}

	target := candidates[index].Address()
	r.client.AskCallback(target, payload, func(result future.Result) {
		switch {
		case result.Err != nil:
			r.logger.Debugf("%s router %s: %s failed query %d: %v", r.name, to, target, id, result.Err)
			failures = append(failures, fmt.Sprintf("%s: %v", target, result.Err))
		case !accept(result.Value):
			r.logger.Debugf("%s router %s: %s had no answer for query %d", r.name, to, target, id)
		default:
			r.broker.QueryResult(id, from, to, result.Value)
			return
		}
		r.route(candidates, index+1, id, to, from, payload, accept, failures)
	})
}
