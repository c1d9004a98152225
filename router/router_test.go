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
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tochemey/gobam/actor"
	gerrors "github.com/tochemey/gobam/errors"
	"github.com/tochemey/gobam/log"
)

type delivery struct {
	to      string
	from    string
	payload any
	err     error
}

// inbox records the messages and message errors it receives.
type inbox struct {
	mu         sync.Mutex
	deliveries []delivery
}

func (x *inbox) record(d delivery) {
	x.mu.Lock()
	x.deliveries = append(x.deliveries, d)
	x.mu.Unlock()
}

func (x *inbox) all() []delivery {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]delivery(nil), x.deliveries...)
}

func (x *inbox) stream() *actor.StreamFuncs {
	return &actor.StreamFuncs{
		OnMessage: func(to, from string, payload any) {
			x.record(delivery{to: to, from: from, payload: payload})
		},
		OnMessageError: func(to, from string, payload any, err error) {
			x.record(delivery{to: to, from: from, payload: payload, err: err})
		},
	}
}

// answering registers a service answering every query with value or err.
func answering(t *testing.T, broker *actor.Broker, addr string, value any, err error) *actor.Ref {
	t.Helper()
	skeleton := actor.NewSkeleton(broker, log.DiscardLogger)
	actor.OnQuery(skeleton, func(string, any) (any, error) {
		return value, err
	})
	_, rerr := broker.Register(addr, skeleton)
	require.NoError(t, rerr)
	return actor.NewRef(broker, addr)
}

func newBroker(t *testing.T) *actor.Broker {
	t.Helper()
	broker, err := actor.NewBroker("b", actor.WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	return broker
}

func TestFirstAvailable(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	t.Run("Message goes to the first active candidate only", func(t *testing.T) {
		broker := newBroker(t)
		first, second, third := new(inbox), new(inbox), new(inbox)

		for addr, box := range map[string]*inbox{"one@b": first, "two@b": second, "three@b": third} {
			_, err := broker.Register(addr, box.stream())
			require.NoError(t, err)
		}
		require.True(t, broker.RemoveMailbox("one@b"))
		mailbox, ok := broker.Lookup("two@b")
		require.True(t, ok)
		mailbox.Close()

		refs := []ActorRef{actor.NewRef(broker, "one@b"), actor.NewRef(broker, "two@b"), actor.NewRef(broker, "three@b")}
		router, err := NewFirstAvailable(broker, refs, WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		defer router.Close()
		_, err = broker.Register("svc@b", router)
		require.NoError(t, err)

		broker.Message("svc@b", "caller@b", "hello")

		assert.Empty(t, first.all())
		assert.Empty(t, second.all())
		got := third.all()
		require.Len(t, got, 1)
		assert.Equal(t, "three@b", got[0].to)
		assert.Equal(t, "caller@b", got[0].from)
		assert.Equal(t, "hello", got[0].payload)
	})
	t.Run("Message without active candidate fails back to the sender", func(t *testing.T) {
		broker := newBroker(t)
		caller := new(inbox)
		_, err := broker.Register("caller@b", caller.stream())
		require.NoError(t, err)

		router, err := NewFirstAvailable(broker, []ActorRef{actor.NewRef(broker, "gone@b")}, WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		defer router.Close()
		_, err = broker.Register("svc@b", router)
		require.NoError(t, err)

		broker.Message("svc@b", "caller@b", "hello")

		got := caller.all()
		require.Len(t, got, 1)
		assert.Equal(t, "svc@b", got[0].from)
		assert.ErrorIs(t, got[0].err, gerrors.ErrNoValidActors)
	})
	t.Run("Query falls through failing candidates", func(t *testing.T) {
		broker := newBroker(t)
		refs := []ActorRef{
			actor.NewRef(broker, "inactive@b"),
			answering(t, broker, "broken@b", nil, errors.New("broken")),
			answering(t, broker, "good@b", "answer", nil),
			answering(t, broker, "unused@b", "other", nil),
		}
		router, err := NewFirstAvailable(broker, refs, WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		defer router.Close()
		_, err = broker.Register("svc@b", router)
		require.NoError(t, err)

		client, err := actor.NewClient(broker)
		require.NoError(t, err)
		defer client.Close()

		value, err := client.Ask(ctx, "svc@b", "question")
		require.NoError(t, err)
		assert.Equal(t, "answer", value)
	})
	t.Run("Query forwards a nil result", func(t *testing.T) {
		broker := newBroker(t)
		refs := []ActorRef{
			answering(t, broker, "empty@b", nil, nil),
			answering(t, broker, "good@b", "answer", nil),
		}
		router, err := NewFirstAvailable(broker, refs, WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		defer router.Close()
		_, err = broker.Register("svc@b", router)
		require.NoError(t, err)

		client, err := actor.NewClient(broker)
		require.NoError(t, err)
		defer client.Close()

		value, err := client.Ask(ctx, "svc@b", "question")
		require.NoError(t, err)
		assert.Nil(t, value)
	})
	t.Run("Query falls through a timed out candidate", func(t *testing.T) {
		broker := newBroker(t)
		_, err := broker.Register("silent@b", &actor.StreamFuncs{})
		require.NoError(t, err)
		refs := []ActorRef{
			actor.NewRef(broker, "silent@b"),
			answering(t, broker, "good@b", "answer", nil),
		}
		router, err := NewFirstAvailable(broker, refs, WithTimeout(30*time.Millisecond), WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		defer router.Close()
		_, err = broker.Register("svc@b", router)
		require.NoError(t, err)

		client, err := actor.NewClient(broker)
		require.NoError(t, err)
		defer client.Close()

		start := time.Now()
		value, err := client.Ask(ctx, "svc@b", "question")
		require.NoError(t, err)
		assert.Equal(t, "answer", value)
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})
	t.Run("Query exhausting the candidates fails", func(t *testing.T) {
		broker := newBroker(t)
		refs := []ActorRef{
			answering(t, broker, "broken@b", nil, errors.New("broken")),
			actor.NewRef(broker, "inactive@b"),
		}
		router, err := NewFirstAvailable(broker, refs, WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		defer router.Close()
		_, err = broker.Register("svc@b", router)
		require.NoError(t, err)

		client, err := actor.NewClient(broker)
		require.NoError(t, err)
		defer client.Close()

		_, err = client.Ask(ctx, "svc@b", "question")
		require.ErrorIs(t, err, gerrors.ErrNoValidActors)
		assert.Contains(t, err.Error(), "broken@b")
	})
	t.Run("SetCandidates replaces the list", func(t *testing.T) {
		broker := newBroker(t)
		router, err := NewFirstAvailable(broker, nil, WithLogger(log.DiscardLogger), WithUser("pool"))
		require.NoError(t, err)
		defer router.Close()

		assert.Empty(t, router.Candidates())
		assert.Equal(t, "pool@b/1", router.Client().Address())

		_, err = broker.Register("svc@b", router)
		require.NoError(t, err)
		client, err := actor.NewClient(broker)
		require.NoError(t, err)
		defer client.Close()

		_, err = client.Ask(ctx, "svc@b", "question")
		require.ErrorIs(t, err, gerrors.ErrNoValidActors)

		refs := []ActorRef{answering(t, broker, "good@b", "answer", nil)}
		router.SetCandidates(refs...)
		refs[0] = nil
		require.Len(t, router.Candidates(), 1)

		value, err := client.Ask(ctx, "svc@b", "question")
		require.NoError(t, err)
		assert.Equal(t, "answer", value)
	})
	t.Run("Closed broker", func(t *testing.T) {
		broker := newBroker(t)
		require.NoError(t, broker.Shutdown(ctx))
		_, err := NewFirstAvailable(broker, nil)
		assert.ErrorIs(t, err, gerrors.ErrBrokerClosed)
	})
}

func TestFirstResult(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	t.Run("Nil results fall through", func(t *testing.T) {
		broker := newBroker(t)
		refs := []ActorRef{
			answering(t, broker, "empty@b", nil, nil),
			answering(t, broker, "good@b", "answer", nil),
		}
		router, err := NewFirstResult(broker, refs, WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		defer router.Close()
		_, err = broker.Register("svc@b", router)
		require.NoError(t, err)

		client, err := actor.NewClient(broker)
		require.NoError(t, err)
		defer client.Close()

		value, err := client.Ask(ctx, "svc@b", "question")
		require.NoError(t, err)
		assert.Equal(t, "answer", value)
	})
	t.Run("No candidate answers nil", func(t *testing.T) {
		broker := newBroker(t)
		router, err := NewFirstResult(broker, nil, WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		defer router.Close()
		_, err = broker.Register("svc@b", router)
		require.NoError(t, err)

		client, err := actor.NewClient(broker)
		require.NoError(t, err)
		defer client.Close()

		value, err := client.Ask(ctx, "svc@b", "question")
		require.NoError(t, err)
		assert.Nil(t, value)
	})
	t.Run("Only empty or failing candidates fail", func(t *testing.T) {
		broker := newBroker(t)
		refs := []ActorRef{
			answering(t, broker, "empty@b", nil, nil),
			answering(t, broker, "broken@b", nil, gerrors.ErrServiceUnavailable),
		}
		router, err := NewFirstResult(broker, refs, WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		defer router.Close()
		_, err = broker.Register("svc@b", router)
		require.NoError(t, err)

		client, err := actor.NewClient(broker)
		require.NoError(t, err)
		defer client.Close()

		_, err = client.Ask(ctx, "svc@b", "question")
		assert.ErrorIs(t, err, gerrors.ErrNoValidActors)
	})
	t.Run("Inactive candidates fail", func(t *testing.T) {
		broker := newBroker(t)
		router, err := NewFirstResult(broker, []ActorRef{actor.NewRef(broker, "gone@b")}, WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		defer router.Close()
		_, err = broker.Register("svc@b", router)
		require.NoError(t, err)

		client, err := actor.NewClient(broker)
		require.NoError(t, err)
		defer client.Close()

		_, err = client.Ask(ctx, "svc@b", "question")
		assert.ErrorIs(t, err, gerrors.ErrNoValidActors)
	})
	t.Run("Close fails in-flight sub-queries", func(t *testing.T) {
		broker := newBroker(t)
		_, err := broker.Register("silent@b", &actor.StreamFuncs{})
		require.NoError(t, err)
		router, err := NewFirstResult(broker, []ActorRef{actor.NewRef(broker, "silent@b")}, WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		_, err = broker.Register("svc@b", router)
		require.NoError(t, err)

		client, err := actor.NewClient(broker)
		require.NoError(t, err)
		defer client.Close()

		f := client.AskFuture("svc@b", "question")
		require.Eventually(t, func() bool { return router.Client().Pending() == 1 }, time.Second, 5*time.Millisecond)
		router.Close()

		_, err = f.Get()
		assert.ErrorIs(t, err, gerrors.ErrNoValidActors)
	})
}
