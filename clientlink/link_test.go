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

package clientlink

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/gobam/actor"
	gerrors "github.com/tochemey/gobam/errors"
	"github.com/tochemey/gobam/log"
)

// frames is a Writer keeping the frames written to it.
type frames struct {
	mu   sync.Mutex
	list []*Frame
	err  error
}

func (f *frames) WriteFrame(frame *Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.list = append(f.list, frame)
	return nil
}

func (f *frames) all() []*Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Frame(nil), f.list...)
}

func newBroker(t *testing.T) *actor.Broker {
	t.Helper()
	broker, err := actor.NewBroker("b", actor.WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	return broker
}

func echo(t *testing.T, broker *actor.Broker) {
	t.Helper()
	skeleton := actor.NewSkeleton(broker, log.DiscardLogger)
	actor.OnQuery(skeleton, func(from string, payload string) (any, error) {
		return from + ":" + payload, nil
	})
	_, err := broker.Register("echo@b", skeleton)
	require.NoError(t, err)
}

func TestLink(t *testing.T) {
	t.Run("Address allocation", func(t *testing.T) {
		broker := newBroker(t)
		anonymous, err := NewLink(broker, new(frames))
		require.NoError(t, err)
		named, err := NewLink(broker, new(frames), WithUser("alice"))
		require.NoError(t, err)

		assert.Equal(t, "anon@b/1", anonymous.Address())
		assert.Equal(t, "alice@b/2", named.Address())
		assert.Equal(t, 2, broker.Len())
	})
	t.Run("Inbound frames use the link address as sender", func(t *testing.T) {
		broker := newBroker(t)
		echo(t, broker)
		writer := new(frames)
		link, err := NewLink(broker, writer, WithLinkLogger(log.DiscardLogger))
		require.NoError(t, err)

		require.NoError(t, link.Dispatch(&Frame{Kind: KindQuery, ID: 5, To: "echo@b", From: "admin@b", Payload: "hi"}))

		require.Eventually(t, func() bool {
			return len(writer.all()) == 1
		}, time.Second, 5*time.Millisecond)
		out := writer.all()
		assert.Equal(t, KindQueryResult, out[0].Kind)
		assert.EqualValues(t, 5, out[0].ID)
		assert.Equal(t, link.Address(), out[0].To)
		assert.Equal(t, "echo@b", out[0].From)
		assert.Equal(t, link.Address()+":hi", out[0].Payload)
	})
	t.Run("Broker traffic is written to the client", func(t *testing.T) {
		broker := newBroker(t)
		writer := new(frames)
		link, err := NewLink(broker, writer)
		require.NoError(t, err)

		broker.Message(link.Address(), "svc@b", "hello")
		broker.Query(3, link.Address(), "svc@b", "question")
		broker.MessageError(link.Address(), "svc@b", "hello", gerrors.ErrMailboxFull)
		broker.QueryError(4, link.Address(), "svc@b", nil, errors.New("boom"))

		require.Eventually(t, func() bool {
			return len(writer.all()) == 4
		}, time.Second, 5*time.Millisecond)
		out := writer.all()
		assert.Equal(t, KindMessage, out[0].Kind)
		assert.Equal(t, "svc@b", out[0].From)
		assert.Equal(t, KindQuery, out[1].Kind)
		assert.EqualValues(t, 3, out[1].ID)
		assert.ErrorIs(t, out[2].Err, gerrors.ErrMailboxFull)
		assert.ErrorIs(t, out[3].Err, gerrors.ErrDeliveryFailure)
	})
	t.Run("A slow client does not block the sender", func(t *testing.T) {
		broker := newBroker(t)
		release := make(chan struct{})
		writer := new(frames)
		slow := WriterFunc(func(frame *Frame) error {
			<-release
			return writer.WriteFrame(frame)
		})
		link, err := NewLink(broker, slow, WithLinkLogger(log.DiscardLogger))
		require.NoError(t, err)

		start := time.Now()
		for i := range 10 {
			broker.Message(link.Address(), "svc@b", fmt.Sprintf("m%d", i))
		}
		assert.Less(t, time.Since(start), 500*time.Millisecond)
		assert.Empty(t, writer.all())

		close(release)
		require.Eventually(t, func() bool {
			return len(writer.all()) == 10
		}, time.Second, 5*time.Millisecond)
		for i, frame := range writer.all() {
			assert.Equal(t, fmt.Sprintf("m%d", i), frame.Payload)
		}
		link.Close()
	})
	t.Run("Failed writes answer the sender", func(t *testing.T) {
		broker := newBroker(t)
		writer := &frames{err: errors.New("broken pipe")}
		link, err := NewLink(broker, writer, WithLinkLogger(log.DiscardLogger))
		require.NoError(t, err)

		client, err := actor.NewClient(broker)
		require.NoError(t, err)
		defer client.Close()

		_, err = client.AskFuture(link.Address(), "question").Get()
		assert.ErrorIs(t, err, gerrors.ErrServiceUnavailable)
	})
	t.Run("Inbound error frames", func(t *testing.T) {
		broker := newBroker(t)
		link, err := NewLink(broker, new(frames))
		require.NoError(t, err)

		client, err := actor.NewClient(broker)
		require.NoError(t, err)
		defer client.Close()

		f := client.AskFuture(link.Address(), "question")
		require.NoError(t, link.Dispatch(&Frame{Kind: KindQueryError, ID: 1, To: client.Address()}))
		_, err = f.Get()
		assert.ErrorIs(t, err, gerrors.ErrDeliveryFailure)

		g := client.AskFuture(link.Address(), "question")
		require.NoError(t, link.Dispatch(&Frame{
			Kind: KindQueryError,
			ID:   2,
			To:   client.Address(),
			Err:  gerrors.FeatureNotImplemented("question"),
		}))
		_, err = g.Get()
		assert.ErrorIs(t, err, gerrors.ErrFeatureNotImplemented)
	})
	t.Run("Close unregisters", func(t *testing.T) {
		broker := newBroker(t)
		link, err := NewLink(broker, new(frames))
		require.NoError(t, err)

		link.Close()
		link.Close()
		assert.True(t, link.IsClosed())
		_, ok := broker.Lookup(link.Address())
		assert.False(t, ok)
		assert.ErrorIs(t, link.Dispatch(&Frame{Kind: KindMessage, To: "a@b"}), gerrors.ErrMailboxClosed)
	})
	t.Run("Unknown kind", func(t *testing.T) {
		broker := newBroker(t)
		link, err := NewLink(broker, new(frames))
		require.NoError(t, err)
		assert.ErrorIs(t, link.Dispatch(&Frame{Kind: 42}), ErrMalformedFrame)
	})
	t.Run("Closed broker", func(t *testing.T) {
		broker := newBroker(t)
		require.NoError(t, broker.Shutdown(t.Context()))
		_, err := NewLink(broker, new(frames))
		assert.ErrorIs(t, err, gerrors.ErrBrokerClosed)
	})
}
