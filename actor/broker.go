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
	"context"
	"fmt"
	"regexp"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/gobam/address"
	gerrors "github.com/tochemey/gobam/errors"
	"github.com/tochemey/gobam/internal/metric"
	"github.com/tochemey/gobam/internal/validation"
	"github.com/tochemey/gobam/internal/xsync"
	"github.com/tochemey/gobam/log"
)

var domainPattern = regexp.MustCompile(`^[^\s@/]+$`)

// Broker routes traffic between mailboxes by address. It is itself a Stream:
// every call resolves the destination and forwards to its mailbox, or to the
// fallback when the destination is unknown. Broker calls never panic and never
// return errors; failures come back to the sender as error replies.
type Broker struct {
	domain     string
	aliases    mapset.Set[string]
	mailboxes  *xsync.Map[string, Mailbox]
	generator  *address.Generator
	fallback   Stream
	federation *Federation
	logger     log.Logger

	closed  *atomic.Bool
	started *atomic.Bool

	startupQueueSize int
	pendingMu        sync.Mutex
	pending          []*packet

	meterProvider otelmetric.MeterProvider
	metrics       *metric.BrokerMetric
	registration  otelmetric.Registration
	attributes    otelmetric.MeasurementOption
}

var _ Stream = (*Broker)(nil)

// NewBroker creates a broker answering for domain.
func NewBroker(domain string, opts ...Option) (*Broker, error) {
	err := validation.New(validation.FailFast()).
		AddValidator(validation.NewRequired("domain", domain)).
		AddValidator(validation.NewPattern("domain", domainPattern, domain)).
		Validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gerrors.ErrInvalidAddress, err)
	}

	broker := &Broker{
		domain:    domain,
		aliases:   mapset.NewSet[string](),
		mailboxes: xsync.NewMap[string, Mailbox](),
		generator: address.NewGenerator(domain),
		logger:    log.DefaultLogger,
		closed:    atomic.NewBool(false),
		started:   atomic.NewBool(true),
	}

	for _, opt := range opts {
		opt.Apply(broker)
	}

	if broker.fallback == nil {
		broker.fallback = newFallback(broker, broker.logger)
	}

	if broker.startupQueueSize > 0 {
		broker.started.Store(false)
	}

	if err := broker.registerMetrics(); err != nil {
		return nil, err
	}

	if broker.federation != nil {
		if err := broker.federation.Join(broker); err != nil {
			return nil, multierr.Append(err, broker.registration.Unregister())
		}
	}

	return broker, nil
}

// Domain returns the broker domain.
func (b *Broker) Domain() string {
	return b.domain
}

// Logger returns the broker logger.
func (b *Broker) Logger() log.Logger {
	return b.logger
}

// Aliases returns the additional domains answered by the broker.
func (b *Broker) Aliases() []string {
	return b.aliases.ToSlice()
}

// AddAlias makes the broker answer for domain as well.
func (b *Broker) AddAlias(domain string) error {
	if domain == "" || !domainPattern.MatchString(domain) {
		return fmt.Errorf("%w: malformed domain %q", gerrors.ErrInvalidAddress, domain)
	}
	if b.federation != nil {
		if err := b.federation.bind(domain, b); err != nil {
			return err
		}
	}
	b.aliases.Add(domain)
	return nil
}

// IsLocal reports whether domain is answered by this broker.
func (b *Broker) IsLocal(domain string) bool {
	return domain == b.domain || b.aliases.Contains(domain)
}

// NewAddress allocates a unique {user}@{domain}/{id} address.
func (b *Broker) NewAddress(user string) string {
	return b.generator.Next(user)
}

// Len returns the number of registered mailboxes.
func (b *Broker) Len() int {
	return b.mailboxes.Len()
}

// IsClosed reports whether Shutdown has been called.
func (b *Broker) IsClosed() bool {
	return b.closed.Load()
}

// AddMailbox registers mailbox under addr. An existing registration is
// replaced, and the replaced mailbox is closed, so that a restarting actor
// can register again under the same address.
func (b *Broker) AddMailbox(addr string, mailbox Mailbox) error {
	if b.closed.Load() {
		return gerrors.ErrBrokerClosed
	}
	if addr == "" || mailbox == nil {
		return fmt.Errorf("%w: empty address or nil mailbox", gerrors.ErrInvalidAddress)
	}

	addr = address.Complete(addr, b.domain)
	if previous, loaded := b.mailboxes.Swap(addr, mailbox); loaded && previous != mailbox {
		b.logger.Infof("mailbox %s replaced", addr)
		previous.Close()
	}

	b.flushPending(addr)
	return nil
}

// RemoveMailbox unregisters addr without closing its mailbox.
func (b *Broker) RemoveMailbox(addr string) bool {
	_, ok := b.mailboxes.GetAndDelete(address.Complete(addr, b.domain))
	return ok
}

// Unregister removes mailbox when it is still the one registered under its
// address, then closes it.
func (b *Broker) Unregister(mailbox Mailbox) bool {
	removed := b.mailboxes.DeleteIf(mailbox.Address(), func(current Mailbox) bool {
		return current == mailbox
	})
	mailbox.Close()
	return removed
}

// Register creates a mailbox for target and adds it under addr. The mailbox
// is a PassthroughMailbox unless WithWorkers asks for a QueueMailbox.
func (b *Broker) Register(addr string, target Stream, opts ...MailboxOption) (Mailbox, error) {
	opts = append([]MailboxOption{WithMailboxLogger(b.logger)}, opts...)
	addr = address.Complete(addr, b.domain)

	var mailbox Mailbox
	if newMailboxConfig(opts...).workers > 0 {
		mailbox = NewQueueMailbox(addr, target, b, opts...)
	} else {
		mailbox = NewPassthroughMailbox(addr, target, b, opts...)
	}

	if err := b.AddMailbox(addr, mailbox); err != nil {
		return nil, err
	}
	return mailbox, nil
}

// Lookup resolves addr. Addresses ending in '@' are completed with the broker
// domain. Addresses in another domain are resolved through the federation.
func (b *Broker) Lookup(addr string) (Mailbox, bool) {
	addr = address.Complete(addr, b.domain)
	if mailbox, ok := b.mailboxes.Get(addr); ok {
		return mailbox, true
	}

	if b.federation == nil {
		return nil, false
	}

	domain := address.DomainOf(addr)
	if b.IsLocal(domain) {
		return nil, false
	}

	if other, ok := b.federation.Broker(domain); ok && other != b {
		return other.mailboxes.Get(addr)
	}
	return nil, false
}

// Start delivers the packets held since creation. It is a no-op for brokers
// created without WithStartupQueue.
func (b *Broker) Start(ctx context.Context) error {
	if b.closed.Load() {
		return gerrors.ErrBrokerClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !b.started.CompareAndSwap(false, true) {
		return nil
	}

	b.pendingMu.Lock()
	held := b.pending
	b.pending = nil
	b.pendingMu.Unlock()

	b.logger.Infof("broker %s started, delivering %d held packets", b.domain, len(held))
	for _, p := range held {
		b.route(p)
	}
	return nil
}

// Shutdown closes every registered mailbox concurrently, leaves the
// federation and stops the metrics. It is idempotent.
func (b *Broker) Shutdown(ctx context.Context) error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	b.logger.Infof("shutting down broker %s", b.domain)
	if b.federation != nil {
		b.federation.Leave(b)
	}

	b.started.Store(true)
	b.pendingMu.Lock()
	if dropped := len(b.pending); dropped > 0 {
		b.logger.Warnf("broker %s dropping %d held packets", b.domain, dropped)
	}
	b.pending = nil
	b.pendingMu.Unlock()

	var eg errgroup.Group
	for _, mailbox := range b.mailboxes.Reset() {
		eg.Go(func() error {
			mailbox.Close()
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- eg.Wait() }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if b.registration != nil {
		err = multierr.Append(err, b.registration.Unregister())
	}

	b.logger.Infof("broker %s shut down", b.domain)
	return err
}

// Message implements Stream.
func (b *Broker) Message(to, from string, payload any) {
	b.route(&packet{kind: kindMessage, to: to, from: from, payload: payload})
}

// MessageError implements Stream.
func (b *Broker) MessageError(to, from string, payload any, err error) {
	b.route(&packet{kind: kindMessageError, to: to, from: from, payload: payload, err: err})
}

// Query implements Stream.
func (b *Broker) Query(id uint64, to, from string, payload any) {
	b.route(&packet{kind: kindQuery, id: id, to: to, from: from, payload: payload})
}

// QueryResult implements Stream.
func (b *Broker) QueryResult(id uint64, to, from string, payload any) {
	b.route(&packet{kind: kindQueryResult, id: id, to: to, from: from, payload: payload})
}

// QueryError implements Stream.
func (b *Broker) QueryError(id uint64, to, from string, payload any, err error) {
	b.route(&packet{kind: kindQueryError, id: id, to: to, from: from, payload: payload, err: err})
}

func (b *Broker) route(p *packet) {
	ctx := context.Background()
	if p.kind == kindMessageError || p.kind == kindQueryError {
		b.metrics.Errors().Add(ctx, 1, b.attributes)
	}

	mailbox, ok := b.Lookup(p.to)
	if !ok {
		if b.hold(p) {
			return
		}
		b.metrics.Undeliverable().Add(ctx, 1, b.attributes)
		deliver(b.fallback, p, b, b.logger)
		return
	}

	b.metrics.Delivered().Add(ctx, 1, b.attributes)
	deliver(mailbox, p, b, b.logger)
}

// hold keeps p until Start when the broker has a startup queue.
func (b *Broker) hold(p *packet) bool {
	if b.started.Load() {
		return false
	}

	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	if b.started.Load() || len(b.pending) >= b.startupQueueSize {
		return false
	}
	b.pending = append(b.pending, p)
	return true
}

// flushPending delivers the held packets addressed to addr.
func (b *Broker) flushPending(addr string) {
	if b.started.Load() {
		return
	}

	b.pendingMu.Lock()
	var ready []*packet
	kept := b.pending[:0]
	for _, p := range b.pending {
		if address.Complete(p.to, b.domain) == addr {
			ready = append(ready, p)
			continue
		}
		kept = append(kept, p)
	}
	b.pending = kept
	b.pendingMu.Unlock()

	for _, p := range ready {
		b.route(p)
	}
}

func (b *Broker) registerMetrics() error {
	var opts []metric.ProviderOption
	if b.meterProvider != nil {
		opts = append(opts, metric.WithMeterProvider(b.meterProvider))
	}

	meter := metric.NewProvider(opts...).Meter()
	metrics, err := metric.NewBrokerMetric(meter)
	if err != nil {
		return err
	}

	b.metrics = metrics
	b.attributes = otelmetric.WithAttributeSet(attribute.NewSet(attribute.String("broker.domain", b.domain)))

	b.registration, err = meter.RegisterCallback(func(_ context.Context, observer otelmetric.Observer) error {
		var queued int64
		b.mailboxes.Range(func(_ string, mailbox Mailbox) {
			queued += mailbox.Len()
		})
		observer.ObserveInt64(metrics.Mailboxes(), int64(b.mailboxes.Len()), b.attributes)
		observer.ObserveInt64(metrics.Queued(), queued, b.attributes)
		return nil
	}, metrics.Mailboxes(), metrics.Queued())
	return err
}
