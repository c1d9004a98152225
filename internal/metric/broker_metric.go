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

package metric

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// BrokerMetric groups the broker instruments.
type BrokerMetric struct {
	// packets handed to a registered mailbox
	delivered metric.Int64Counter
	// packets whose destination could not be resolved
	undeliverable metric.Int64Counter
	// error packets routed back to senders
	errors metric.Int64Counter
	// number of registered mailboxes
	mailboxes metric.Int64ObservableGauge
	// number of packets waiting in queueing mailboxes
	queued metric.Int64ObservableGauge
}

// NewBrokerMetric creates the broker instruments on meter.
func NewBrokerMetric(meter metric.Meter) (*BrokerMetric, error) {
	brokerMetric := new(BrokerMetric)
	var err error

	if brokerMetric.delivered, err = meter.Int64Counter(
		"broker_delivered_count",
		metric.WithDescription("Total number of packets delivered to a mailbox"),
	); err != nil {
		return nil, fmt.Errorf("failed to create delivered instrument, %w", err)
	}

	if brokerMetric.undeliverable, err = meter.Int64Counter(
		"broker_undeliverable_count",
		metric.WithDescription("Total number of packets addressed to an unknown actor"),
	); err != nil {
		return nil, fmt.Errorf("failed to create undeliverable instrument, %w", err)
	}

	if brokerMetric.errors, err = meter.Int64Counter(
		"broker_error_count",
		metric.WithDescription("Total number of message-error and query-error packets routed"),
	); err != nil {
		return nil, fmt.Errorf("failed to create errors instrument, %w", err)
	}

	if brokerMetric.mailboxes, err = meter.Int64ObservableGauge(
		"broker_mailbox_count",
		metric.WithDescription("Number of registered mailboxes"),
	); err != nil {
		return nil, fmt.Errorf("failed to create mailboxes instrument, %w", err)
	}

	if brokerMetric.queued, err = meter.Int64ObservableGauge(
		"broker_queued_count",
		metric.WithDescription("Number of packets waiting in mailbox queues"),
	); err != nil {
		return nil, fmt.Errorf("failed to create queued instrument, %w", err)
	}

	return brokerMetric, nil
}

// Delivered returns the delivered packets counter
func (x *BrokerMetric) Delivered() metric.Int64Counter {
	return x.delivered
}

// Undeliverable returns the unknown destination counter
func (x *BrokerMetric) Undeliverable() metric.Int64Counter {
	return x.undeliverable
}

// Errors returns the routed error packets counter
func (x *BrokerMetric) Errors() metric.Int64Counter {
	return x.errors
}

// Mailboxes returns the registered mailboxes gauge
func (x *BrokerMetric) Mailboxes() metric.Int64ObservableGauge {
	return x.mailboxes
}

// Queued returns the queued packets gauge
func (x *BrokerMetric) Queued() metric.Int64ObservableGauge {
	return x.queued
}
