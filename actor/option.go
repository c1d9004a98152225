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
	"go.opentelemetry.io/otel/metric"

	"github.com/tochemey/gobam/log"
)

// DefaultStartupQueueSize bounds the packets a broker holds before Start.
const DefaultStartupQueueSize = 1024

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(*Broker)
}

// enforce compilation error
var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*Broker)

// Apply implements Option.
func (f OptionFunc) Apply(b *Broker) {
	f(b)
}

// WithLogger sets the broker logger. Mailboxes created through Register inherit it.
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(b *Broker) {
		if logger != nil {
			b.logger = logger
		}
	})
}

// WithAliases registers additional domains answered by the broker.
func WithAliases(domains ...string) Option {
	return OptionFunc(func(b *Broker) {
		for _, domain := range domains {
			if domain != "" {
				b.aliases.Add(domain)
			}
		}
	})
}

// WithFederation joins the broker to federation so that addresses in other
// domains are resolved through their brokers.
func WithFederation(federation *Federation) Option {
	return OptionFunc(func(b *Broker) {
		b.federation = federation
	})
}

// WithFallback replaces the stream receiving traffic for unknown addresses.
func WithFallback(fallback Stream) Option {
	return OptionFunc(func(b *Broker) {
		if fallback != nil {
			b.fallback = fallback
		}
	})
}

// WithStartupQueue holds packets addressed to unknown actors until the
// broker is started, so that actors registering during boot do not miss
// early traffic. size bounds the held packets; zero uses DefaultStartupQueueSize.
func WithStartupQueue(size int) Option {
	return OptionFunc(func(b *Broker) {
		if size <= 0 {
			size = DefaultStartupQueueSize
		}
		b.startupQueueSize = size
	})
}

// WithMeterProvider sets the otel meter provider used for broker metrics.
// The global provider is used otherwise.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return OptionFunc(func(b *Broker) {
		b.meterProvider = provider
	})
}
