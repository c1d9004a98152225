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
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	gerrors "github.com/tochemey/gobam/errors"
	"github.com/tochemey/gobam/internal/xsync"
)

// Federation composes brokers of different domains. A broker that joined a
// federation resolves user@otherDomain/resource through the broker answering
// for otherDomain.
type Federation struct {
	brokers *xsync.Map[string, *Broker]
	domains mapset.Set[string]
}

// NewFederation creates an empty Federation.
func NewFederation() *Federation {
	return &Federation{
		brokers: xsync.NewMap[string, *Broker](),
		domains: mapset.NewSet[string](),
	}
}

// Join binds the broker domain and its aliases to broker. It fails when one
// of them is already bound to another broker.
func (f *Federation) Join(broker *Broker) error {
	if err := f.bind(broker.Domain(), broker); err != nil {
		return err
	}
	for _, alias := range broker.Aliases() {
		if err := f.bind(alias, broker); err != nil {
			f.Leave(broker)
			return err
		}
	}
	return nil
}

// Leave unbinds every domain bound to broker.
func (f *Federation) Leave(broker *Broker) {
	for _, domain := range f.domains.ToSlice() {
		if f.brokers.DeleteIf(domain, func(b *Broker) bool { return b == broker }) {
			f.domains.Remove(domain)
		}
	}
}

// Broker returns the broker bound to domain.
func (f *Federation) Broker(domain string) (*Broker, bool) {
	return f.brokers.Get(domain)
}

// Domains returns the bound domains.
func (f *Federation) Domains() []string {
	return f.domains.ToSlice()
}

func (f *Federation) bind(domain string, broker *Broker) error {
	if f.brokers.SetIfAbsent(domain, broker) {
		f.domains.Add(domain)
		return nil
	}
	if current, _ := f.brokers.Get(domain); current == broker {
		return nil
	}
	return fmt.Errorf("%w: domain %q is already bound in the federation", gerrors.ErrInvalidConfig, domain)
}
