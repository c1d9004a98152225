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

import "github.com/tochemey/gobam/address"

// Ref refers to an address on a broker.
type Ref struct {
	broker  *Broker
	address string
}

// NewRef creates a Ref for addr on broker.
func NewRef(broker *Broker, addr string) *Ref {
	return &Ref{broker: broker, address: address.Complete(addr, broker.Domain())}
}

// Address returns the referred address.
func (r *Ref) Address() string {
	return r.address
}

// IsActive reports whether the broker holds an open mailbox for the address.
func (r *Ref) IsActive() bool {
	mailbox, ok := r.broker.Lookup(r.address)
	return ok && !mailbox.IsClosed()
}
