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
	"google.golang.org/protobuf/proto"

	gerrors "github.com/tochemey/gobam/errors"
	"github.com/tochemey/gobam/log"
)

// LargePayload marks payloads that should travel through the large partition
// of a PartitionedMailbox.
type LargePayload interface {
	IsLargePayload() bool
}

// Classifier reports whether payload belongs to the large partition.
type Classifier func(payload any) bool

// IsLargePayload is the default Classifier. It honours the LargePayload marker.
func IsLargePayload(payload any) bool {
	marker, ok := payload.(LargePayload)
	return ok && marker.IsLargePayload()
}

// SizeClassifier classifies payloads by their encoded size: byte slices and
// strings by length, proto messages by wire size, LargePayload by its marker.
// Anything else is small.
func SizeClassifier(threshold int) Classifier {
	return func(payload any) bool {
		switch p := payload.(type) {
		case LargePayload:
			return p.IsLargePayload()
		case []byte:
			return len(p) >= threshold
		case string:
			return len(p) >= threshold
		case proto.Message:
			return proto.Size(p) >= threshold
		default:
			return false
		}
	}
}

// PartitionedMailbox splits traffic between two mailboxes by payload size so
// that large payloads do not hold up small ones.
type PartitionedMailbox struct {
	address  string
	small    Mailbox
	large    Mailbox
	classify Classifier
	logger   log.Logger
}

var _ Mailbox = (*PartitionedMailbox)(nil)

// NewPartitionedMailbox wraps small and large. A nil classify uses IsLargePayload.
// Only WithMailboxLogger applies to the partitioned mailbox itself.
func NewPartitionedMailbox(address string, small, large Mailbox, classify Classifier, opts ...MailboxOption) *PartitionedMailbox {
	if classify == nil {
		classify = IsLargePayload
	}
	return &PartitionedMailbox{
		address:  address,
		small:    small,
		large:    large,
		classify: classify,
		logger:   newMailboxConfig(opts...).logger,
	}
}

// NewPartitionedQueueMailbox builds a PartitionedMailbox over two QueueMailbox
// partitions sharing target, replies and opts.
func NewPartitionedQueueMailbox(address string, target Stream, replies Stream, classify Classifier, opts ...MailboxOption) *PartitionedMailbox {
	return NewPartitionedMailbox(address,
		NewQueueMailbox(address, target, replies, opts...),
		NewQueueMailbox(address, target, replies, opts...),
		classify,
		opts...)
}

// Address implements Mailbox.
func (m *PartitionedMailbox) Address() string {
	return m.address
}

// Len is the sum of both partitions. Producers of large payloads can use it,
// together with LargeLen, as a backpressure signal.
func (m *PartitionedMailbox) Len() int64 {
	return m.small.Len() + m.large.Len()
}

// SmallLen returns the small partition size.
func (m *PartitionedMailbox) SmallLen() int64 {
	return m.small.Len()
}

// LargeLen returns the large partition size.
func (m *PartitionedMailbox) LargeLen() int64 {
	return m.large.Len()
}

// IsClosed reports whether both partitions are closed.
func (m *PartitionedMailbox) IsClosed() bool {
	return m.small.IsClosed() && m.large.IsClosed()
}

// Close closes both partitions.
func (m *PartitionedMailbox) Close() {
	m.small.Close()
	m.large.Close()
}

// Message implements Stream.
func (m *PartitionedMailbox) Message(to, from string, payload any) {
	m.pick(payload).Message(to, from, payload)
}

// MessageError implements Stream.
func (m *PartitionedMailbox) MessageError(to, from string, payload any, err error) {
	m.pick(payload).MessageError(to, from, payload, err)
}

// Query implements Stream.
func (m *PartitionedMailbox) Query(id uint64, to, from string, payload any) {
	m.pick(payload).Query(id, to, from, payload)
}

// QueryResult implements Stream.
func (m *PartitionedMailbox) QueryResult(id uint64, to, from string, payload any) {
	m.pick(payload).QueryResult(id, to, from, payload)
}

// QueryError implements Stream.
func (m *PartitionedMailbox) QueryError(id uint64, to, from string, payload any, err error) {
	m.pick(payload).QueryError(id, to, from, payload, err)
}

// pick returns the partition for payload. A classifier that panics sends the
// payload to the small partition.
func (m *PartitionedMailbox) pick(payload any) (mailbox Mailbox) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Errorf("mailbox %s failed to classify %T: %v", m.address, payload, gerrors.Recovered(r, 2))
			mailbox = m.small
		}
	}()

	if m.classify(payload) {
		return m.large
	}
	return m.small
}
