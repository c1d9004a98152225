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
	"fmt"

	gerrors "github.com/tochemey/gobam/errors"
)

// Kind is the broker operation a Frame carries.
type Kind uint8

const (
	// KindMessage is a one-way message.
	KindMessage Kind = iota + 1
	// KindMessageError reports a failed message.
	KindMessageError
	// KindQuery is a request expecting a result or an error.
	KindQuery
	// KindQueryResult answers a query.
	KindQueryResult
	// KindQueryError fails a query.
	KindQueryError
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindMessageError:
		return "message-error"
	case KindQuery:
		return "query"
	case KindQueryResult:
		return "query-result"
	case KindQueryError:
		return "query-error"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Frame is one broker operation exchanged with a remote client.
// ID is set for the query kinds and Err for the error kinds.
type Frame struct {
	Kind    Kind
	ID      uint64
	To      string
	From    string
	Payload any
	Err     *gerrors.ActorError
}

func (f *Frame) String() string {
	return fmt.Sprintf("%s[id=%d to=%s from=%s]", f.Kind, f.ID, f.To, f.From)
}
