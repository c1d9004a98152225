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

package errors

import (
	"errors"
	"fmt"
)

// Type tells the sender how to react to an ActorError.
type Type string

const (
	// TypeCancel means the request should not be retried.
	TypeCancel Type = "cancel"
	// TypeContinue is a warning; processing may continue.
	TypeContinue Type = "continue"
	// TypeModify means the request may be retried after changing the payload.
	TypeModify Type = "modify"
	// TypeAuth means the request may be retried after providing credentials.
	TypeAuth Type = "auth"
	// TypeWait means the request may be retried after waiting.
	TypeWait Type = "wait"
)

// Condition names the failure carried by an ActorError.
type Condition string

const (
	ConditionBadRequest             Condition = "bad-request"
	ConditionFeatureNotImplemented  Condition = "feature-not-implemented"
	ConditionInternalServerError    Condition = "internal-server-error"
	ConditionItemNotFound           Condition = "item-not-found"
	ConditionNotAuthorized          Condition = "not-authorized"
	ConditionRemoteConnectionFailed Condition = "remote-connection-failed"
	ConditionRemoteServerTimeout    Condition = "remote-server-timeout"
	ConditionResourceConstraint     Condition = "resource-constraint"
	ConditionServiceUnavailable     Condition = "service-unavailable"
	ConditionUndefinedCondition     Condition = "undefined-condition"
)

// conditionSentinels is searched in order by FromError, so an error wrapping
// several sentinels always maps to the first listed.
var conditionSentinels = []struct {
	condition Condition
	sentinel  error
}{
	{ConditionItemNotFound, ErrAddressNotFound},
	{ConditionFeatureNotImplemented, ErrFeatureNotImplemented},
	{ConditionServiceUnavailable, ErrServiceUnavailable},
	{ConditionResourceConstraint, ErrMailboxFull},
	{ConditionRemoteServerTimeout, ErrQueryTimeout},
	{ConditionRemoteConnectionFailed, ErrNoValidActors},
	{ConditionInternalServerError, ErrDeliveryFailure},
}

func sentinelOf(condition Condition) error {
	for _, pair := range conditionSentinels {
		if pair.condition == condition {
			return pair.sentinel
		}
	}
	return nil
}

// ActorError is the in-band error carried by MessageError and QueryError
// traffic. errors.Is matches it against the sentinel of its condition.
type ActorError struct {
	Type      Type
	Condition Condition
	Text      string
}

var _ error = (*ActorError)(nil)

// NewActorError creates an ActorError.
func NewActorError(typ Type, condition Condition, text string) *ActorError {
	return &ActorError{Type: typ, Condition: condition, Text: text}
}

// Error implements the standard error interface
func (e *ActorError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Condition)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Type, e.Condition, e.Text)
}

// Unwrap returns the sentinel matching the condition, or nil.
func (e *ActorError) Unwrap() error {
	return sentinelOf(e.Condition)
}

// AddressNotFound reports an unresolvable destination.
func AddressNotFound(to string) *ActorError {
	return NewActorError(TypeCancel, ConditionItemNotFound, fmt.Sprintf("'%s' is an unknown actor", to))
}

// NoValidActors reports that a router ran out of candidates.
func NoValidActors(text string) *ActorError {
	return NewActorError(TypeCancel, ConditionRemoteConnectionFailed, text)
}

// FeatureNotImplemented reports an unhandled query payload.
func FeatureNotImplemented(payload any) *ActorError {
	return NewActorError(TypeCancel, ConditionFeatureNotImplemented, fmt.Sprintf("unexpected query payload %T", payload))
}

// ServiceUnavailable reports a closed destination.
func ServiceUnavailable(address string) *ActorError {
	return NewActorError(TypeCancel, ConditionServiceUnavailable, fmt.Sprintf("'%s' is closed", address))
}

// FromError converts err into an ActorError. An ActorError anywhere in the
// chain is returned as is; known sentinels pick their condition; anything else
// is an internal server error.
func FromError(err error) *ActorError {
	if err == nil {
		return nil
	}

	var actorErr *ActorError
	if errors.As(err, &actorErr) {
		return actorErr
	}

	for _, pair := range conditionSentinels {
		if errors.Is(err, pair.sentinel) {
			typ := TypeCancel
			if pair.condition == ConditionResourceConstraint || pair.condition == ConditionRemoteServerTimeout {
				typ = TypeWait
			}
			return NewActorError(typ, pair.condition, err.Error())
		}
	}

	if errors.Is(err, ErrMailboxClosed) || errors.Is(err, ErrBrokerClosed) {
		return NewActorError(TypeCancel, ConditionServiceUnavailable, err.Error())
	}

	return NewActorError(TypeCancel, ConditionInternalServerError, err.Error())
}
