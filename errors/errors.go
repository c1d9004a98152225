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
	"runtime"
)

var (
	// ErrAddressNotFound is returned when the broker cannot resolve a destination address.
	ErrAddressNotFound = errors.New("address not found")

	// ErrDeliveryFailure indicates that the target stream failed while handling a message or a query.
	ErrDeliveryFailure = errors.New("delivery failure")

	// ErrQueryTimeout indicates that a query was not answered before its deadline.
	ErrQueryTimeout = errors.New("query timed out")

	// ErrNoValidActors is returned when a router exhausts its candidates.
	ErrNoValidActors = errors.New("no valid actors")

	// ErrFeatureNotImplemented is returned when an actor does not handle a query payload.
	ErrFeatureNotImplemented = errors.New("feature not implemented")

	// ErrServiceUnavailable is returned when a mailbox is closed while a query is pending or incoming.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrMailboxClosed is returned when traffic reaches a closed mailbox or client.
	ErrMailboxClosed = errors.New("mailbox is closed")

	// ErrMailboxFull is returned when a bounded mailbox lane has no room left.
	ErrMailboxFull = errors.New("mailbox is full")

	// ErrBrokerClosed is returned when the broker has been shut down.
	ErrBrokerClosed = errors.New("broker is closed")

	// ErrInvalidAddress is returned when an address cannot be parsed.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidConfig is returned when a configuration value is missing or invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownConfigKey is returned when a configuration document carries a key
	// that is neither recognised nor explicitly ignored.
	ErrUnknownConfigKey = errors.New("unknown configuration key")

	// ErrSupervisorRunning is returned when a supervisor is started twice.
	ErrSupervisorRunning = errors.New("supervisor is already running")

	// ErrSupervisorNotRunning is returned when stopping a supervisor that is not running.
	ErrSupervisorNotRunning = errors.New("supervisor is not running")
)

// NewErrInvalidConfig wraps reason with ErrInvalidConfig.
func NewErrInvalidConfig(reason error) error {
	return fmt.Errorf("%w: %w", ErrInvalidConfig, reason)
}

// PanicError wraps a value recovered from a panicking actor.
type PanicError struct {
	err error
}

// enforce compilation error
var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(err error) *PanicError {
	return &PanicError{err}
}

// Recovered turns a recovered value into a PanicError annotated with the
// location of the panic. skip is the number of frames between the caller of
// Recovered and the panicking function.
func Recovered(r any, skip int) *PanicError {
	var pe *PanicError
	if err, ok := r.(error); ok && errors.As(err, &pe) {
		return pe
	}

	pc, fn, line, _ := runtime.Caller(skip + 1)
	location := fmt.Sprintf("%s[%s:%d]", runtime.FuncForPC(pc).Name(), fn, line)
	if err, ok := r.(error); ok {
		return NewPanicError(fmt.Errorf("%w at %s", err, location))
	}
	return NewPanicError(fmt.Errorf("%#v at %s", r, location))
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

func (e *PanicError) Unwrap() error {
	return e.err
}
