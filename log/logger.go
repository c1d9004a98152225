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

package log

import (
	"io"
	golog "log"
)

// Logger is the structured logger used by brokers, mailboxes, links and the
// watchdog. Zap is the default implementation and DiscardLogger drops
// everything.
type Logger interface {
	Debug(...any)
	Debugf(string, ...any)
	Info(...any)
	Infof(string, ...any)
	Warn(...any)
	Warnf(string, ...any)
	Error(...any)
	Errorf(string, ...any)
	// Fatal and Fatalf log then call os.Exit(1).
	Fatal(...any)
	Fatalf(string, ...any)
	// Panic and Panicf log then panic with the message.
	Panic(...any)
	Panicf(string, ...any)

	// Enabled reports whether entries at level are written.
	Enabled(level Level) bool
	// With returns a Logger adding the key/value pairs to every entry.
	With(keyValues ...any) Logger
	// LogLevel returns the minimum level written.
	LogLevel() Level
	// LogOutput returns the writers entries go to.
	LogOutput() []io.Writer
	// StdLogger adapts the logger to the standard library logger.
	StdLogger() *golog.Logger
	// Flush syncs buffered entries.
	Flush() error
}
