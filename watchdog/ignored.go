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

package watchdog

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// ignoredKeys are server settings the watchdog accepts and discards: they
// tune the running server, not the way it is launched.
var ignoredKeys = mapset.NewThreadUnsafeSet(
	"accept-listen-backlog",
	"accept-thread-idle-max",
	"accept-thread-idle-min",
	"accept-thread-max",
	"cluster-idle-time",
	"cluster-port",
	"connection-max",
	"dependency-check-interval",
	"keepalive-connection-time-max",
	"keepalive-max",
	"keepalive-select-enable",
	"keepalive-select-max",
	"keepalive-select-thread-timeout",
	"keepalive-timeout",
	"load-balance-connect-timeout",
	"load-balance-idle-time",
	"load-balance-recover-time",
	"load-balance-socket-timeout",
	"load-balance-warmup-time",
	"load-balance-weight",
	"memory-free-min",
	"permgen-free-min",
	"ping",
	"port-default",
	"server-header",
	"session-cookie",
	"shutdown-message",
	"socket-timeout",
	"ssl-session-cookie",
	"stage",
	"thread-idle-max",
	"thread-idle-min",
	"thread-max",
	"url-character-encoding",
	"watchdog-password",
)

// IsIgnoredKey reports whether key is a recognised setting the watchdog discards.
func IsIgnoredKey(key string) bool {
	return ignoredKeys.Contains(key)
}

// IgnoredKeys returns the recognised settings the watchdog discards, sorted.
func IgnoredKeys() []string {
	keys := ignoredKeys.ToSlice()
	sort.Strings(keys)
	return keys
}
