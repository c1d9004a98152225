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
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/gobam/errors"
	"github.com/tochemey/gobam/log"
)

func decode(t *testing.T, document string, opts ...LoaderOption) ([]*Config, error) {
	t.Helper()
	opts = append([]LoaderOption{WithLoaderLogger(log.DiscardLogger)}, opts...)
	return NewLoader(opts...).Decode(strings.NewReader(document))
}

func TestLoader(t *testing.T) {
	t.Run("With servers and defaults", func(t *testing.T) {
		configs, err := decode(t, `
server-default:
  resin-home: /opt/resin
  jvm-arg: -Xmx512m
  shutdown-wait: 5s
  thread-max: 255
servers:
  - id: app-a
    http: 8080
    jvm-arg: [-d64, -Xss4m]
  - id: app-b
    watchdog-port: 6700
    shutdown-wait: 1500
    http:
      - address: 10.0.0.1
        port: 8081
      - 8082
`)
		require.NoError(t, err)
		require.Len(t, configs, 2)

		a, b := configs[0], configs[1]
		assert.Equal(t, "app-a", a.ID())
		assert.Equal(t, "/opt/resin", a.ResinHome())
		assert.Equal(t, []string{"-Xmx512m", "-d64", "-Xss4m"}, a.JvmArgs().Args())
		assert.True(t, a.Is64Bit())
		assert.Equal(t, 5*time.Second, a.ShutdownWait())
		assert.Equal(t, []Port{{Port: 8080}}, a.Ports())
		assert.Equal(t, DefaultWatchdogPort, a.WatchdogPort())

		assert.Equal(t, "app-b", b.ID())
		assert.Equal(t, []string{"-Xmx512m"}, b.JvmArgs().Args())
		assert.Equal(t, 1500*time.Millisecond, b.ShutdownWait())
		assert.Equal(t, 6700, b.WatchdogPort())
		assert.Equal(t, []Port{{Address: "10.0.0.1", Port: 8081}, {Port: 8082}}, b.Ports())
	})
	t.Run("With no servers describes the default server", func(t *testing.T) {
		configs, err := decode(t, `
server-default:
  java-exe: /usr/bin/java
  verbose: true
`)
		require.NoError(t, err)
		require.Len(t, configs, 1)
		assert.Equal(t, "", configs[0].ID())
		assert.Equal(t, "/usr/bin/java", configs[0].JavaExe())
		assert.True(t, configs[0].Verbose())
		assert.Equal(t, "jvm-default.log", filepath.Base(configs[0].LogPath()))
	})
	t.Run("With an empty document", func(t *testing.T) {
		configs, err := decode(t, "")
		require.NoError(t, err)
		assert.Empty(t, configs)
	})
	t.Run("With multiple documents", func(t *testing.T) {
		configs, err := decode(t, "servers:\n  - id: a\n---\nservers:\n  - id: b\n")
		require.NoError(t, err)
		require.Len(t, configs, 2)
		assert.Equal(t, "b", configs[1].ID())
	})
	t.Run("With unknown key", func(t *testing.T) {
		_, err := decode(t, "servers:\n  - id: a\n    jvm-args: -Xmx1g\n")
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrUnknownConfigKey)
		assert.Contains(t, err.Error(), `"jvm-args" at line 3`)
	})
	t.Run("With unknown top level key", func(t *testing.T) {
		_, err := decode(t, "cluster: {}\n")
		assert.ErrorIs(t, err, gerrors.ErrUnknownConfigKey)
	})
	t.Run("With extra ignored keys", func(t *testing.T) {
		configs, err := decode(t, "servers:\n  - id: a\n    custom-tuning: 4\n", WithIgnoredKeys("custom-tuning"))
		require.NoError(t, err)
		require.Len(t, configs, 1)
		assert.False(t, IsIgnoredKey("custom-tuning"))
	})
	t.Run("With duplicate ids", func(t *testing.T) {
		_, err := decode(t, "servers:\n  - id: a\n  - id: a\n")
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrInvalidConfig)
		assert.Contains(t, err.Error(), `duplicate server id "a"`)
	})
	t.Run("With port override", func(t *testing.T) {
		configs, err := decode(t, "servers:\n  - id: a\n    watchdog-port: 6700\n", WithPortOverride(6900))
		require.NoError(t, err)
		assert.Equal(t, 6900, configs[0].WatchdogPort())
	})
	t.Run("With malformed values", func(t *testing.T) {
		_, err := decode(t, "servers:\n  - id: a\n    watchdog-port: high\n")
		assert.ErrorIs(t, err, gerrors.ErrInvalidConfig)

		_, err = decode(t, "servers:\n  - id: a\n    shutdown-wait: soon\n")
		assert.ErrorIs(t, err, gerrors.ErrInvalidConfig)

		_, err = decode(t, "servers: a\n")
		assert.ErrorIs(t, err, gerrors.ErrInvalidConfig)

		_, err = decode(t, "- a\n")
		assert.ErrorIs(t, err, gerrors.ErrInvalidConfig)
	})
	t.Run("With invalid server", func(t *testing.T) {
		_, err := decode(t, "servers:\n  - id: a\n    jvm-mode: -fast\n")
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "Watchdog[a]")
	})
	t.Run("With file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "watchdog.yaml")
		require.NoError(t, os.WriteFile(path, []byte("servers:\n  - id: a\n"), 0o600))

		configs, err := NewLoader(WithLoaderLogger(log.DiscardLogger)).LoadFile(path)
		require.NoError(t, err)
		require.Len(t, configs, 1)

		_, err = NewLoader().LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})
}
