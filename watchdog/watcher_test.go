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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tochemey/gobam/log"
)

func TestWatcher(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "watchdog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("servers:\n  - id: a\n"), 0o600))

	var (
		mu      sync.Mutex
		changes [][]*Config
	)
	onChange := func(configs []*Config) {
		mu.Lock()
		changes = append(changes, configs)
		mu.Unlock()
	}
	last := func() []*Config {
		mu.Lock()
		defer mu.Unlock()
		if len(changes) == 0 {
			return nil
		}
		return changes[len(changes)-1]
	}

	loader := NewLoader(WithLoaderLogger(log.DiscardLogger))
	watcher, err := NewWatcher(path, loader, onChange,
		WithDebounce(20*time.Millisecond),
		WithWatcherLogger(log.DiscardLogger))
	require.NoError(t, err)
	require.Len(t, watcher.Current(), 1)
	require.NoError(t, watcher.Start())

	require.NoError(t, os.WriteFile(path, []byte("servers:\n  - id: a\n  - id: b\n"), 0o600))
	require.Eventually(t, func() bool {
		return len(last()) == 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.Len(t, watcher.Current(), 2)

	// a broken file keeps the previous configurations
	require.NoError(t, os.WriteFile(path, []byte("servers:\n  - id: a\n    bogus: 1\n"), 0o600))
	time.Sleep(200 * time.Millisecond)
	assert.Len(t, watcher.Current(), 2)

	require.NoError(t, watcher.Stop())
	require.NoError(t, watcher.Stop())
}

func TestWatcherRestart(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "watchdog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("servers:\n  - id: a\n"), 0o600))

	watcher, err := NewWatcher(path, NewLoader(WithLoaderLogger(log.DiscardLogger)), nil,
		WithDebounce(20*time.Millisecond),
		WithWatcherLogger(log.DiscardLogger))
	require.NoError(t, err)

	require.NoError(t, watcher.Start())
	require.NoError(t, watcher.Stop())

	require.NotPanics(t, func() {
		require.NoError(t, watcher.Start())
	})
	require.NoError(t, os.WriteFile(path, []byte("servers:\n  - id: a\n  - id: b\n"), 0o600))
	require.Eventually(t, func() bool {
		return len(watcher.Current()) == 2
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, watcher.Stop())
	require.NotPanics(t, func() {
		require.NoError(t, watcher.Stop())
	})
}

func TestWatcherReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchdog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("servers:\n  - id: a\n"), 0o600))

	watcher, err := NewWatcher(path, NewLoader(WithLoaderLogger(log.DiscardLogger)), nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("servers:\n  - id: z\n"), 0o600))
	require.NoError(t, watcher.Reload())
	require.Len(t, watcher.Current(), 1)
	assert.Equal(t, "z", watcher.Current()[0].ID())

	_, err = NewWatcher(filepath.Join(t.TempDir(), "missing.yaml"), NewLoader(), nil)
	require.Error(t, err)
}
