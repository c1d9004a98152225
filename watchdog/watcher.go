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
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/atomic"

	"github.com/tochemey/gobam/log"
)

// DefaultDebounce groups the bursts of events an editor produces when saving.
const DefaultDebounce = 100 * time.Millisecond

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long the watcher waits for events to settle.
func WithDebounce(debounce time.Duration) WatcherOption {
	return func(w *Watcher) {
		if debounce > 0 {
			w.debounce = debounce
		}
	}
}

// WithWatcherLogger sets the watcher logger.
func WithWatcherLogger(logger log.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Watcher reloads a configuration file when it changes and hands the new
// configurations to a callback. A file that fails to load is reported and
// the previous configurations stay current.
type Watcher struct {
	path     string
	loader   *Loader
	onChange func([]*Config)
	debounce time.Duration
	logger   log.Logger

	mu      sync.RWMutex
	current []*Config

	lifecycle sync.Mutex
	fsWatcher *fsnotify.Watcher
	started   *atomic.Bool
	stop      chan struct{}
	wg        sync.WaitGroup
}

// NewWatcher loads path once and prepares to watch it.
func NewWatcher(path string, loader *Loader, onChange func([]*Config), opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	configs, err := loader.LoadFile(abs)
	if err != nil {
		return nil, err
	}

	watcher := &Watcher{
		path:     abs,
		loader:   loader,
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   log.DefaultLogger,
		current:  configs,
		started:  atomic.NewBool(false),
	}
	for _, opt := range opts {
		opt(watcher)
	}
	return watcher, nil
}

// Current returns the configurations last loaded successfully.
func (w *Watcher) Current() []*Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start watches the directory of the file, so that files replaced by a
// rename are seen too. A stopped watcher can be started again.
func (w *Watcher) Start() error {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()
	if !w.started.CompareAndSwap(false, true) {
		return nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.started.Store(false)
		return fmt.Errorf("failed to create file system watcher: %w", err)
	}

	if err := fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		_ = fsWatcher.Close()
		w.started.Store(false)
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	w.fsWatcher = fsWatcher
	w.stop = make(chan struct{})
	w.wg.Add(1)
	go w.watch(fsWatcher, w.stop)
	return nil
}

// Stop stops watching. It waits for a reload in progress.
func (w *Watcher) Stop() error {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()
	if !w.started.CompareAndSwap(true, false) {
		return nil
	}
	close(w.stop)
	err := w.fsWatcher.Close()
	w.wg.Wait()
	return err
}

// Reload loads the file now.
func (w *Watcher) Reload() error {
	configs, err := w.loader.LoadFile(w.path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.current = configs
	w.mu.Unlock()

	if w.onChange != nil {
		w.onChange(configs)
	}
	return nil
}

func (w *Watcher) watch(fsWatcher *fsnotify.Watcher, stop <-chan struct{}) {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(w.debounce)
			}

		case <-timer.C:
			if err := w.Reload(); err != nil {
				w.logger.Errorf("failed to reload %s: %v", w.path, err)
				continue
			}
			w.logger.Infof("reloaded %s", w.path)

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnf("watching %s: %v", w.path, err)
		}
	}
}
