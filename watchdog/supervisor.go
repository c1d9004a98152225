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
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/google/uuid"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	gerrors "github.com/tochemey/gobam/errors"
	"github.com/tochemey/gobam/log"
)

const (
	// DefaultRestartDelay is the pause between an exit and the next start.
	DefaultRestartDelay = time.Second
	// DefaultStartRetries is the number of attempts made to start the process.
	DefaultStartRetries = 3
	// startRetryMaxDelay caps the backoff between start attempts.
	startRetryMaxDelay = time.Second
	// socketWaitTimeout bounds how long the server takes to connect back.
	socketWaitTimeout = time.Minute
)

// CommandFunc creates the command running spec.
type CommandFunc func(ctx context.Context, spec LaunchSpec) *exec.Cmd

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithArgv sets the command line arguments passed on to the server.
func WithArgv(argv ...string) SupervisorOption {
	return func(s *Supervisor) {
		s.argv = argv
	}
}

// WithCommand sets how the process is created.
func WithCommand(command CommandFunc) SupervisorOption {
	return func(s *Supervisor) {
		if command != nil {
			s.command = command
		}
	}
}

// WithRestartDelay sets the pause between an exit and the next start.
func WithRestartDelay(delay time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		if delay > 0 {
			s.restartDelay = delay
		}
	}
}

// WithStartRetries sets the number of attempts made to start the process.
func WithStartRetries(retries int) SupervisorOption {
	return func(s *Supervisor) {
		if retries > 0 {
			s.startRetries = retries
		}
	}
}

// WithOutput sends the process output to w instead of the log path.
func WithOutput(w io.Writer) SupervisorOption {
	return func(s *Supervisor) {
		s.output = w
	}
}

// WithSupervisorLogger sets the supervisor logger.
func WithSupervisorLogger(logger log.Logger) SupervisorOption {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Supervisor keeps the server described by a Config running: it starts the
// process, appends its output to the log path and starts it again whenever
// it exits, until Stop.
type Supervisor struct {
	config       *Config
	argv         []string
	command      CommandFunc
	restartDelay time.Duration
	startRetries int
	output       io.Writer
	logger       log.Logger

	running *atomic.Bool
	cancel  context.CancelFunc
	group   *errgroup.Group
	done    chan struct{}
	restart chan struct{}

	mu           sync.Mutex
	runID        string
	startCount   int
	initialStart time.Time
	lastStart    time.Time
	pid          int
	lastExit     *int
}

// NewSupervisor creates a Supervisor for config.
func NewSupervisor(config *Config, opts ...SupervisorOption) *Supervisor {
	supervisor := &Supervisor{
		config:       config,
		command:      defaultCommand,
		restartDelay: DefaultRestartDelay,
		startRetries: DefaultStartRetries,
		logger:       log.DefaultLogger,
		running:      atomic.NewBool(false),
		restart:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(supervisor)
	}
	return supervisor
}

func defaultCommand(_ context.Context, spec LaunchSpec) *exec.Cmd {
	cmd := exec.Command(spec.Argv[0], spec.Argv[1:]...)
	cmd.Env = spec.Env
	cmd.Dir = spec.Dir
	return cmd
}

// Start validates the configuration and starts supervising. The
// supervision outlives ctx; only its values are kept.
func (s *Supervisor) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return gerrors.ErrSupervisorRunning
	}

	if err := s.config.Validate(); err != nil {
		s.running.Store(false)
		return err
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	s.mu.Lock()
	s.runID = uuid.NewString()
	s.initialStart = time.Now()
	s.cancel = cancel
	s.done = done
	s.group = new(errgroup.Group)
	s.group.Go(func() error {
		defer close(done)
		return s.run(ctx)
	})
	s.mu.Unlock()

	s.logger.Infof("%s supervision %s started", s.config, s.runID)
	return nil
}

// Stop stops the process and the supervision. The process is interrupted,
// then killed when it outlives the configured shutdown wait. Stop returns the
// error that ended the supervision early, if any.
func (s *Supervisor) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return gerrors.ErrSupervisorNotRunning
	}

	s.mu.Lock()
	cancel, group := s.cancel, s.group
	s.mu.Unlock()

	cancel()
	result := make(chan error, 1)
	go func() {
		result <- group.Wait()
	}()

	select {
	case err := <-result:
		s.logger.Infof("%s supervision stopped", s.config)
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Restart stops the running process; the supervision starts it again. It
// does nothing while the process is down between two runs.
func (s *Supervisor) Restart() error {
	if !s.running.Load() {
		return gerrors.ErrSupervisorNotRunning
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pid == 0 {
		return nil
	}
	select {
	case s.restart <- struct{}{}:
	default:
	}
	return nil
}

// Done is closed when the supervision ends, after Stop or after the process
// could not be started.
func (s *Supervisor) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// IsRunning reports whether the supervisor was started and not stopped.
func (s *Supervisor) IsRunning() bool {
	return s.running.Load()
}

// RunID identifies the current supervision.
func (s *Supervisor) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// StartCount returns how many times the process was started.
func (s *Supervisor) StartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startCount
}

// InitialStartTime returns when the supervision started.
func (s *Supervisor) InitialStartTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialStart
}

// LastStartTime returns when the process was last started.
func (s *Supervisor) LastStartTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStart
}

// Pid returns the id of the running process, or 0.
func (s *Supervisor) Pid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pid
}

// LastExitCode returns the exit code of the previous run.
func (s *Supervisor) LastExitCode() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastExit == nil {
		return 0, false
	}
	return *s.lastExit, true
}

func (s *Supervisor) run(ctx context.Context) error {
	timer := time.NewTimer(s.restartDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		if err := s.runOnce(ctx); err != nil {
			s.logger.Errorf("%s: %v", s.config, err)
			return err
		}

		if ctx.Err() != nil {
			return nil
		}

		timer.Reset(s.restartDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
	}
}

// runOnce starts the process and waits for it to exit or to be stopped.
func (s *Supervisor) runOnce(ctx context.Context) error {
	listener, err := new(net.ListenConfig).Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to open the socket-wait port: %w", err)
	}

	output, closeOutput, err := s.openOutput()
	if err != nil {
		_ = listener.Close()
		return err
	}
	defer closeOutput()

	s.mu.Lock()
	previousExit := s.lastExit
	s.mu.Unlock()

	spec := BuildLaunchSpec(s.config, LaunchOptions{
		Argv:             s.argv,
		SocketPort:       listener.Addr().(*net.TCPAddr).Port,
		PreviousExitCode: previousExit,
	})

	if s.config.Verbose() {
		_, _ = fmt.Fprintf(output, "%s\n%s\n", strings.Join(spec.Argv, " \\\n  "), strings.Join(spec.Env, "\n"))
	}

	var cmd *exec.Cmd
	retrier := retry.NewRetrier(s.startRetries, 100*time.Millisecond, startRetryMaxDelay)
	err = retrier.RunContext(ctx, func(ctx context.Context) error {
		cmd = s.command(ctx, spec)
		cmd.Stdout = output
		cmd.Stderr = output
		return cmd.Start()
	})
	if err != nil {
		_ = listener.Close()
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to start %s: %w", s.config, err)
	}

	s.mu.Lock()
	// a request aimed at the previous process does not apply to this one
	select {
	case <-s.restart:
	default:
	}
	s.startCount++
	s.lastStart = time.Now()
	s.pid = cmd.Process.Pid
	s.mu.Unlock()
	s.logger.Infof("starting %s (pid %d)", s.config, cmd.Process.Pid)

	// the server connects back on the socket-wait port; closing that
	// connection asks it to shut down
	var back errgroup.Group
	var backConn net.Conn
	back.Go(func() error {
		if tcp, ok := listener.(*net.TCPListener); ok {
			_ = tcp.SetDeadline(time.Now().Add(socketWaitTimeout))
		}
		conn, err := listener.Accept()
		if err == nil {
			backConn = conn
		}
		return nil
	})

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
	}()

	var waitErr error
	select {
	case waitErr = <-exited:
		_ = listener.Close()
		_ = back.Wait()
	case <-ctx.Done():
		waitErr = s.shutdown(cmd, listener, &back, &backConn, exited)
	case <-s.restart:
		s.logger.Infof("restarting %s", s.config)
		waitErr = s.shutdown(cmd, listener, &back, &backConn, exited)
	}

	if backConn != nil {
		_ = backConn.Close()
	}

	code := cmd.ProcessState.ExitCode()
	s.mu.Lock()
	s.pid = 0
	s.lastExit = &code
	s.mu.Unlock()

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		s.logger.Warnf("%s: %v", s.config, waitErr)
	}
	s.logger.Infof("%s exited with code %d", s.config, code)
	return nil
}

func (s *Supervisor) shutdown(cmd *exec.Cmd, listener net.Listener, back *errgroup.Group, backConn *net.Conn, exited <-chan error) error {
	_ = listener.Close()
	_ = back.Wait()
	if *backConn != nil {
		_ = (*backConn).Close()
	}

	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		_ = cmd.Process.Kill()
	}

	timer := time.NewTimer(s.config.ShutdownWait())
	defer timer.Stop()

	select {
	case err := <-exited:
		return err
	case <-timer.C:
		s.logger.Warnf("%s did not stop within %s, killing it", s.config, s.config.ShutdownWait())
		_ = cmd.Process.Kill()
		return <-exited
	}
}

func (s *Supervisor) openOutput() (io.Writer, func(), error) {
	if s.output != nil {
		return s.output, func() {}, nil
	}

	path := s.config.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return file, func() { _ = file.Close() }, nil
}
