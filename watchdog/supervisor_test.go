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
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	gerrors "github.com/tochemey/gobam/errors"
	"github.com/tochemey/gobam/log"
)

const (
	helperEnv     = "GOBAM_WATCHDOG_HELPER"
	helperModeEnv = "GOBAM_WATCHDOG_MODE"
)

// TestHelperProcess stands in for the managed server when the supervisor
// tests re-execute the test binary.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}

	args := os.Args
	if i := slices.Index(args, "--"); i >= 0 {
		args = args[i+1:]
	}
	fmt.Println(strings.Join(args, " "))

	switch os.Getenv(helperModeEnv) {
	case "exit":
		os.Exit(3)
	case "connect":
		connectBack(args)
	case "once":
		// the first run exits, later runs stay up
		if _, err := os.Stat("first-run"); os.IsNotExist(err) {
			_ = os.WriteFile("first-run", nil, 0o600)
			os.Exit(3)
		}
		connectBack(args)
	case "stubborn":
		signal.Ignore(os.Interrupt)
		time.Sleep(time.Minute)
	}
	os.Exit(0)
}

// connectBack dials the socket-wait port and exits once the watchdog closes
// the connection.
func connectBack(args []string) {
	i := slices.Index(args, "-socketwait")
	if i < 0 || i+1 >= len(args) {
		os.Exit(2)
	}
	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", args[i+1]))
	if err != nil {
		os.Exit(2)
	}
	_, _ = io.Copy(io.Discard, conn)
	os.Exit(0)
}

func helperCommand(mode string) CommandFunc {
	return func(_ context.Context, spec LaunchSpec) *exec.Cmd {
		args := append([]string{"-test.run=^TestHelperProcess$", "--"}, spec.Argv...)
		cmd := exec.Command(os.Args[0], args...)
		cmd.Env = append(spec.Env, helperEnv+"=1", helperModeEnv+"="+mode)
		cmd.Dir = spec.Dir
		return cmd
	}
}

func supervisedConfig(t *testing.T) *Config {
	t.Helper()
	root := t.TempDir()
	config := NewConfig("app1")
	config.SetResinRoot(root)
	config.SetShutdownWait(5 * time.Second)
	return config
}

func TestSupervisor(t *testing.T) {
	t.Run("With restart after exit", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		config := supervisedConfig(t)
		supervisor := NewSupervisor(config,
			WithCommand(helperCommand("exit")),
			WithRestartDelay(10*time.Millisecond),
			WithSupervisorLogger(log.DiscardLogger))

		ctx := context.TODO()
		require.NoError(t, supervisor.Start(ctx))
		require.True(t, supervisor.IsRunning())
		require.NotEmpty(t, supervisor.RunID())
		require.ErrorIs(t, supervisor.Start(ctx), gerrors.ErrSupervisorRunning)

		require.Eventually(t, func() bool {
			return supervisor.StartCount() >= 2
		}, 10*time.Second, 10*time.Millisecond)
		require.Eventually(t, func() bool {
			code, ok := supervisor.LastExitCode()
			return ok && code == 3
		}, 10*time.Second, 10*time.Millisecond)

		require.NoError(t, supervisor.Stop(ctx))
		require.False(t, supervisor.IsRunning())
		require.ErrorIs(t, supervisor.Stop(ctx), gerrors.ErrSupervisorNotRunning)

		assert.False(t, supervisor.InitialStartTime().IsZero())
		assert.False(t, supervisor.LastStartTime().Before(supervisor.InitialStartTime()))

		output, err := os.ReadFile(config.LogPath())
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(config.ResinRoot(), "log", "jvm-app1.log"), config.LogPath())
		assert.Contains(t, string(output), MainClass)
		assert.Contains(t, string(output), "-socketwait")
		assert.Contains(t, string(output), "-Dresin.exit.code=3")
	})
	t.Run("With stop closing the back connection", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		supervisor := NewSupervisor(supervisedConfig(t),
			WithCommand(helperCommand("connect")),
			WithSupervisorLogger(log.DiscardLogger))

		ctx := context.TODO()
		require.NoError(t, supervisor.Start(ctx))
		require.Eventually(t, func() bool {
			return supervisor.Pid() > 0
		}, 10*time.Second, 10*time.Millisecond)

		require.NoError(t, supervisor.Stop(ctx))
		assert.Equal(t, 1, supervisor.StartCount())
		assert.Zero(t, supervisor.Pid())
		_, ok := supervisor.LastExitCode()
		assert.True(t, ok)

		select {
		case <-supervisor.Done():
		default:
			t.Fatal("supervision should be over")
		}
	})
	t.Run("With restart on demand", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		supervisor := NewSupervisor(supervisedConfig(t),
			WithCommand(helperCommand("connect")),
			WithRestartDelay(10*time.Millisecond),
			WithSupervisorLogger(log.DiscardLogger))
		require.ErrorIs(t, supervisor.Restart(), gerrors.ErrSupervisorNotRunning)

		ctx := context.TODO()
		require.NoError(t, supervisor.Start(ctx))
		require.Eventually(t, func() bool {
			return supervisor.Pid() > 0
		}, 10*time.Second, 10*time.Millisecond)

		require.NoError(t, supervisor.Restart())
		require.Eventually(t, func() bool {
			return supervisor.StartCount() == 2 && supervisor.Pid() > 0
		}, 10*time.Second, 10*time.Millisecond)

		require.NoError(t, supervisor.Stop(ctx))
	})
	t.Run("With restart requested between runs", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		supervisor := NewSupervisor(supervisedConfig(t),
			WithCommand(helperCommand("once")),
			WithRestartDelay(500*time.Millisecond),
			WithSupervisorLogger(log.DiscardLogger))

		ctx := context.TODO()
		require.NoError(t, supervisor.Start(ctx))
		require.Eventually(t, func() bool {
			code, ok := supervisor.LastExitCode()
			return ok && code == 3 && supervisor.Pid() == 0
		}, 10*time.Second, 5*time.Millisecond)

		// the first process is gone; nothing to restart
		require.NoError(t, supervisor.Restart())

		require.Eventually(t, func() bool {
			return supervisor.StartCount() == 2 && supervisor.Pid() > 0
		}, 10*time.Second, 10*time.Millisecond)
		pid := supervisor.Pid()

		time.Sleep(300 * time.Millisecond)
		assert.Equal(t, 2, supervisor.StartCount())
		assert.Equal(t, pid, supervisor.Pid())

		require.NoError(t, supervisor.Stop(ctx))
	})
	t.Run("With kill after the shutdown wait", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("interrupt is not delivered on windows")
		}
		defer goleak.VerifyNone(t)

		config := supervisedConfig(t)
		config.SetShutdownWait(200 * time.Millisecond)
		supervisor := NewSupervisor(config,
			WithCommand(helperCommand("stubborn")),
			WithSupervisorLogger(log.DiscardLogger))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		require.NoError(t, supervisor.Start(ctx))
		require.Eventually(t, func() bool {
			return supervisor.Pid() > 0
		}, 10*time.Second, 10*time.Millisecond)
		// leave the helper time to ignore the interrupt
		time.Sleep(200 * time.Millisecond)

		start := time.Now()
		require.NoError(t, supervisor.Stop(ctx))
		assert.Less(t, time.Since(start), 5*time.Second)

		code, ok := supervisor.LastExitCode()
		require.True(t, ok)
		assert.Equal(t, -1, code)
	})
	t.Run("With process that cannot start", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		missing := filepath.Join(t.TempDir(), "missing-java")
		supervisor := NewSupervisor(supervisedConfig(t),
			WithCommand(func(context.Context, LaunchSpec) *exec.Cmd {
				return exec.Command(missing)
			}),
			WithStartRetries(2),
			WithSupervisorLogger(log.DiscardLogger))

		ctx := context.TODO()
		require.NoError(t, supervisor.Start(ctx))

		select {
		case <-supervisor.Done():
		case <-time.After(10 * time.Second):
			t.Fatal("supervision should end when the process cannot start")
		}

		err := supervisor.Stop(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to start Watchdog[app1]")
		assert.Zero(t, supervisor.StartCount())
	})
	t.Run("With output writer", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		output := &lockedBuffer{}
		config := supervisedConfig(t)
		config.SetVerbose(true)
		supervisor := NewSupervisor(config,
			WithCommand(helperCommand("connect")),
			WithOutput(output),
			WithArgv("-Dfrom.cli=1", "start"),
			WithSupervisorLogger(log.DiscardLogger))

		ctx := context.TODO()
		require.NoError(t, supervisor.Start(ctx))
		require.Eventually(t, func() bool {
			return strings.Contains(output.String(), "-Dfrom.cli=1")
		}, 10*time.Second, 10*time.Millisecond)
		require.NoError(t, supervisor.Stop(ctx))

		assert.Contains(t, output.String(), "CLASSPATH=")
		_, err := os.Stat(config.LogPath())
		assert.True(t, os.IsNotExist(err))
	})
	t.Run("With invalid configuration", func(t *testing.T) {
		config := NewConfig("bad id")
		supervisor := NewSupervisor(config)
		err := supervisor.Start(context.TODO())
		require.ErrorIs(t, err, gerrors.ErrInvalidConfig)
		assert.False(t, supervisor.IsRunning())
	})
}
