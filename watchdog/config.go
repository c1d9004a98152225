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
	"os"
	"path/filepath"
	"regexp"
	"time"

	gerrors "github.com/tochemey/gobam/errors"
	"github.com/tochemey/gobam/internal/validation"
)

const (
	// DefaultWatchdogPort is the port the watchdog listens on when none is configured.
	DefaultWatchdogPort = 6600
	// DefaultShutdownWait is how long a stopping server is given before it is killed.
	DefaultShutdownWait = 60 * time.Second
	// DefaultAddress is the watchdog listen address.
	DefaultAddress = "127.0.0.1"
)

var idPattern = regexp.MustCompile(`^[\w.-]*$`)

// Port is a listening port the managed server opens.
type Port struct {
	Address string
	Port    int
}

// Config describes one managed server: where its files live, how its JVM is
// launched and how the watchdog supervises it. A Config is written by the
// Loader and only read afterwards.
type Config struct {
	id                string
	javaHome          string
	javaExe           string
	resinHome         string
	resinRoot         string
	pwd               string
	logDirectory      string
	logPath           string
	resinConf         string
	chroot            string
	jvmArgs           JvmArgs
	watchdogJvmArgs   JvmArgs
	watchdogArgs      []string
	jvmClasspath      []string
	ports             []Port
	userName          string
	groupName         string
	address           string
	watchdogPort      int
	portOverride      int
	shutdownWait      time.Duration
	verbose           bool
	jvmMode           string
	systemClassLoader string
}

// NewConfig creates a Config for the server identified by id. An empty id is
// the default server.
func NewConfig(id string) *Config {
	return &Config{
		id:           id,
		address:      DefaultAddress,
		shutdownWait: DefaultShutdownWait,
	}
}

// ID returns the server id.
func (c *Config) ID() string { return c.id }

// SetID sets the server id.
func (c *Config) SetID(id string) { c.id = id }

// SetJavaHome sets the JDK or JRE directory.
func (c *Config) SetJavaHome(dir string) { c.javaHome = dir }

// JavaHome returns the configured java home, or $JAVA_HOME.
func (c *Config) JavaHome() string {
	if c.javaHome != "" {
		return c.javaHome
	}
	return os.Getenv("JAVA_HOME")
}

// SetJavaExe sets the java executable, bypassing the java home lookup.
func (c *Config) SetJavaExe(path string) { c.javaExe = path }

// SetResinHome sets the installation directory.
func (c *Config) SetResinHome(dir string) { c.resinHome = dir }

// ResinHome returns the installation directory.
func (c *Config) ResinHome() string { return c.resinHome }

// SetResinRoot sets the server root directory.
func (c *Config) SetResinRoot(dir string) { c.resinRoot = dir }

// ResinRoot returns the server root directory.
func (c *Config) ResinRoot() string { return c.resinRoot }

// SetPwd sets the working directory of the managed process.
func (c *Config) SetPwd(dir string) { c.pwd = dir }

// Pwd returns the working directory of the managed process: the configured
// one, or the server root.
func (c *Config) Pwd() string {
	if c.pwd != "" {
		return c.pwd
	}
	return c.resinRoot
}

// SetLogDirectory sets the log directory.
func (c *Config) SetLogDirectory(dir string) { c.logDirectory = dir }

// LogDirectory returns the configured log directory, or log under the server root.
func (c *Config) LogDirectory() string {
	if c.logDirectory != "" {
		return c.logDirectory
	}
	return filepath.Join(c.resinRoot, "log")
}

// SetLogPath sets the file receiving the managed process output.
func (c *Config) SetLogPath(path string) { c.logPath = path }

// SetResinConf sets the server configuration file.
func (c *Config) SetResinConf(path string) { c.resinConf = path }

// ResinConf returns the server configuration file.
func (c *Config) ResinConf() string { return c.resinConf }

// SetChroot sets the directory the managed process is confined to.
func (c *Config) SetChroot(dir string) { c.chroot = dir }

// Chroot returns the directory the managed process is confined to.
func (c *Config) Chroot() string { return c.chroot }

// AddJvmArg appends arguments for the managed server JVM.
func (c *Config) AddJvmArg(args ...string) { c.jvmArgs.Add(args...) }

// JvmArgs returns the managed server JVM arguments.
func (c *Config) JvmArgs() *JvmArgs { return &c.jvmArgs }

// AddWatchdogJvmArg appends arguments for the watchdog JVM.
func (c *Config) AddWatchdogJvmArg(args ...string) { c.watchdogJvmArgs.Add(args...) }

// WatchdogJvmArgs returns the watchdog JVM arguments.
func (c *Config) WatchdogJvmArgs() *JvmArgs { return &c.watchdogJvmArgs }

// AddWatchdogArg appends arguments for the watchdog process.
func (c *Config) AddWatchdogArg(args ...string) {
	c.watchdogArgs = append(c.watchdogArgs, args...)
}

// WatchdogArgs returns the watchdog process arguments.
func (c *Config) WatchdogArgs() []string { return append([]string(nil), c.watchdogArgs...) }

// AddJvmClasspath appends class path entries.
func (c *Config) AddJvmClasspath(entries ...string) {
	c.jvmClasspath = append(c.jvmClasspath, entries...)
}

// JvmClasspath returns the class path entries.
func (c *Config) JvmClasspath() []string { return append([]string(nil), c.jvmClasspath...) }

// AddPort adds a port the server listens on.
func (c *Config) AddPort(port Port) { c.ports = append(c.ports, port) }

// Ports returns the ports the server listens on.
func (c *Config) Ports() []Port { return append([]Port(nil), c.ports...) }

// SetUserName sets the OS user the server runs as.
func (c *Config) SetUserName(user string) { c.userName = user }

// UserName returns the OS user the server runs as.
func (c *Config) UserName() string { return c.userName }

// SetGroupName sets the OS group the server runs as.
func (c *Config) SetGroupName(group string) { c.groupName = group }

// GroupName returns the OS group the server runs as.
func (c *Config) GroupName() string { return c.groupName }

// SetAddress sets the watchdog listen address.
func (c *Config) SetAddress(address string) { c.address = address }

// Address returns the watchdog listen address.
func (c *Config) Address() string { return c.address }

// SetWatchdogPort sets the configured watchdog port.
func (c *Config) SetWatchdogPort(port int) { c.watchdogPort = port }

// SetPortOverride sets the watchdog port given on the command line. It wins
// over the configured one.
func (c *Config) SetPortOverride(port int) { c.portOverride = port }

// SetShutdownWait sets how long a stopping server is given before it is killed.
func (c *Config) SetShutdownWait(wait time.Duration) { c.shutdownWait = wait }

// ShutdownWait returns how long a stopping server is given before it is killed.
func (c *Config) ShutdownWait() time.Duration { return c.shutdownWait }

// SetVerbose makes the supervisor log the launch command and environment.
func (c *Config) SetVerbose(verbose bool) { c.verbose = verbose }

// Verbose reports whether the launch command is logged.
func (c *Config) Verbose() bool { return c.verbose }

// SetJvmMode sets the JVM mode argument ("-server", "-client" or "none").
func (c *Config) SetJvmMode(mode string) { c.jvmMode = mode }

// JvmMode returns the JVM mode argument.
func (c *Config) JvmMode() string { return c.jvmMode }

// SetSystemClassLoader sets the JVM system class loader.
func (c *Config) SetSystemClassLoader(class string) { c.systemClassLoader = class }

// SystemClassLoader returns the JVM system class loader.
func (c *Config) SystemClassLoader() string { return c.systemClassLoader }

// Is64Bit reports whether the managed JVM runs in 64-bit mode.
func (c *Config) Is64Bit() bool { return c.jvmArgs.Is64Bit() }

// WatchdogPort returns the command line port, else the configured one, else
// DefaultWatchdogPort.
func (c *Config) WatchdogPort() int {
	switch {
	case c.portOverride > 0:
		return c.portOverride
	case c.watchdogPort > 0:
		return c.watchdogPort
	default:
		return DefaultWatchdogPort
	}
}

// LogPath returns the configured log path, else jvm-{id}.log in the log
// directory (jvm-default.log for the default server).
func (c *Config) LogPath() string {
	if c.logPath != "" {
		return c.logPath
	}

	name := "jvm-default.log"
	if c.id != "" {
		name = "jvm-" + c.id + ".log"
	}
	return filepath.Join(c.LogDirectory(), name)
}

// JavaExe resolves the java executable: the configured one, else bin/java
// (or bin/javaw on Windows) under the java home with a trailing jre removed,
// else under the java home as given, else "java" from the PATH.
func (c *Config) JavaExe() string {
	if c.javaExe != "" {
		return c.javaExe
	}

	javaHome := c.JavaHome()
	if javaHome == "" {
		return "java"
	}

	if filepath.Base(javaHome) == "jre" {
		if exe, ok := probeJava(filepath.Dir(javaHome)); ok {
			return exe
		}
	}
	if exe, ok := probeJava(javaHome); ok {
		return exe
	}
	return "java"
}

func probeJava(home string) (string, bool) {
	bin := filepath.Join(home, "bin")
	switch {
	case readable(filepath.Join(bin, "javaw.exe")):
		return filepath.Join(bin, "javaw"), true
	case readable(filepath.Join(bin, "java.exe")), readable(filepath.Join(bin, "java")):
		return filepath.Join(bin, "java"), true
	default:
		return "", false
	}
}

func readable(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = file.Close()
	return true
}

// Validate reports every structural problem of the configuration at once.
func (c *Config) Validate() error {
	chain := validation.New(validation.AllErrors(), validation.Scope(fmt.Sprintf("servers[%s]", c.id))).
		AddValidator(validation.NewPattern("id", idPattern, c.id)).
		AddValidator(validation.NewPort("watchdog-port", c.watchdogPort, true)).
		AddValidator(validation.NewPort("watchdog-port-override", c.portOverride, true)).
		AddAssertion("shutdown-wait", c.shutdownWait >= 0, "must not be negative").
		AddAssertion("jvm-mode", c.jvmMode == "" || c.jvmMode == "none" || c.jvmMode == "-server" || c.jvmMode == "-client",
			fmt.Sprintf("%q is unknown", c.jvmMode)).
		AddAssertion("group-name", c.groupName == "" || c.userName != "", "requires user-name")

	for i, port := range c.ports {
		chain.AddValidator(validation.NewPort(fmt.Sprintf("ports[%d]", i), port.Port, false))
	}

	if err := chain.Validate(); err != nil {
		return gerrors.NewErrInvalidConfig(err)
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf("Watchdog[%s]", c.id)
}
