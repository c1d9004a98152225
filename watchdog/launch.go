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
	"runtime"
	"slices"
	"strconv"
	"strings"
)

// MainClass is the entry point of the managed server.
const MainClass = "com.caucho.server.resin.Resin"

// reservedProperties are system properties the watchdog sets itself.
var reservedProperties = []string{"-Dresin.home", "-Dresin.root", "-Dresin.watchdog"}

// LaunchSpec is the decided invocation of the managed server.
type LaunchSpec struct {
	// Argv is the full command line, starting with the java executable.
	Argv []string
	// Env is the process environment in KEY=value form.
	Env []string
	// Dir is the working directory.
	Dir string
}

// LaunchOptions are the per-start inputs of a launch.
type LaunchOptions struct {
	// Argv are the command line arguments given to the watchdog.
	Argv []string
	// SocketPort is the port the server connects back to once started.
	SocketPort int
	// PreviousExitCode is the exit code of the previous run, if any.
	PreviousExitCode *int
}

// BuildLaunchSpec decides how the server described by config is started.
func BuildLaunchSpec(config *Config, opts LaunchOptions) LaunchSpec {
	jvmArgs := buildJvmArgs(config, opts)
	resinArgs := buildResinArgs(config, opts.SocketPort)
	jvmArgs, resinArgs = addCommandLineArgs(jvmArgs, resinArgs, opts.Argv)

	argv := append(jvmArgs, MainClass)
	argv = append(argv, resinArgs...)

	return LaunchSpec{
		Argv: argv,
		Env:  buildEnv(config, os.Environ()),
		Dir:  config.Pwd(),
	}
}

func buildJvmArgs(config *Config, opts LaunchOptions) []string {
	args := []string{config.JavaExe()}

	// user arguments come first so that ps shows them
	for _, arg := range config.JvmArgs().Args() {
		if !isReservedProperty(arg) {
			args = append(args, arg)
		}
	}

	args = append(args,
		"-Dresin.server="+config.ID(),
		"-Djava.util.logging.manager=com.caucho.log.LogManagerImpl")

	if loader := config.SystemClassLoader(); loader != "" {
		args = append(args, "-Djava.system.class.loader="+loader)
	}

	args = append(args,
		"-Djava.awt.headless=true",
		"-Dresin.home="+config.ResinHome())

	if !config.JvmArgs().HasXss() {
		args = append(args, "-Xss1m")
	}
	if !config.JvmArgs().HasXmx() {
		args = append(args, "-Xmx256m")
	}

	if opts.PreviousExitCode != nil {
		args = append(args, "-Dresin.exit.code="+strconv.Itoa(*opts.PreviousExitCode))
	}

	for i := 0; i < len(opts.Argv); i++ {
		arg := opts.Argv[i]
		switch {
		case isReservedProperty(arg):
		case strings.HasPrefix(arg, "-D"), strings.HasPrefix(arg, "-X"), arg == "-d64", arg == "-d32":
			args = append(args, arg)
		case (arg == "--debug-port" || arg == "-debug-port") && i+1 < len(opts.Argv):
			args = append(args,
				"-Xdebug",
				"-Xrunjdwp:transport=dt_socket,server=y,suspend=n,address="+opts.Argv[i+1])
			i++
		case (arg == "--jmx-port" || arg == "-jmx-port") && i+1 < len(opts.Argv):
			args = append(args,
				"-Dcom.sun.management.jmxremote.port="+opts.Argv[i+1],
				"-Dcom.sun.management.jmxremote.authenticate=false",
				"-Dcom.sun.management.jmxremote.ssl=false")
			i++
		}
	}

	windows := runtime.GOOS == "windows"
	if config.Is64Bit() && !windows && !slices.Contains(args, "-d32") && !slices.Contains(args, "-d64") {
		args = append(args, "-d64")
	}

	mode := config.JvmMode()
	if mode == "" {
		mode = "-server"
	}
	if !windows && mode != "none" {
		args = append(args, mode)
	}
	return args
}

func buildResinArgs(config *Config, socketPort int) []string {
	var args []string
	if root := config.ResinRoot(); root != "" {
		args = append(args, "--root-directory", root)
	}
	if conf := config.ResinConf(); conf != "" {
		args = append(args, "-conf", conf)
	}

	server := config.ID()
	if server == "" {
		server = "default"
	}
	args = append(args, "-server", server)
	return append(args, "-socketwait", strconv.Itoa(socketPort))
}

// addCommandLineArgs passes -J arguments to the JVM and the arguments the
// JVM does not consume to the server.
func addCommandLineArgs(jvmArgs, resinArgs, argv []string) ([]string, []string) {
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "-conf":
			i++
		case arg == "--debug-port", arg == "-debug-port", arg == "--jmx-port", arg == "-jmx-port":
			i++
		case isReservedProperty(arg):
		case strings.HasPrefix(arg, "-J"):
			jvmArgs = append(jvmArgs, arg[2:])
		case strings.HasPrefix(arg, "-D"), strings.HasPrefix(arg, "-X"):
		case arg == "-d64", strings.HasPrefix(arg, "-d32"):
		default:
			resinArgs = append(resinArgs, arg)
		}
	}
	return jvmArgs, resinArgs
}

func isReservedProperty(arg string) bool {
	arg = strings.TrimPrefix(arg, "-J")
	key, _, found := strings.Cut(arg, "=")
	return found && slices.Contains(reservedProperties, key)
}

func buildEnv(config *Config, base []string) []string {
	env := make(map[string]string, len(base)+4)
	keys := make([]string, 0, len(base)+4)
	put := func(key, value string) {
		if _, ok := env[key]; !ok {
			keys = append(keys, key)
		}
		env[key] = value
	}
	appendPath := func(key, value string) {
		if current := env[key]; current != "" {
			value = current + string(os.PathListSeparator) + value
		}
		put(key, value)
	}

	for _, kv := range base {
		if key, value, ok := strings.Cut(kv, "="); ok {
			put(key, value)
		}
	}

	classpath := append(config.JvmClasspath(), filepath.Join(config.ResinHome(), "lib", "*"))
	put("CLASSPATH", strings.Join(classpath, string(os.PathListSeparator)))

	libexec := filepath.Join(config.ResinHome(), "libexec")
	if config.Is64Bit() {
		libexec = filepath.Join(config.ResinHome(), "libexec64")
		appendPath("LD_LIBRARY_PATH_64", libexec)
	}
	appendPath("LD_LIBRARY_PATH", libexec)
	appendPath("DYLD_LIBRARY_PATH", libexec)

	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, fmt.Sprintf("%s=%s", key, env[key]))
	}
	return out
}
