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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"gopkg.in/yaml.v3"

	gerrors "github.com/tochemey/gobam/errors"
	"github.com/tochemey/gobam/log"
)

const (
	keyServers       = "servers"
	keyServerDefault = "server-default"
)

type setter func(c *Config, value *yaml.Node) error

// setters maps the server keys to the Config fields they set.
var setters = map[string]setter{
	"id":                  stringSetter((*Config).SetID),
	"java-home":           stringSetter((*Config).SetJavaHome),
	"java-exe":            stringSetter((*Config).SetJavaExe),
	"resin-home":          stringSetter((*Config).SetResinHome),
	"root-directory":      stringSetter((*Config).SetResinRoot),
	"pwd":                 stringSetter((*Config).SetPwd),
	"log-directory":       stringSetter((*Config).SetLogDirectory),
	"log-path":            stringSetter((*Config).SetLogPath),
	"resin-conf":          stringSetter((*Config).SetResinConf),
	"chroot":              stringSetter((*Config).SetChroot),
	"user-name":           stringSetter((*Config).SetUserName),
	"group-name":          stringSetter((*Config).SetGroupName),
	"watchdog-address":    stringSetter((*Config).SetAddress),
	"jvm-mode":            stringSetter((*Config).SetJvmMode),
	"system-class-loader": stringSetter((*Config).SetSystemClassLoader),
	"jvm-arg":             listSetter((*Config).AddJvmArg),
	"watchdog-jvm-arg":    listSetter((*Config).AddWatchdogJvmArg),
	"watchdog-arg":        listSetter((*Config).AddWatchdogArg),
	"jvm-classpath":       listSetter((*Config).AddJvmClasspath),
	"watchdog-port": func(c *Config, value *yaml.Node) error {
		var port int
		if err := value.Decode(&port); err != nil {
			return err
		}
		c.SetWatchdogPort(port)
		return nil
	},
	"verbose": func(c *Config, value *yaml.Node) error {
		var verbose bool
		if err := value.Decode(&verbose); err != nil {
			return err
		}
		c.SetVerbose(verbose)
		return nil
	},
	"shutdown-wait": func(c *Config, value *yaml.Node) error {
		wait, err := decodeDuration(value)
		if err != nil {
			return err
		}
		c.SetShutdownWait(wait)
		return nil
	},
	"http":     portSetter,
	"protocol": portSetter,
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets the loader logger.
func WithLoaderLogger(logger log.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithPortOverride applies a command line watchdog port to every loaded server.
func WithPortOverride(port int) LoaderOption {
	return func(l *Loader) {
		l.portOverride = port
	}
}

// WithIgnoredKeys adds keys to discard on top of IgnoredKeys.
func WithIgnoredKeys(keys ...string) LoaderOption {
	return func(l *Loader) {
		l.ignored.Append(keys...)
	}
}

// Loader reads watchdog configurations from YAML.
//
// A document holds a server-default mapping applied to every server, and a
// servers sequence with one mapping per server. A document without servers
// describes the default server. Keys listed by IgnoredKeys are accepted and
// dropped, any other unknown key fails with ErrUnknownConfigKey.
type Loader struct {
	logger       log.Logger
	portOverride int
	ignored      mapset.Set[string]
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	loader := &Loader{
		logger:  log.DefaultLogger,
		ignored: ignoredKeys.Clone(),
	}
	for _, opt := range opts {
		opt(loader)
	}
	return loader
}

// LoadFile reads the configurations in the file at path.
func (l *Loader) LoadFile(path string) ([]*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchdog configuration: %w", err)
	}
	configs, err := l.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return configs, nil
}

// Decode reads every YAML document of r.
func (l *Loader) Decode(r io.Reader) ([]*Config, error) {
	decoder := yaml.NewDecoder(r)
	seen := mapset.NewThreadUnsafeSet[string]()

	var configs []*Config
	for {
		var document yaml.Node
		err := decoder.Decode(&document)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, gerrors.NewErrInvalidConfig(err)
		}

		loaded, err := l.document(&document)
		if err != nil {
			return nil, err
		}

		for _, config := range loaded {
			if !seen.Add(config.ID()) {
				return nil, gerrors.NewErrInvalidConfig(fmt.Errorf("duplicate server id %q", config.ID()))
			}
			configs = append(configs, config)
		}
	}
	return configs, nil
}

func (l *Loader) document(document *yaml.Node) ([]*Config, error) {
	if len(document.Content) == 0 {
		return nil, nil
	}

	root := document.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, gerrors.NewErrInvalidConfig(fmt.Errorf("line %d: expected a mapping", root.Line))
	}

	var defaults, servers *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		switch {
		case key.Value == keyServerDefault:
			defaults = value
		case key.Value == keyServers:
			servers = value
		case l.ignored.Contains(key.Value):
			l.logger.Debugf("ignoring watchdog setting %q at line %d", key.Value, key.Line)
		default:
			return nil, fmt.Errorf("%w: %q at line %d", gerrors.ErrUnknownConfigKey, key.Value, key.Line)
		}
	}

	if servers == nil {
		config, err := l.server(defaults, nil)
		if err != nil {
			return nil, err
		}
		return []*Config{config}, nil
	}

	if servers.Kind != yaml.SequenceNode {
		return nil, gerrors.NewErrInvalidConfig(fmt.Errorf("line %d: %s must be a sequence", servers.Line, keyServers))
	}

	configs := make([]*Config, 0, len(servers.Content))
	for _, server := range servers.Content {
		config, err := l.server(defaults, server)
		if err != nil {
			return nil, err
		}
		configs = append(configs, config)
	}
	return configs, nil
}

func (l *Loader) server(nodes ...*yaml.Node) (*Config, error) {
	config := NewConfig("")
	for _, node := range nodes {
		if node == nil {
			continue
		}
		if err := l.apply(config, node); err != nil {
			return nil, err
		}
	}

	if l.portOverride > 0 {
		config.SetPortOverride(l.portOverride)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", config, err)
	}
	return config, nil
}

func (l *Loader) apply(config *Config, node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return gerrors.NewErrInvalidConfig(fmt.Errorf("line %d: expected a mapping", node.Line))
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		set, ok := setters[key.Value]
		if !ok {
			if l.ignored.Contains(key.Value) {
				l.logger.Debugf("ignoring watchdog setting %q at line %d", key.Value, key.Line)
				continue
			}
			return fmt.Errorf("%w: %q at line %d", gerrors.ErrUnknownConfigKey, key.Value, key.Line)
		}

		if err := set(config, value); err != nil {
			return gerrors.NewErrInvalidConfig(fmt.Errorf("%s at line %d: %w", key.Value, value.Line, err))
		}
	}
	return nil
}

func stringSetter(set func(*Config, string)) setter {
	return func(c *Config, value *yaml.Node) error {
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		set(c, s)
		return nil
	}
}

// listSetter accepts a single value or a sequence.
func listSetter(add func(*Config, ...string)) setter {
	return func(c *Config, value *yaml.Node) error {
		if value.Kind == yaml.ScalarNode {
			add(c, value.Value)
			return nil
		}
		var values []string
		if err := value.Decode(&values); err != nil {
			return err
		}
		add(c, values...)
		return nil
	}
}

// portSetter accepts a port number, a mapping with address and port, or a
// sequence of those.
func portSetter(c *Config, value *yaml.Node) error {
	nodes := []*yaml.Node{value}
	if value.Kind == yaml.SequenceNode {
		nodes = value.Content
	}

	for _, node := range nodes {
		var port Port
		switch node.Kind {
		case yaml.ScalarNode:
			if err := node.Decode(&port.Port); err != nil {
				return err
			}
		case yaml.MappingNode:
			var raw struct {
				Address string `yaml:"address"`
				Port    int    `yaml:"port"`
			}
			if err := node.Decode(&raw); err != nil {
				return err
			}
			port = Port{Address: raw.Address, Port: raw.Port}
		default:
			return fmt.Errorf("line %d: expected a port", node.Line)
		}
		c.AddPort(port)
	}
	return nil
}

// decodeDuration accepts a Go duration string or a number of milliseconds.
func decodeDuration(value *yaml.Node) (time.Duration, error) {
	var millis int64
	if err := value.Decode(&millis); err == nil {
		return time.Duration(millis) * time.Millisecond, nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return 0, err
	}
	return time.ParseDuration(s)
}
