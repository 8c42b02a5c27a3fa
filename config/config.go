// Package config contains the structure for parsing the sender configuration.
package config

import (
	"io/fs"
	"net"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"hop.computer/cctransfer/common"
	"hop.computer/cctransfer/congestion/protocol"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

var modes = []string{common.ClientMode, common.ServerMode}

// Config is the sender configuration. Every field can be set in a TOML file
// and most can be overridden by flags.
type Config struct {
	// Mode is common.ClientMode or common.ServerMode.
	Mode string
	Host string
	Port int

	// File is the file to send. When empty, the CLI prompts for it.
	File string

	LogLevel string

	// ChunkSize is fixed by the wire format. It is accepted so that a config
	// file can state it, but any other value is rejected.
	ChunkSize int

	// MaxTimeouts bounds consecutive retransmission timeouts without progress.
	// Zero disables the bound.
	MaxTimeouts int

	// MetricsAddress is the listen address of the Prometheus endpoint. Empty
	// disables it.
	MetricsAddress string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Mode:        common.ClientMode,
		Host:        common.DefaultHost,
		Port:        common.DefaultPort,
		LogLevel:    logrus.InfoLevel.String(),
		ChunkSize:   protocol.ChunkSize,
		MaxTimeouts: common.DefaultMaxTimeouts,
	}
}

// LoadFromFile reads the TOML file at path on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	b, err := fs.ReadFile(fileSystem, path)
	if err != nil {
		return nil, err
	}
	c := Default()
	md, err := toml.Decode(string(b), c)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.Wrapf(ErrInvalid, "%s: unknown settings %s", path, strings.Join(keys, ", "))
	}
	return c, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if !slices.Contains(modes, c.Mode) {
		return errors.Wrapf(ErrInvalid, "mode %q, expected one of %s", c.Mode, strings.Join(modes, ", "))
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Wrapf(ErrInvalid, "port %d", c.Port)
	}
	if c.Mode == common.ClientMode && c.Host == "" {
		return errors.Wrap(ErrInvalid, "client mode needs a host")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(ErrInvalid, "log level %q", c.LogLevel)
	}
	if c.ChunkSize != protocol.ChunkSize {
		return errors.Wrapf(ErrInvalid, "chunk size %d, only %d is supported", c.ChunkSize, protocol.ChunkSize)
	}
	if c.MaxTimeouts < 0 {
		return errors.Wrapf(ErrInvalid, "max timeouts %d", c.MaxTimeouts)
	}
	return nil
}

// Address is the host:port to dial in client mode or to listen on in server
// mode.
func (c *Config) Address() string {
	host := c.Host
	if c.Mode == common.ServerMode {
		host = ""
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Port))
}

// Level returns the parsed log level. Call Validate first.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
