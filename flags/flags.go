// Package flags provides support for cctransfer CLI args
package flags

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"hop.computer/cctransfer/common"
	"hop.computer/cctransfer/config"
)

// ErrExcessArgs is returned when unparsed arguments remain
var ErrExcessArgs = errors.New("usage: cctransfer [flags] [client|server [host port]]")

// Flags holds CLI arguments for the sender.
type Flags struct {
	ConfigPath string

	// Positional arguments. Empty strings mean "not given".
	Mode string
	Host string
	Port string

	File           string
	LogLevel       string
	MaxTimeouts    int
	MetricsAddress string

	// set records which flags appeared on the command line.
	set map[string]bool
}

func defineFlags(fs *flag.FlagSet, f *Flags) {
	fs.StringVar(&f.ConfigPath, "C", "", "path to a TOML config file")
	fs.StringVar(&f.File, "f", "", "file to send (prompted for when unspecified)")
	fs.StringVar(&f.LogLevel, "log", "", "log level (trace, debug, info, warn, error)")
	fs.IntVar(&f.MaxTimeouts, "max-timeouts", common.DefaultMaxTimeouts, "consecutive timeouts before giving up (0 retries forever)")
	fs.StringVar(&f.MetricsAddress, "metrics", "", "serve Prometheus metrics on this address")
}

// ParseArgs defines and parses the flags from the command line. args[0] is
// the program name.
func ParseArgs(args []string, output io.Writer) (*Flags, error) {
	f := &Flags{set: make(map[string]bool)}
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(output)
	defineFlags(fs, f)

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})

	switch fs.NArg() {
	case 0:
	case 1:
		f.Mode = fs.Arg(0)
	case 3:
		f.Mode, f.Host, f.Port = fs.Arg(0), fs.Arg(1), fs.Arg(2)
	default:
		return nil, ErrExcessArgs
	}
	return f, nil
}

func mergeFlagsAndConfig(f *Flags, c *config.Config) error {
	if f.Mode != "" {
		c.Mode = f.Mode
	}
	if f.Host != "" {
		c.Host = f.Host
	}
	if f.Port != "" {
		port, err := strconv.Atoi(f.Port)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", f.Port, err)
		}
		c.Port = port
	}
	if f.File != "" {
		c.File = f.File
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	if f.set["max-timeouts"] {
		c.MaxTimeouts = f.MaxTimeouts
	}
	if f.MetricsAddress != "" {
		c.MetricsAddress = f.MetricsAddress
	}
	return nil
}

// LoadConfigFromFlags follows the config path provided in flags (or uses the
// defaults when there is none) and applies the flag overrides on top.
func LoadConfigFromFlags(f *Flags) (*config.Config, error) {
	c := config.Default()
	if f.ConfigPath != "" {
		var err error
		c, err = config.LoadFromFile(f.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("unable to load config: %w", err)
		}
	}
	if err := mergeFlagsAndConfig(f, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
