// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Copyright (c) 2017-2023 The Spacemesh developers

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/blockminer/logging"
	"github.com/spacemeshos/blockminer/shared"
)

const (
	ModeInProcess = "inprocess"
	ModeProcess   = "process"

	defaultHasherPath     = "./hasher"
	defaultMaxLogFiles    = 3
	defaultMaxLogFileSize = 10
)

// Arguments are the positional arguments of blockminer.
type Arguments struct {
	Input   string `positional-arg-name:"input"         description:"File holding the block content"`
	Output  string `positional-arg-name:"output"        description:"File the mined block is written to"`
	Zeros   int    `positional-arg-name:"leading-zeros" description:"Required number of leading zero bits of the digest"`
	Workers int    `positional-arg-name:"workers"       description:"Number of competing workers"`
}

// Config defines the configuration options for blockminer.
type Config struct {
	ConfigFile     string  `long:"configfile"     description:"Path to configuration file"                               short:"c"`
	Mode           string  `long:"mode"           description:"Where workers run"                                        choice:"inprocess" choice:"process"`
	HasherPath     string  `long:"hasher"         description:"Path of the hasher binary used in process mode"`
	LedgerDir      string  `long:"ledger-dir"     description:"Directory of the ledger of committed runs, none if empty"`
	LogDir         string  `long:"logdir"         description:"Directory to log output, none if empty"`
	DebugLog       bool    `long:"debuglog"       description:"Enable debug logs"`
	JSONLog        bool    `long:"jsonlog"        description:"Whether to log in JSON format"`
	MaxLogFiles    int     `long:"maxlogfiles"    description:"Maximum logfiles to keep (0 for no rotation)"`
	MaxLogFileSize int     `long:"maxlogfilesize" description:"Maximum logfile size in MB"`
	MetricsPort    *uint16 `long:"metrics-port"   description:"The port to expose metrics"`

	CPUProfile string `long:"cpuprofile" description:"Write CPU profile to the specified file"`

	Args Arguments `positional-args:"yes" required:"yes"`
}

// DefaultConfig returns a config with default hardcoded values.
func DefaultConfig() *Config {
	return &Config{
		Mode:           ModeInProcess,
		HasherPath:     defaultHasherPath,
		MaxLogFiles:    defaultMaxLogFiles,
		MaxLogFileSize: defaultMaxLogFileSize,
	}
}

// ParseFlags reads values from command line arguments.
func ParseFlags(preCfg *Config) (*Config, error) {
	return ParseArgs(preCfg, os.Args[1:])
}

// ParseArgs reads values from args. Arguments beyond the positional ones
// are rejected. Every error other than a help request wraps
// shared.ErrConfiguration.
func ParseArgs(preCfg *Config, args []string) (*Config, error) {
	rest, err := flags.NewParser(preCfg, flags.Default).ParseArgs(args)
	if err != nil {
		if IsHelp(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrConfiguration, err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %q", shared.ErrConfiguration, rest)
	}
	return preCfg, nil
}

// IsHelp reports whether err only asked for the usage message.
func IsHelp(err error) bool {
	var flagsErr *flags.Error
	return errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp
}

// Reported reports whether err was already printed by the command line parser.
func Reported(err error) bool {
	var flagsErr *flags.Error
	return errors.As(err, &flagsErr)
}

// ReadConfigFile reads config from an ini file.
// It uses the provided `cfg` as a base config and overrides it with the values
// from the config file.
func ReadConfigFile(cfg *Config) (*Config, error) {
	if cfg.ConfigFile == "" {
		return cfg, nil
	}
	logging.FromContext(context.Background()).Sugar().Debugf("reading config from %s", cfg.ConfigFile)
	if err := flags.IniParse(cfg.ConfigFile, cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from %v: %w", cfg.ConfigFile, err)
	}

	return cfg, nil
}

// SetupConfig expands paths and initializes filesystem.
func SetupConfig(cfg *Config) (*Config, error) {
	cfg.Args.Input = cleanAndExpandPath(cfg.Args.Input)
	cfg.Args.Output = cleanAndExpandPath(cfg.Args.Output)
	cfg.LedgerDir = cleanAndExpandPath(cfg.LedgerDir)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.CPUProfile = cleanAndExpandPath(cfg.CPUProfile)

	for _, dir := range []string{cfg.LedgerDir, cfg.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("%w: failed to create %v: %w", shared.ErrIO, dir, err)
		}
	}
	return cfg, nil
}

// Validate reports every invalid option at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	if err := shared.ValidateDifficulty(c.Args.Zeros); err != nil {
		result = multierror.Append(result, err)
	}
	if c.Args.Workers < 1 {
		result = multierror.Append(result, fmt.Errorf("at least one worker is required, got %d", c.Args.Workers))
	}
	if c.Args.Input == "" {
		result = multierror.Append(result, fmt.Errorf("no input file"))
	}
	if c.Args.Output == "" {
		result = multierror.Append(result, fmt.Errorf("no output file"))
	}
	switch c.Mode {
	case ModeInProcess:
	case ModeProcess:
		if c.HasherPath == "" {
			result = multierror.Append(result, fmt.Errorf("process mode requires a hasher binary"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown mode %q", c.Mode))
	}
	if c.MaxLogFiles < 0 {
		result = multierror.Append(result, fmt.Errorf("negative number of log files %d", c.MaxLogFiles))
	}
	if c.LogDir != "" && c.MaxLogFileSize < 1 {
		result = multierror.Append(result, fmt.Errorf("log file size must be at least 1 MB, got %d", c.MaxLogFileSize))
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrConfiguration, err)
	}
	return nil
}

// implement zap.ObjectMarshaler interface.
func (c *Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("input", c.Args.Input)
	enc.AddString("output", c.Args.Output)
	enc.AddInt("leading-zeros", c.Args.Zeros)
	enc.AddInt("workers", c.Args.Workers)
	enc.AddString("mode", c.Mode)
	if c.Mode == ModeProcess {
		enc.AddString("hasher", c.HasherPath)
	}
	if c.LedgerDir != "" {
		enc.AddString("ledger-dir", c.LedgerDir)
	}
	if c.MetricsPort != nil {
		enc.AddUint16("metrics-port", *c.MetricsPort)
	}
	return nil
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
// This function is taken from https://github.com/btcsuite/btcd
func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		user, err := user.Current()
		if err == nil {
			homeDir = user.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
