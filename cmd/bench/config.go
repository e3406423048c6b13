package main

import "github.com/jessevdk/go-flags"

const (
	defaultSize  = 64
	defaultZeros = 16
	defaultRuns  = 4
	defaultCPU   = false
)

// config defines the configuration options for bench.
type config struct {
	Size  int  `short:"n" description:"content size in bytes"`
	Zeros uint `short:"z" description:"required leading zero bits"`
	Runs  int  `short:"r" description:"number of searches to time"`
	CPU   bool `short:"c" description:"whether to enable CPU profiling"`
}

// loadConfig initializes and parses the config using command line options.
func loadConfig() (*config, error) {
	cfg := config{
		Size:  defaultSize,
		Zeros: defaultZeros,
		Runs:  defaultRuns,
		CPU:   defaultCPU,
	}

	// The parser prints its own errors and the usage message.
	if _, err := flags.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
