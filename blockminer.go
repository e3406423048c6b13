package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"

	"go.uber.org/zap"

	"github.com/spacemeshos/blockminer/app"
	"github.com/spacemeshos/blockminer/config"
	"github.com/spacemeshos/blockminer/logging"
)

// blockminer binary version.
// It should be passed during the build with '-ldflags "-X main.version="'.
var version = "unknown"

// blockminerMain is the true entry point for blockminer. This function is
// required since defers created in the top-level scope of a main method
// aren't executed if os.Exit() is called.
func blockminerMain() error {
	var err error
	// Start with a default Config with sane settings
	cfg := config.DefaultConfig()
	// Pre-parse the command line to check for an alternative Config file
	cfg, err = config.ParseFlags(cfg)
	if err != nil {
		return err
	}
	// Load configuration file overwriting defaults with any specified options
	cfg, err = config.ReadConfigFile(cfg)
	if err != nil {
		return err
	}
	// Finally, parse the remaining command line options again to ensure
	// they take precedence.
	cfg, err = config.ParseFlags(cfg)
	if err != nil {
		return err
	}
	cfg, err = config.SetupConfig(cfg)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Initialize logging
	logLevel := zap.InfoLevel
	if cfg.DebugLog {
		logLevel = zap.DebugLevel
	}
	logFile := logging.FileConfig{MaxSizeMB: cfg.MaxLogFileSize, MaxBackups: cfg.MaxLogFiles}
	if cfg.LogDir != "" {
		logFile.Path = filepath.Join(cfg.LogDir, "blockminer.log")
	}
	logger := logging.New(logLevel, logFile, cfg.JSONLog)
	defer func() { _ = logger.Sync() }()
	ctx := logging.NewContext(context.Background(), logger)
	logger.Sugar().Infof("version: %s", version)

	if cfg.CPUProfile != "" {
		f, err := os.Create(cfg.CPUProfile)
		if err != nil {
			logger.With(zap.Error(err)).Error("could not create CPU profile")
		} else {
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				logger.With(zap.Error(err)).Error("could not start CPU profile")
			}
			defer pprof.StopCPUProfile()
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to prepare run: %w", err)
	}
	defer a.Close()

	fmt.Println("\nRunning...")
	res, err := a.Run(ctx)
	if err != nil {
		return fmt.Errorf("mining failed: %w", err)
	}

	fmt.Printf("\nSuccessful block outfile:   %s\n", cfg.Args.Output)
	fmt.Printf("Amount of leading zeros:    %d\n", res.Difficulty)
	fmt.Printf("Total time for program was: %1.6f\n\n", res.Elapsed.Seconds())
	return nil
}

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed in the case of a graceful shutdown.
	if err := blockminerMain(); err != nil {
		// If it's the flag utility error don't print it,
		// because it was already printed.
		if !config.Reported(err) {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
