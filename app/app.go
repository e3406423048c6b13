// Package app wires a configured mining run: the spawner, the output sink,
// the ledger and the metrics endpoint around a coordinator.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/blockminer/blockio"
	"github.com/spacemeshos/blockminer/config"
	"github.com/spacemeshos/blockminer/coordinator"
	"github.com/spacemeshos/blockminer/logging"
	"github.com/spacemeshos/blockminer/store"
)

type App struct {
	cfg     *config.Config
	content []byte
	coord   *coordinator.Coordinator
	ledger  *store.Ledger

	metricsListener net.Listener
}

// New reads the input and prepares the run. No worker is started.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	content, err := blockio.ReadContent(cfg.Args.Input)
	if err != nil {
		return nil, err
	}

	var spawner coordinator.Spawner
	switch cfg.Mode {
	case config.ModeProcess:
		spawner = coordinator.NewProcessSpawner(coordinator.ProcessConfig{
			Path:      cfg.HasherPath,
			InputPath: cfg.Args.Input,
		})
	default:
		spawner = coordinator.NewInProcessSpawner()
	}

	a := &App{cfg: cfg, content: content}
	opts := []coordinator.Option{
		coordinator.WithWorkers(cfg.Args.Workers),
		coordinator.WithDifficulty(uint(cfg.Args.Zeros)),
		coordinator.WithSpawner(spawner),
		coordinator.WithSink(blockio.FileSink{Path: cfg.Args.Output}),
	}
	if cfg.LedgerDir != "" {
		a.ledger, err = store.Open(cfg.LedgerDir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, coordinator.WithRecorder(a.ledger))
	}
	a.coord, err = coordinator.New(opts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.MetricsPort != nil {
		addr := net.JoinHostPort("", strconv.Itoa(int(*cfg.MetricsPort)))
		a.metricsListener, err = net.Listen("tcp", addr)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to listen on %s for metrics: %w", addr, err)
		}
	}
	logging.FromContext(ctx).Info("prepared run", zap.Object("config", cfg))
	return a, nil
}

// MetricsAddr returns the address of the metrics endpoint, nil if disabled.
func (a *App) MetricsAddr() net.Addr {
	if a.metricsListener == nil {
		return nil
	}
	return a.metricsListener.Addr()
}

// Run mines the block and serves metrics until the run is over.
func (a *App) Run(ctx context.Context) (*coordinator.Result, error) {
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	group, ctx := errgroup.WithContext(ctx)
	logger := logging.FromContext(ctx)

	if a.metricsListener != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{Handler: mux, ReadHeaderTimeout: time.Second * 5}
		group.Go(func() error {
			logger.Sugar().Infof("metrics server listening on %s", a.metricsListener.Addr())
			err := server.Serve(a.metricsListener)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		group.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	var res *coordinator.Result
	group.Go(func() error {
		defer stop()
		var err error
		res, err = a.coord.Run(ctx, a.content)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func (a *App) Close() error {
	if a.metricsListener != nil {
		a.metricsListener.Close()
	}
	if a.ledger != nil {
		return a.ledger.Close()
	}
	return nil
}

// Ledger returns the ledger of committed runs, nil if disabled.
func (a *App) Ledger() *store.Ledger {
	return a.ledger
}
