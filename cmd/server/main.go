package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/me/procsim/internal/config"
	"github.com/me/procsim/internal/history"
	"github.com/me/procsim/internal/logging"
	"github.com/me/procsim/internal/manager"
	"github.com/me/procsim/internal/notify"
	"github.com/me/procsim/internal/server"
	"github.com/me/procsim/internal/store"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configFile string
		debug      bool
	)

	load := func(cmd *cobra.Command) (config.ServerConfig, error) {
		v, err := config.NewViper(configFile)
		if err != nil {
			return config.ServerConfig{}, err
		}
		if err := config.BindFlags(v, cmd.Flags()); err != nil {
			return config.ServerConfig{}, err
		}
		cfg := config.Load(v)
		if debug {
			cfg.LogLevel = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return config.ServerConfig{}, fmt.Errorf("invalid configuration: %w", err)
		}
		return cfg, nil
	}

	root := &cobra.Command{
		Use:          "procsim-server",
		Short:        "procsim REST API server",
		Long:         "procsim-server hosts a process scheduling simulator behind a REST API with a live event stream.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Shorthand for --log-level=debug")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			return enc.Close()
		},
	})
	return root
}

func run(cfg config.ServerConfig) error {
	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := notify.NewHub()
	mgr := manager.New(cfg.Scheduler.Manager(), logger, manager.WithOnChange(hub.Publish))

	serverOpts := []server.Option{server.WithBaseContext(ctx)}

	// Open the history journal and follow manager notifications.
	if cfg.HistoryDB != "" {
		st, err := openHistory(ctx, cfg.HistoryDB, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		signals, unsubscribe := hub.Subscribe()
		defer unsubscribe()
		go history.NewRecorder(mgr, st, logger).Run(ctx, signals)

		serverOpts = append(serverOpts, server.WithHistory(st))
	} else {
		logger.Info("history journal disabled")
	}

	srv := server.New(cfg, mgr, hub, logger, serverOpts...)

	httpServer := &http.Server{
		Addr:        cfg.Addr,
		Handler:     srv.Handler(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	if cfg.AutoStart {
		mgr.StartScheduler(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}
	logger.Info("shutting down")

	// Stop scheduler before HTTP server.
	mgr.StopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func openHistory(ctx context.Context, path string, logger *slog.Logger) (*store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(path, logger)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate history database: %w", err)
	}
	logger.Info("history journal ready", "path", path)
	return st, nil
}
