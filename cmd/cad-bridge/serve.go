// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/cad-bridge/internal/ledger"
	"github.com/pdiddy/cad-bridge/internal/metrics"
	"github.com/pdiddy/cad-bridge/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve conversions over HTTP",
	Long: `Serve starts an HTTP server exposing POST /create_from_openscad, which
accepts {"openscad_code": "...", "document_name": "..."} and returns the
conversion outcome as JSON. GET /healthz and GET /metrics are also served.

Requests are handled concurrently; each one runs an independent conversion.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	dev, _ := cmd.Flags().GetBool("dev")
	logger, err := newLogger(dev)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prom.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p, err := buildPipeline(ctx, cfg, metrics.NewPrometheusRecorder(reg), io.Discard)
	if err != nil {
		return err
	}

	opts := server.Options{
		Logger:  logger,
		Metrics: metrics.HTTPHandler(reg),
		Version: version,
	}
	if cfg.Ledger.Path != "" {
		store, err := ledger.Open(cfg.Ledger.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Ledger = store
		logger.Info("recording outcomes", zap.String("ledger", cfg.Ledger.Path))
	}

	return server.New(p, opts).ListenAndServe(ctx, cfg.Server.Addr)
}

func newLogger(dev bool) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if dev {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, nil
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: server.addr, \":8000\")")
	serveCmd.Flags().Bool("dev", false, "human-readable development logging")

	rootCmd.AddCommand(serveCmd)
}
