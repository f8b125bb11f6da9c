// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tablewire/gateway/internal/logging"
	"tablewire/gateway/internal/metrics"
	"tablewire/gateway/internal/server"
	"tablewire/gateway/internal/sqlexec"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// serveCmd runs the gateway until interrupted.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the websocket gateway",
	Long: `The serve command does not connect at startup. Every request opens its own
backend connection (or borrows one from the pool with --pool). Clients connect
over websocket to --addr and receive Init before sending requests.

Prometheus metrics are served on the same address under /metrics. Backend
health is reported over the gRPC health protocol on --health-addr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
		if err != nil {
			return err
		}

		rawDSN, source, err := resolveDSN(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		m := metrics.New(reg)
		exec, err := sqlexec.Open(ctx, cfg.DB, rawDSN,
			sqlexec.WithLogger(logger),
			sqlexec.WithObserver(m),
		)
		if err != nil {
			return errors.Wrap(err, "open backend")
		}
		defer exec.Close()

		logger.Info("backend configured", logger.Args(
			"dsn", logging.Mask(rawDSN),
			"source", source,
			"dialect", exec.Dialect().Name,
			"pool", cfg.DB.Pool,
		))

		srv := server.New(cfg.Listen, exec,
			server.WithLogger(logger),
			server.WithPinger(exec),
			server.WithMetrics(reg, m),
		)
		if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f := serveCmd.Flags()
	f.String("addr", "", "websocket listen address (default 127.0.0.1:8888)")
	f.String("path", "", "websocket path (default /)")
	f.String("health-addr", "", "gRPC health listen address (default 127.0.0.1:8889)")
	f.String("driver", "", "backend driver: auto, pgx, postgres or mysql")
	f.Bool("pool", false, "keep a connection pool instead of one connection per request")
	f.Duration("query-timeout", 0, "per-request backend timeout, 0 disables (default 30s)")
	f.Int("sample-limit", 0, "default Sample row limit (default 24)")
	f.Bool("iam", false, "authenticate to RDS with IAM tokens")
	f.String("iam-region", "", "AWS region for IAM tokens")

	for key, flag := range map[string]string{
		"listen.addr":        "addr",
		"listen.path":        "path",
		"listen.health_addr": "health-addr",
		"db.driver":          "driver",
		"db.pool":            "pool",
		"db.query_timeout":   "query-timeout",
		"db.sample_limit":    "sample-limit",
		"db.iam.enabled":     "iam",
		"db.iam.region":      "iam-region",
	} {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}
}
