// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chakany/noah/internal/config"
	noaherr "github.com/chakany/noah/pkg/errors"
)

func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the noah daemon",
		Long:  "Load configuration, open the event store, and serve the search API until interrupted.",
		RunE:  runDaemon,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	_ = viper.BindPFlag("listen", cmd.Flags().Lookup("listen"))

	return cmd
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}
	if err := config.ErrInvalid(cfg.Validate()); err != nil {
		return err
	}

	app, err := WireApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("closing event store", "error", err)
		}
	}()

	srv, err := WireServer(cfg, app)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("daemon starting",
		"listen", cfg.Listen,
		"provider", app.Embedder.Name(),
		"database", cfg.DatabasePath(),
	)

	if err := srv.Start(ctx); err != nil {
		return noaherr.Wrap(err, noaherr.CodeServerStartFailure, "running server")
	}

	slog.Info("daemon stopped")
	return nil
}
