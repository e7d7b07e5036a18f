// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

package main

import (
	"bufio"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chakany/noah/internal/config"
	"github.com/chakany/noah/internal/ingest"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest events from stdin",
		Long: "Read newline-delimited JSON events from stdin, embed them, and store them. " +
			"With --envelope, input lines are relay-plugin envelopes and each well-formed " +
			"line is acknowledged on stdout before storage.",
		RunE: runIngest,
	}

	cmd.Flags().Bool("envelope", false, "read relay-plugin envelopes instead of bare events")

	return cmd
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}
	if err := config.ErrInvalid(cfg.ValidateIngestion()); err != nil {
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

	mode := ingest.ModeDirect
	if envelope, _ := cmd.Flags().GetBool("envelope"); envelope {
		mode = ingest.ModeEnvelope
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	pipeline := ingest.NewPipeline(app.Store, app.Embedder, mode, out, slog.Default())
	return pipeline.Run(cmd.Context(), cmd.InOrStdin())
}
