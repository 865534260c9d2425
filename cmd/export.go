package main

import (
	"context"
	"demography/internal/config"
	"demography/pkg/export"
	"demography/pkg/logger"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// exportCommand constructs the 'export' subcommand that runs the pipeline and
// writes the snapshot as JSON.
func exportCommand(cfg *config.Config) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Runs the pipeline and writes the aligned tables as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p, closePipeline, err := getPipeline(ctx, cfg)
			if err != nil {
				return err
			}
			defer closePipeline()

			snapshot, err := p.Run(ctx)
			if err != nil {
				return fmt.Errorf("could not load indicators: %w", err)
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("could not create %s: %w", out, err)
				}
				defer func() {
					if err := f.Close(); err != nil {
						logger.Warn(ctx, "could not close export file", zap.Error(err))
					}
				}()
				w = f
			}

			if err := export.Encode(w, snapshot); err != nil {
				return fmt.Errorf("could not export snapshot: %w", err)
			}
			logger.Info(ctx, "snapshot exported",
				zap.String("runID", snapshot.RunID),
				zap.Int("countries", len(snapshot.Codes)))

			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (stdout when empty)")

	return cmd
}
