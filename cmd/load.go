package main

import (
	"context"
	"demography/internal/config"
	"demography/internal/summary"
	"demography/pkg/domain"
	"demography/pkg/logger"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// loadCommand constructs the 'load' subcommand. It runs the pipeline once,
// logs the shape of every table and optionally prints a digest of one year.
func loadCommand(cfg *config.Config) *cobra.Command {
	var (
		year     int
		logScale bool
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Loads every indicator export and aligns it on the common country universe",
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
			logShapes(ctx, snapshot)

			if !cmd.Flags().Changed("year") {
				return nil
			}
			digests, err := summary.Digest(snapshot, year, summary.DigestOptions{Log: logScale})
			if err != nil {
				return fmt.Errorf("could not summarize %d: %w", year, err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), summary.Render(digests))

			return err
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Print a summary of every indicator for this year")
	cmd.Flags().BoolVar(&logScale, "log", false, "Summarize natural logarithms of the values")

	return cmd
}

func logShapes(ctx context.Context, snapshot *domain.Snapshot) {
	logger.Info(ctx, "country universe",
		zap.String("mode", string(snapshot.Mode)),
		zap.Int("countries", len(snapshot.Codes)))

	for _, indicator := range domain.Indicators() {
		fields := []zap.Field{zap.String("indicator", indicator.String())}
		if t, err := snapshot.Table(indicator); err == nil {
			years := t.Years()
			fields = append(fields,
				zap.Int("rows", t.Len()),
				zap.Int("firstYear", years.First),
				zap.Int("lastYear", years.Last))
		}
		if c, err := snapshot.Continent(indicator); err == nil {
			fields = append(fields, zap.Strings("continents", c.Keys()))
		}
		logger.Info(ctx, "indicator table", fields...)
	}
}
