// Package main provides the CLI entrypoint for the demography pipeline.
// It wires subcommands (load, export), loads configuration, and initializes logging.
package main

import (
	"context"
	"demography/internal/config"
	"demography/internal/pipeline"
	"demography/pkg/logger"
	"demography/pkg/metrics"
	"demography/pkg/serrors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// getPipeline creates the pipeline described by the configuration and returns it
// along with a cleanup function that writes the metrics textfile and releases
// the meter provider.
func getPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, func(), error) {
	res, err := pipeline.NewResolver(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts, err := pipeline.NewOptions(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("could not read data sources: %w", err)
	}

	recorder := metrics.Nop()
	if cfg.Metrics.TextfilePath != "" {
		recorder, err = metrics.New()
		if err != nil {
			return nil, nil, fmt.Errorf("could not create metrics recorder: %w", err)
		}
	}

	return pipeline.New(res, recorder, opts), func() {
		if cfg.Metrics.TextfilePath != "" {
			logger.Info(ctx, "writing metrics textfile...", zap.String("path", cfg.Metrics.TextfilePath))
			if err := recorder.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
				logger.Warn(ctx, "could not write metrics textfile", zap.Error(err))
			}
		}
		if err := recorder.Shutdown(ctx); err != nil {
			logger.Warn(ctx, "could not shut down metrics recorder", zap.Error(err))
		}
	}, nil
}

// newRootCommand builds the root command. The returned config is filled from
// the -c/--config flag before any subcommand runs.
func newRootCommand() (*cobra.Command, *config.Config) {
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:          "demography",
		Short:        "Aligns World Bank demographic indicators on a common set of countries",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}

			log.Println("loading config ...")
			loaded, err := config.Load(configPath)
			if err != nil {
				return serrors.Wrap(serrors.ErrBadRequest, err, "could not load config file %s", configPath)
			}
			*cfg = *loaded

			logger.Setup(cfg.Environment)

			return nil
		},
	}
	rootCmd.PersistentFlags().StringP("config", "c", "config.yml", "Config File Path")

	rootCmd.AddCommand(
		loadCommand(cfg),
		exportCommand(cfg),
	)

	return rootCmd, cfg
}

// main executes the CLI and exits with a status derived from the error kind.
func main() {
	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			logger.Sync(ctx)

			panic(p)
		}
	}()

	rootCmd, _ := newRootCommand()
	err := rootCmd.Execute()
	logger.Sync(ctx)
	if err != nil {
		os.Exit(serrors.ExitCode(err)) //nolint: gocritic
	}
}
