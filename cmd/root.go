package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kilianp07/fieldsched/app"
	"github.com/kilianp07/fieldsched/config"
	"github.com/kilianp07/fieldsched/core/store"
	"github.com/kilianp07/fieldsched/infra/logger"
)

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:               "fieldsched",
	Short:             "Field-service technician scheduling",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              serve,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// setup loads .env, the configuration and the logger options. A missing
// default config file falls back to defaults plus K_ overrides.
func setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	path := cfgPath
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		path = ""
	}
	c, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c
	logger.Configure(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return nil
}

// withService builds the service for one command and closes it afterwards.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *app.Service) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	svc.Start(ctx)
	return fn(ctx, svc)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// dayFlag parses --date, defaulting to today.
func dayFlag(s string) (time.Time, error) {
	if s == "" {
		return store.ParseDay(store.DayKey(time.Now()))
	}
	return store.ParseDay(s)
}
