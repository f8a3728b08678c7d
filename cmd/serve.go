package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fieldsched/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and event consumers",
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, _ []string) error {
	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		return svc.Serve(ctx)
	})
}
