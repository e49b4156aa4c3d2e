package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/itemboard/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference items service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Cfg
			repo, err := server.OpenRepository(cfg.Storage, cfg.DBPath, cfg.JSONPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.New(repo, server.Options{Addr: cfg.Addr, CORSOrigins: cfg.CORSOrigins}).ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&app.Cfg.Addr, "addr", app.Cfg.Addr, "Listen address (env ITEMS_ADDR)")
	cmd.Flags().StringVar(&app.Cfg.Storage, "storage", app.Cfg.Storage, "Storage backend: sqlite|json (env ITEMS_STORAGE)")
	cmd.Flags().StringVar(&app.Cfg.DBPath, "db", app.Cfg.DBPath, "SQLite database path (env ITEMS_DB_PATH)")
	cmd.Flags().StringVar(&app.Cfg.JSONPath, "json", app.Cfg.JSONPath, "JSON file path (env ITEMS_JSON_PATH)")
	return cmd
}
