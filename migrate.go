package main

import (
	"github.com/spf13/cobra"

	"notelink/config/database"
	"notelink/pkg/logger"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending Postgres migrations",
		Long: `Apply the embedded SQL migrations to DATABASE_URL.

serve applies them too when NOTE_STORE=postgres; this command is for
running them ahead of a deploy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			defer logger.Sync()

			db, err := database.Connect(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			logger.Sugar.Info("Migrations applied")
			return nil
		},
	}
}
