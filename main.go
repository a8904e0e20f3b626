package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"notelink/config"
	"notelink/pkg/logger"
)

var envFile string

func main() {
	rootCmd := &cobra.Command{
		Use:          "notelink",
		Short:        "NoteLink notes API",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to an optional env file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and initialises the global logger from it.
func loadConfig() config.Config {
	logger.Init("info")
	cfg := config.Load(envFile)
	logger.Init(cfg.LogLevel)
	return cfg
}
