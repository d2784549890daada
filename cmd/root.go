package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hurou927/db-dump/internal/config"
)

var (
	cfgPath string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "db-dump",
	Short: "Dump typed object graphs into relational tables",
	Long: `db-dump materializes object graphs into flat tables, writes them into shadow
tables through the backend's bulk loader and swaps them in atomically once every
batch has been written. Supported backends are PostgreSQL and SQLite.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		var err error
		if cfgPath == "" {
			cfg, err = config.Default()
		} else {
			cfg, err = config.Load(cfgPath)
		}
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (defaults to a local SQLite database)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "show detailed progress")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
