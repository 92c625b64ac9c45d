package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andreasom/oml-storage-go/internal/logger"
	"github.com/andreasom/oml-storage-go/pkg/config"
)

var configPath string

// Root is the storagedemo entry point. It mirrors the teacher's
// cmd/dittofsctl command-tree convention: a bare root command with one
// child command per top-level resource, here one per Storage backend.
var Root = &cobra.Command{
	Use:   "storagedemo",
	Short: "Exercise the pluggable keyed-item storage library from the command line",
	Long: `storagedemo drives the oml-storage-go library against any of its
backends (null, disk, dynamodb, postgres, sqlite), running the library's
own lock-contention scenario and exposing list/scan/force-unlock/wipe for
manual exploration.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
}

func init() {
	Root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: $XDG_CONFIG_HOME/oml-storage-go/config.yaml)")

	Root.AddCommand(newNullCommand())
	Root.AddCommand(newDiskCommand())
	Root.AddCommand(newDynamoDBCommand())
	Root.AddCommand(newPostgresCommand())
	Root.AddCommand(newSqliteCommand())
	Root.AddCommand(newConfigCommand())
}
