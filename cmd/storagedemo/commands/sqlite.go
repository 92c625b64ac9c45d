package commands

import (
	"github.com/spf13/cobra"

	"github.com/andreasom/oml-storage-go/pkg/config"
	"github.com/andreasom/oml-storage-go/pkg/metrics"
	sqlitestorage "github.com/andreasom/oml-storage-go/storage/sqlite"
	"github.com/andreasom/oml-storage-go/storageid"
)

func newSqliteCommand() *cobra.Command {
	return newBackendCommand("sqlite", "Exercise the single-file SQLite backend", func() (demoStorage, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}

		sqliteCfg := &sqlitestorage.Config{Path: cfg.Sqlite.Path}

		s, err := sqlitestorage.Open[storageid.SequentialID, demoItem](
			sqliteCfg,
			newDemoItem,
			deserializeDemoItem,
			storageid.GenerateSequentialID,
			storageid.ParseSequentialID,
		)
		if err != nil {
			return nil, err
		}
		s.SetMetrics(metrics.New(prometheusRegisterer()))
		return s, nil
	})
}
