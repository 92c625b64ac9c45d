package commands

import (
	"github.com/spf13/cobra"

	"github.com/andreasom/oml-storage-go/pkg/config"
	"github.com/andreasom/oml-storage-go/pkg/metrics"
	pgstorage "github.com/andreasom/oml-storage-go/storage/postgres"
	"github.com/andreasom/oml-storage-go/storageid"
)

func newPostgresCommand() *cobra.Command {
	return newBackendCommand("postgres", "Exercise the Postgres backend", func() (demoStorage, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}

		pgCfg := &pgstorage.Config{
			Host:           cfg.Postgres.Host,
			Port:           cfg.Postgres.Port,
			Database:       cfg.Postgres.Database,
			User:           cfg.Postgres.User,
			Password:       cfg.Postgres.Password,
			SSLMode:        cfg.Postgres.SSLMode,
			ConnectTimeout: cfg.Postgres.Timeout,
		}

		s, err := pgstorage.Open[storageid.SequentialID, demoItem](
			pgCfg,
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
