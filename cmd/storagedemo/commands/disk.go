package commands

import (
	"github.com/spf13/cobra"

	"github.com/andreasom/oml-storage-go/pkg/config"
	"github.com/andreasom/oml-storage-go/pkg/metrics"
	"github.com/andreasom/oml-storage-go/storage/disk"
	"github.com/andreasom/oml-storage-go/storageid"
)

func newDiskCommand() *cobra.Command {
	return newBackendCommand("disk", "Exercise the filesystem backend", func() (demoStorage, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		s := disk.New[storageid.SequentialID, demoItem](
			cfg.Disk.BasePath, cfg.Disk.Extension,
			newDemoItem,
			deserializeDemoItem,
			storageid.GenerateSequentialID,
			storageid.ParseSequentialID,
		)
		s.SetMetrics(metrics.New(prometheusRegisterer()))
		return s, nil
	})
}
