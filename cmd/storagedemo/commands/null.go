package commands

import (
	"github.com/spf13/cobra"

	"github.com/andreasom/oml-storage-go/storage/null"
	"github.com/andreasom/oml-storage-go/storageid"
)

func newNullCommand() *cobra.Command {
	return newBackendCommand("null", "Exercise the no-op null backend", func() (demoStorage, error) {
		return null.New[storageid.SequentialID, demoItem](
			newDemoItem,
			storageid.GenerateSequentialID,
			storageid.ParseSequentialID,
		), nil
	})
}
