// Command storagedemo drives the oml-storage-go library's backends from the
// command line: the library's own lock-contention scenario, plus
// list/scan/force-unlock for manual exploration. Grounded on the teacher's
// cmd/dittofsctl entrypoint (a bare Cobra root command with no custom flag
// parsing of its own).
package main

import (
	"fmt"
	"os"

	"github.com/andreasom/oml-storage-go/cmd/storagedemo/commands"
)

func main() {
	if err := commands.Root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
