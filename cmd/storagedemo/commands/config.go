package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/andreasom/oml-storage-go/pkg/config"
)

// newConfigCommand groups config-related subcommands, grounded on the
// teacher's cmd/dfs/commands/config package.
func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(newConfigSchemaCommand())
	return cmd
}

// newConfigSchemaCommand reflects pkg/config.Config into a JSON Schema
// document, grounded on the teacher's cmd/dfs/commands/config/schema.go
// (same jsonschema.Reflector options: no additional properties, inline
// definitions instead of $ref).
func newConfigSchemaCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Generate a JSON schema for the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			reflector := jsonschema.Reflector{
				AllowAdditionalProperties: false,
				DoNotReference:            true,
			}

			schema := reflector.Reflect(&config.Config{})
			schema.Version = "https://json-schema.org/draft/2020-12/schema"
			schema.Title = "storagedemo Configuration"
			schema.Description = "Configuration schema for the oml-storage-go demo harness"

			schemaJSON, err := json.MarshalIndent(schema, "", "  ")
			if err != nil {
				return fmt.Errorf("generate schema: %w", err)
			}

			if output != "" {
				if err := os.WriteFile(output, schemaJSON, 0o644); err != nil {
					return fmt.Errorf("write schema file: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "JSON schema written to %s\n", output)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(schemaJSON))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}
