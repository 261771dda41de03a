package main

import (
	"encoding/json"

	"github.com/lychee-technology/roster"
	"github.com/spf13/cobra"
)

func newExportSchemaCmd(opts *rootOptions) *cobra.Command {
	var fieldsPath string

	cmd := &cobra.Command{
		Use:          "export-schema",
		Short:        "Print the JSON Schema of a serialized record",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fields, err := opts.resolveFields(cmd, fieldsPath)
			if err != nil {
				return err
			}
			schema, err := roster.RecordJSONSchema(fields)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(schema)
		},
	}
	cmd.Flags().StringVar(&fieldsPath, "fields", "", "JSON file with field definitions (defaults to the configured store)")
	return cmd
}
