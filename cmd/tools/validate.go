package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lychee-technology/roster"
	"github.com/lychee-technology/roster/factory"
	"github.com/spf13/cobra"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var (
		fieldsPath string
		jsonOutput bool
		strict     bool
	)

	cmd := &cobra.Command{
		Use:          "validate <records.json>",
		Short:        "Validate a JSON array of records against the schema",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read records: %w", err)
			}
			var records []roster.Record
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("parse records %s: %w", args[0], err)
			}

			fields, err := opts.resolveFields(cmd, fieldsPath)
			if err != nil {
				return err
			}

			if strict {
				raw := make([]json.RawMessage, 0, len(records))
				if err := json.Unmarshal(data, &raw); err != nil {
					return fmt.Errorf("parse records %s: %w", args[0], err)
				}
				for i, msg := range raw {
					if err := roster.ValidateRecordJSON(fields, msg); err != nil {
						return fmt.Errorf("record #%d: %w", i+1, err)
					}
				}
			}

			result := roster.ValidateRecords(records, fields)
			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			} else {
				for _, e := range result.Errors {
					fmt.Fprintf(out, "%s: %s\n", e.FieldID, e.Message)
				}
			}

			if !result.IsValid {
				return fmt.Errorf("%d validation error(s) in %d record(s)", len(result.Errors), len(records))
			}
			if !jsonOutput {
				fmt.Fprintf(out, "%d record(s) valid\n", len(records))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fieldsPath, "fields", "", "JSON file with field definitions (defaults to the configured store)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the validation result as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "also check each record against the exported JSON Schema")
	return cmd
}

// resolveFields reads field definitions from path, or from the configured store when path
// is empty.
func (o *rootOptions) resolveFields(cmd *cobra.Command, path string) ([]roster.FieldDefinition, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read fields: %w", err)
		}
		var fields []roster.FieldDefinition
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("parse fields %s: %w", path, err)
		}
		for _, f := range fields {
			if !f.Type.IsValid() {
				return nil, fmt.Errorf("field '%s': unsupported type %q", f.ID, f.Type)
			}
		}
		return fields, nil
	}

	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	dir, err := factory.NewDirectory(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	defer dir.Close()
	return dir.GetFields(cmd.Context()), nil
}
