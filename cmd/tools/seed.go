package main

import (
	"fmt"

	"github.com/lychee-technology/roster"
	"github.com/lychee-technology/roster/factory"
	"github.com/lychee-technology/roster/internal"
	"github.com/spf13/cobra"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Write the default schema and sample members to the configured store",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadKeyValueConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, closeFn, err := factory.NewKeyValueStore(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer closeFn()

			adapter := internal.NewKVAdapter(store, internal.WithKeys(cfg.Storage.RecordsKey, cfg.Storage.FieldsKey))
			out := cmd.OutOrStdout()

			for _, item := range []struct {
				key   string
				count int
				save  func() bool
			}{
				{cfg.Storage.FieldsKey, len(roster.DefaultFields()), func() bool {
					return adapter.SaveFields(ctx, roster.DefaultFields())
				}},
				{cfg.Storage.RecordsKey, len(roster.InitialRecords()), func() bool {
					return adapter.SaveRecords(ctx, roster.InitialRecords())
				}},
			} {
				_, exists, err := store.Get(ctx, item.key)
				if err != nil {
					return fmt.Errorf("check %s: %w", item.key, err)
				}
				if exists && !force {
					fmt.Fprintf(out, "Skipped %s: already present (use --force to overwrite)\n", item.key)
					continue
				}
				if !item.save() {
					return fmt.Errorf("failed to write %s", item.key)
				}
				fmt.Fprintf(out, "Seeded %s (%d entries)\n", item.key, item.count)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite collections that are already stored")
	return cmd
}
