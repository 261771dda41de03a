package main

import (
	"context"
	"fmt"

	"github.com/lychee-technology/roster"
	"github.com/lychee-technology/roster/factory"
	"github.com/lychee-technology/roster/internal"
	"github.com/spf13/cobra"
)

// tableStore is a key-value store backed by a table that may not exist yet.
type tableStore interface {
	EnsureTable(ctx context.Context) error
}

func newInitDBCmd(opts *rootOptions) *cobra.Command {
	var table string

	cmd := &cobra.Command{
		Use:          "init-db",
		Short:        "Create the key-value table for the postgres or sql backend",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadKeyValueConfig()
			if err != nil {
				return err
			}
			if table != "" {
				cfg.Storage.Postgres.Table = table
				cfg.Storage.SQL.Table = table
			}
			return initDatabase(cmd, cfg.Storage)
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "key-value table name (overrides the configured table)")
	return cmd
}

func initDatabase(cmd *cobra.Command, cfg roster.StorageConfig) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		store   tableStore
		table   string
		closeFn func()
	)
	switch cfg.Backend {
	case roster.KVBackendPostgres:
		pool, err := factory.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("create connection pool: %w", err)
		}
		store, table, closeFn = internal.NewPostgresKVStore(pool, cfg.Postgres.Table), cfg.Postgres.Table, pool.Close
	case roster.KVBackendSQL:
		sqlStore, err := internal.OpenSQLKVStore(cfg.SQL.Driver, cfg.SQL.DSN, cfg.SQL.Table)
		if err != nil {
			return err
		}
		store, table, closeFn = sqlStore, cfg.SQL.Table, func() { _ = sqlStore.Close() }
	default:
		return fmt.Errorf("init-db requires the postgres or sql backend, got %q", cfg.Backend)
	}
	defer closeFn()

	if err := store.EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure key-value table: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created key-value table: %s\n", table)
	fmt.Fprintln(cmd.OutOrStdout(), "Database initialized successfully.")
	return nil
}
