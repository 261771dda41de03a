package main

import (
	"fmt"
	"os"

	"github.com/lychee-technology/roster"
	"github.com/lychee-technology/roster/factory"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	configPath string
	lookupEnv  func(string) (string, bool)
}

// NewRootCmd creates the roster-tools command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(os.LookupEnv)
}

func newRootCmd(lookupEnv func(string) (string, bool)) *cobra.Command {
	opts := &rootOptions{lookupEnv: lookupEnv}

	root := &cobra.Command{
		Use:           "roster-tools",
		Short:         "roster-tools - maintenance commands for the member directory store",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML or JSON config file (defaults, then file, then environment)")

	root.AddCommand(newInitDBCmd(opts))
	root.AddCommand(newSeedCmd(opts))
	root.AddCommand(newValidateCmd(opts))
	root.AddCommand(newExportSchemaCmd(opts))
	return root
}

// loadConfig layers the config file and the environment on top of the defaults.
func (o *rootOptions) loadConfig() (*roster.Config, error) {
	cfg := roster.DefaultConfig()
	if o.configPath != "" {
		loaded, err := roster.LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.lookupEnv != nil {
		cfg.ApplyEnv(o.lookupEnv)
	}
	return cfg, nil
}

// loadKeyValueConfig is loadConfig for commands that only make sense on durable storage.
func (o *rootOptions) loadKeyValueConfig() (*roster.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	cfg.Storage.Mode = roster.StorageModeKeyValue
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	cfg := roster.DefaultConfig()
	cfg.ApplyEnv(os.LookupEnv)
	logger, err := factory.NewLogger(cfg.Logging)
	if err != nil {
		panic(fmt.Errorf("failed to set up logger: %w", err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}
