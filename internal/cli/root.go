// Package cli implements the dogstore command line.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/input-output-hk/dogstore/config"
)

// RootOptions holds state shared by all commands.
type RootOptions struct {
	ConfigFile string

	// Viper holds flag bindings and, after PersistentPreRunE, the loaded
	// configuration sources.
	Viper *viper.Viper

	// Config is populated by PersistentPreRunE.
	Config config.Config
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{Viper: viper.New()}

	cmd := &cobra.Command{
		Use:     "dogstore",
		Short:   "Dog record service",
		Long:    "dogstore validates dog records, assigns them an identifier and stores them in DynamoDB.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			if opts.ConfigFile != "" {
				opts.Viper.SetConfigFile(opts.ConfigFile)
			}
			cfg, err := config.Load(opts.Viper)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load configuration", err)
			}
			opts.Config = cfg
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "",
		"config file (default: ./dogstore.yaml or /etc/dogstore/dogstore.yaml)")
	cmd.PersistentFlags().String("table", "", "DynamoDB table name")
	cmd.PersistentFlags().String("region", "", "AWS region")
	cmd.PersistentFlags().String("endpoint", "", "AWS endpoint override, e.g. http://localhost:4566")
	cmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")

	_ = opts.Viper.BindPFlag("store.table", cmd.PersistentFlags().Lookup("table"))
	_ = opts.Viper.BindPFlag("aws.region", cmd.PersistentFlags().Lookup("region"))
	_ = opts.Viper.BindPFlag("aws.endpoint", cmd.PersistentFlags().Lookup("endpoint"))
	_ = opts.Viper.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewProvisionCommand(opts))
	cmd.AddCommand(NewVersionCommand(version))

	return cmd
}
