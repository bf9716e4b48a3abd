package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/dogstore/config"
	"github.com/input-output-hk/dogstore/provision"
)

// ProvisionOptions holds flags for the provision command.
type ProvisionOptions struct {
	*RootOptions
	SkipScaling bool
	MaxWait     time.Duration
}

// NewProvisionCommand creates the provision command.
func NewProvisionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProvisionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the table and its write auto-scaling",
		Long: `Create the DynamoDB table if it does not exist, then register
write-capacity auto-scaling between capacity.min_write and
capacity.max_write, tracking capacity.target_utilization.

Running it again is safe.

Example:
  dogstore provision --table DogTable --region eu-west-1
  dogstore provision --endpoint http://localhost:4566 --skip-scaling`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.SkipScaling, "skip-scaling", false, "only create the table")
	cmd.Flags().DurationVar(&opts.MaxWait, "wait", 5*time.Minute, "maximum time to wait for the table to become active")

	return cmd
}

func runProvision(cmd *cobra.Command, opts *ProvisionOptions) error {
	cfg := opts.Config
	if cfg.Store.Backend != config.BackendDynamoDB {
		return WrapExitError(ExitCommandError,
			fmt.Sprintf("provision requires the %s backend, got %s", config.BackendDynamoDB, cfg.Store.Backend), nil)
	}

	logger := cfg.Log.NewLogger(cmd.ErrOrStderr())
	ctx := cmd.Context()

	awsCfg, err := loadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to configure AWS", err)
	}

	provOpts := []provision.Option{
		provision.WithLogger(logger),
		provision.WithWait(opts.MaxWait, 2*time.Second),
	}

	var p *provision.Provisioner
	if opts.SkipScaling {
		p, err = provision.New(newTableAdmin(awsCfg), nil, cfg.Provision(), provOpts...)
	} else {
		p, err = provision.NewFromConfig(awsCfg, cfg.Provision(), provOpts...)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid provisioning settings", err)
	}

	result, err := p.Ensure(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "provisioning failed", err)
	}

	out := cmd.OutOrStdout()
	if result.Created {
		fmt.Fprintf(out, "created table %s\n", cfg.Store.Table)
	} else {
		fmt.Fprintf(out, "table %s already exists\n", cfg.Store.Table)
	}
	if result.PolicyARN != "" {
		fmt.Fprintf(out, "write scaling %d-%d at %.0f%% utilization (%s)\n",
			cfg.Capacity.MinWrite, cfg.Capacity.MaxWrite, cfg.Capacity.TargetUtilization, result.PolicyARN)
	}
	return nil
}
