package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// ConfigValidateOptions holds the parsed flags for "config validate".
type ConfigValidateOptions struct {
	Config string
}

// ConfigValidateRunFunc is the function signature for the config validate
// command handler.
type ConfigValidateRunFunc func(ctx context.Context, opts ConfigValidateOptions) error

// NewConfigValidateCmd creates the "config validate" subcommand.
func NewConfigValidateCmd(runFunc ConfigValidateRunFunc) *cobra.Command {
	var opts ConfigValidateOptions

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a configuration file and list every problem",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Config = args[0]
			}
			return runFunc(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "Configuration file; defaults to ./apicompat.{json,yaml}")

	return cmd
}
