// Package cli defines the apicompat command tree. Commands parse and check
// their flags, then hand an options struct to a run function injected by
// the wiring layer (cmd/apicompat).
package cli

import (
	"github.com/spf13/cobra"
)

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	Verbose   int
	Quiet     bool
	LogFormat string
}

// NewRootCmd creates the top-level apicompat command.
func NewRootCmd(version string, global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apicompat",
		Short: "Public API compatibility checker",
		Long: "apicompat compares the public API surface of two versions of a component " +
			"and reports which differences break consumers.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Version = version

	cmd.PersistentFlags().CountVarP(&global.Verbose, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	cmd.PersistentFlags().BoolVarP(&global.Quiet, "quiet", "q", false, "Suppress all log output")
	cmd.PersistentFlags().StringVar(&global.LogFormat, "log-format", "text", "Log format: text or json")

	return cmd
}

// NewConfigCmd creates the "config" parent command.
func NewConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Inspect comparison configuration files",
	}
}
