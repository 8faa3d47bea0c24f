package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// ExtractOptions holds the parsed flags for "extract".
type ExtractOptions struct {
	Dir    string
	Output string
}

// ExtractRunFunc is the function signature for the extract command handler.
type ExtractRunFunc func(ctx context.Context, opts ExtractOptions) error

// NewExtractCmd creates the "extract" subcommand.
func NewExtractCmd(runFunc ExtractRunFunc) *cobra.Command {
	var opts ExtractOptions

	cmd := &cobra.Command{
		Use:   "extract [dir]",
		Short: "Write the exported API of a local Go module as a snapshot",
		Long: "Extract the exported API of the Go module rooted at dir (default: current " +
			"directory) and write it as a JSON or YAML snapshot for later comparison.",
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			opts.Dir = "."
			if len(args) == 1 {
				opts.Dir = args[0]
			}
			if opts.Dir == "" {
				return fmt.Errorf("module directory must not be empty")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunc(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Snapshot file (.json, .yaml); stdout as JSON when empty")

	return cmd
}
