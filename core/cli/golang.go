package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// GoOptions holds the parsed flags for "go".
type GoOptions struct {
	ReportOptions
	Module string
	From   string
	To     string
	// Repo is a repository whose go.mod pins the baseline version; used
	// when From is empty.
	Repo string
}

// GoRunFunc is the function signature for the go command handler.
type GoRunFunc func(ctx context.Context, opts GoOptions) error

// NewGoCmd creates the "go" subcommand.
func NewGoCmd(runFunc GoRunFunc) *cobra.Command {
	var opts GoOptions

	cmd := &cobra.Command{
		Use:   "go",
		Short: "Compare two versions of a Go module",
		Long: "Download two versions of a Go module from the module proxy, extract their " +
			"exported API and report breaking changes. The baseline is --from, or the version " +
			"the go.mod in --repo requires.",
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.resolve(); err != nil {
				return err
			}
			return validateGoFlags(opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunc(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Module, "module", "", "Go module path (required)")
	cmd.Flags().StringVar(&opts.From, "from", "", "Baseline version")
	cmd.Flags().StringVar(&opts.To, "to", "", "Target version (required)")
	cmd.Flags().StringVar(&opts.Repo, "repo", "", "Repository whose go.mod pins the baseline version")
	opts.addFlags(cmd)

	cmd.MarkFlagRequired("module")
	cmd.MarkFlagRequired("to")

	return cmd
}

func validateGoFlags(opts GoOptions) error {
	if opts.Module == "" {
		return fmt.Errorf("--module is required")
	}
	if opts.To == "" {
		return fmt.Errorf("--to is required")
	}
	if !strings.HasPrefix(opts.To, "v") {
		return fmt.Errorf("--to version must start with 'v' (e.g. v2.3.0)")
	}

	switch {
	case opts.From != "" && opts.Repo != "":
		return fmt.Errorf("--from and --repo are mutually exclusive")
	case opts.From != "":
		if !strings.HasPrefix(opts.From, "v") {
			return fmt.Errorf("--from version must start with 'v' (e.g. v1.4.0)")
		}
		return nil
	case opts.Repo == "":
		return fmt.Errorf("one of --from or --repo is required")
	}

	info, err := os.Stat(opts.Repo)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("repo path does not exist: %s", opts.Repo)
		}
		return fmt.Errorf("cannot access repo path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("repo path is not a directory: %s", opts.Repo)
	}

	return nil
}
