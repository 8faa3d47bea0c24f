package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emenda-labs/apicompat/pkg/report"
)

// Pair is one baseline/target snapshot pair.
type Pair struct {
	Baseline string
	Target   string
}

// ReportOptions are the output flags shared by commands that produce a
// comparison report.
type ReportOptions struct {
	Config         string
	Format         report.Format
	Output         string
	FailOnBreaking bool

	formatName string
}

func (o *ReportOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Config, "config", "c", "", "Configuration file (JSON or YAML); defaults to ./apicompat.{json,yaml}")
	cmd.Flags().StringVarP(&o.formatName, "format", "f", "console", "Report format: console, json, yaml or markdown")
	cmd.Flags().StringVarP(&o.Output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&o.FailOnBreaking, "fail-on-breaking", false, "Exit with status 1 when breaking changes are found")
}

func (o *ReportOptions) resolve() error {
	f, err := report.ParseFormat(o.formatName)
	if err != nil {
		return err
	}
	o.Format = f
	return nil
}

// CompareOptions holds the parsed flags for "compare".
type CompareOptions struct {
	ReportOptions
	Pairs []Pair

	baseline string
	target   string
	pairs    []string
}

// CompareRunFunc is the function signature for the compare command handler.
// It is injected by the wiring layer (cmd/apicompat/main.go).
type CompareRunFunc func(ctx context.Context, opts CompareOptions) error

// NewCompareCmd creates the "compare" subcommand.
func NewCompareCmd(runFunc CompareRunFunc) *cobra.Command {
	var opts CompareOptions

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two API snapshots",
		Long: "Compare baseline and target API snapshots (JSON or YAML) and report additions, " +
			"removals, modifications and moves. Several pairs may be compared in one run with --pair.",
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return resolveCompareFlags(&opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunc(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.baseline, "baseline", "b", "", "Baseline snapshot file")
	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "Target snapshot file")
	cmd.Flags().StringArrayVar(&opts.pairs, "pair", nil, "Additional baseline:target pair (repeatable)")
	opts.addFlags(cmd)

	return cmd
}

func resolveCompareFlags(opts *CompareOptions) error {
	if err := opts.resolve(); err != nil {
		return err
	}

	opts.Pairs = opts.Pairs[:0]
	switch {
	case opts.baseline != "" && opts.target != "":
		opts.Pairs = append(opts.Pairs, Pair{Baseline: opts.baseline, Target: opts.target})
	case opts.baseline != "" || opts.target != "":
		return fmt.Errorf("--baseline and --target must be given together")
	}

	for _, raw := range opts.pairs {
		p, err := parsePair(raw)
		if err != nil {
			return err
		}
		opts.Pairs = append(opts.Pairs, p)
	}

	if len(opts.Pairs) == 0 {
		return fmt.Errorf("nothing to compare: give --baseline and --target, or --pair")
	}
	return nil
}

// parsePair splits "old.json:new.json". The last colon separates the two
// so that Windows drive letters in the baseline survive.
func parsePair(raw string) (Pair, error) {
	idx := strings.LastIndex(raw, ":")
	if idx <= 0 || idx == len(raw)-1 {
		return Pair{}, fmt.Errorf("invalid --pair %q: want baseline:target", raw)
	}
	return Pair{Baseline: raw[:idx], Target: raw[idx+1:]}, nil
}
