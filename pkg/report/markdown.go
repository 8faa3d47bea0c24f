package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/emenda-labs/apicompat/core/changespec"
)

func writeMarkdown(w io.Writer, r changespec.ComparisonResult) error {
	var b strings.Builder
	s := r.Summary

	fmt.Fprintf(&b, "# %s\n\n", title(r))
	if s.HasBreakingChanges {
		fmt.Fprintf(&b, "**%d breaking change(s)**\n\n", s.BreakingChangesCount)
	} else {
		b.WriteString("No breaking changes.\n\n")
	}

	b.WriteString("| | Count |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Added | %d |\n| Removed | %d |\n| Modified | %d |\n| Moved | %d |\n| Excluded | %d |\n",
		s.Additions, s.Removals, s.Modifications, s.Moves, s.Excluded)

	for _, sec := range sections(r) {
		if len(sec.diffs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", sec.name)
		b.WriteString("| Severity | Breaking | Kind | Element | Description |\n|---|---|---|---|---|\n")
		for _, d := range sec.diffs {
			breaking := ""
			if d.IsBreaking {
				breaking = "yes"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | `%s` | %s |\n",
				d.Severity, breaking, d.ElementKind, d.FullName, escapeCell(d.Description))
		}

		for _, d := range sec.diffs {
			if hunk := signatureDiff(d); hunk != "" {
				fmt.Fprintf(&b, "\n<details><summary><code>%s</code></summary>\n\n```diff\n%s```\n\n</details>\n", d.FullName, hunk)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// signatureDiff renders a unified hunk between the old and new signature,
// or "" when there is nothing to show.
func signatureDiff(d changespec.Difference) string {
	if d.OldSignature == "" || d.NewSignature == "" || d.OldSignature == d.NewSignature {
		return ""
	}
	u := difflib.UnifiedDiff{
		A:        difflib.SplitLines(d.OldSignature),
		B:        difflib.SplitLines(d.NewSignature),
		FromFile: "baseline",
		ToFile:   "target",
		Context:  1,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return ""
	}
	return s
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
