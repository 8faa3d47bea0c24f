package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/emenda-labs/apicompat/core/changespec"
)

// console renders through a lipgloss renderer bound to the writer, so
// colors are dropped when the writer is not a terminal.
type console struct {
	w        io.Writer
	title    lipgloss.Style
	heading  lipgloss.Style
	breaking lipgloss.Style
	ok       lipgloss.Style
	muted    lipgloss.Style
	severity map[changespec.Severity]lipgloss.Style
}

func newConsole(w io.Writer) *console {
	re := lipgloss.NewRenderer(w)
	return &console{
		w:        w,
		title:    re.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true),
		heading:  re.NewStyle().Bold(true).Underline(true),
		breaking: re.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true),
		ok:       re.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		muted:    re.NewStyle().Foreground(lipgloss.Color("#64748B")).Italic(true),
		severity: map[changespec.Severity]lipgloss.Style{
			changespec.SeverityCritical: re.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true),
			changespec.SeverityError:    re.NewStyle().Foreground(lipgloss.Color("#F87171")),
			changespec.SeverityWarning:  re.NewStyle().Foreground(lipgloss.Color("#FBBF24")),
			changespec.SeverityInfo:     re.NewStyle().Foreground(lipgloss.Color("#64748B")),
		},
	}
}

func (c *console) write(r changespec.ComparisonResult) error {
	var b strings.Builder

	b.WriteString(c.title.Render(title(r)) + "\n")
	s := r.Summary
	if s.HasBreakingChanges {
		b.WriteString(c.breaking.Render(fmt.Sprintf("%d breaking change(s)", s.BreakingChangesCount)) + "\n")
	} else {
		b.WriteString(c.ok.Render("no breaking changes") + "\n")
	}
	b.WriteString(c.muted.Render(fmt.Sprintf("%d change(s): %d added, %d removed, %d modified; %d moved, %d excluded",
		s.TotalChanges, s.Additions, s.Removals, s.Modifications, s.Moves, s.Excluded)) + "\n")

	for _, sec := range sections(r) {
		if len(sec.diffs) == 0 {
			continue
		}
		b.WriteString("\n" + c.heading.Render(sec.name) + "\n")
		for _, d := range sec.diffs {
			b.WriteString(c.line(d) + "\n")
		}
	}

	_, err := io.WriteString(c.w, b.String())
	return err
}

func (c *console) line(d changespec.Difference) string {
	sev := c.severity[d.Severity].Render(fmt.Sprintf("%-8s", d.Severity))
	marker := "  "
	if d.IsBreaking {
		marker = c.breaking.Render("! ")
	}
	out := fmt.Sprintf("  %s%s %s %s: %s", marker, sev, d.ElementKind, d.FullName, d.Description)
	if d.OldSignature != "" && d.NewSignature != "" && d.OldSignature != d.NewSignature {
		out += "\n" + c.muted.Render("      - "+d.OldSignature) +
			"\n" + c.muted.Render("      + "+d.NewSignature)
	}
	return out
}
