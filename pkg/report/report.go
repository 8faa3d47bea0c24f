// Package report renders comparison results for people and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/emenda-labs/apicompat/core/changespec"
)

// Format names an output format.
type Format string

const (
	FormatConsole  Format = "console"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatConsole, FormatJSON, FormatYAML, FormatMarkdown}
}

// ParseFormat resolves a user-supplied format name. "md" and "yml" are
// accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "console", "text":
		return FormatConsole, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown report format %q (want one of console, json, yaml, markdown)", s)
}

// Write renders one result.
func Write(w io.Writer, r changespec.ComparisonResult, format Format) error {
	return WriteAll(w, []changespec.ComparisonResult{r}, format)
}

// WriteAll renders several results in order. JSON and YAML emit a single
// document: the result itself when there is one, a list otherwise.
func WriteAll(w io.Writer, results []changespec.ComparisonResult, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(document(results))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(document(results)); err != nil {
			return err
		}
		return enc.Close()
	case FormatMarkdown:
		for i, r := range results {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if err := writeMarkdown(w, r); err != nil {
				return err
			}
		}
		return nil
	case FormatConsole, "":
		c := newConsole(w)
		for i, r := range results {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if err := c.write(r); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown report format %q", format)
}

func document(results []changespec.ComparisonResult) any {
	if len(results) == 1 {
		return results[0]
	}
	return results
}

// title names the compared pair, e.g. "v1.json -> v2.json".
func title(r changespec.ComparisonResult) string {
	switch {
	case r.Baseline != "" && r.Target != "":
		return r.Baseline + " -> " + r.Target
	case r.Baseline != "":
		return r.Baseline
	case r.Target != "":
		return r.Target
	}
	return "API comparison"
}

type section struct {
	name  string
	diffs []changespec.Difference
}

func sections(r changespec.ComparisonResult) []section {
	return []section{
		{"Removals", r.Removals},
		{"Modifications", r.Modifications},
		{"Moves", r.Moves},
		{"Additions", r.Additions},
		{"Excluded", r.Excluded},
	}
}
