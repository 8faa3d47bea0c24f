package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emenda-labs/apicompat/core/wildcard"
)

// Validate checks cfg and returns every problem found, in a stable order.
// A nil result means the configuration is safe to hand to the comparer.
func Validate(cfg Configuration) []error {
	var errs []error

	errs = append(errs, validateNamespaceMappings(cfg.Mappings)...)
	errs = append(errs, validateTypeMappings(cfg.Mappings)...)
	errs = append(errs, validateExclusions(cfg.Exclusions, cfg.Mappings.IgnoreCase)...)

	return errs
}

func validateNamespaceMappings(m MappingConfig) []error {
	var errs []error
	fold := foldFunc(m.IgnoreCase)

	graph := make(map[string][]string, len(m.NamespaceMappings))
	for _, source := range sortedKeys(m.NamespaceMappings) {
		targets := m.NamespaceMappings[source]
		ref := fmt.Sprintf("mappings.namespaceMappings[%q]", source)
		if strings.TrimSpace(source) == "" {
			errs = append(errs, fmt.Errorf("mappings.namespaceMappings has an empty source namespace"))
			continue
		}
		if len(targets) == 0 {
			errs = append(errs, fmt.Errorf("%s must list at least one target namespace", ref))
			continue
		}
		seen := make(map[string]bool, len(targets))
		for i, target := range targets {
			if strings.TrimSpace(target) == "" {
				errs = append(errs, fmt.Errorf("%s[%d] must not be empty", ref, i))
				continue
			}
			if fold(target) == fold(source) {
				errs = append(errs, fmt.Errorf("%s[%d] maps namespace %q to itself", ref, i, source))
				continue
			}
			if seen[fold(target)] {
				errs = append(errs, fmt.Errorf("%s[%d] duplicates target namespace %q", ref, i, target))
				continue
			}
			seen[fold(target)] = true
			graph[fold(source)] = append(graph[fold(source)], fold(target))
		}
	}

	for _, cycle := range findCycles(graph) {
		errs = append(errs, fmt.Errorf("mappings.namespaceMappings contains a cycle: %s", strings.Join(cycle, " -> ")))
	}
	return errs
}

func validateTypeMappings(m MappingConfig) []error {
	var errs []error
	fold := foldFunc(m.IgnoreCase)

	graph := make(map[string][]string, len(m.TypeMappings))
	for _, source := range sortedKeys(m.TypeMappings) {
		target := m.TypeMappings[source]
		ref := fmt.Sprintf("mappings.typeMappings[%q]", source)
		if strings.TrimSpace(source) == "" {
			errs = append(errs, fmt.Errorf("mappings.typeMappings has an empty source type"))
			continue
		}
		if strings.TrimSpace(target) == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", ref))
			continue
		}
		if fold(source) == fold(target) {
			errs = append(errs, fmt.Errorf("%s maps type %q to itself", ref, source))
			continue
		}
		graph[fold(source)] = append(graph[fold(source)], fold(target))
	}

	for _, cycle := range findCycles(graph) {
		errs = append(errs, fmt.Errorf("mappings.typeMappings contains a cycle: %s", strings.Join(cycle, " -> ")))
	}
	return errs
}

func validateExclusions(e ExclusionConfig, ignoreCase bool) []error {
	var errs []error

	checkNames := func(field string, names []string) {
		for i, name := range names {
			if strings.TrimSpace(name) == "" {
				errs = append(errs, fmt.Errorf("exclusions.%s[%d] must not be empty", field, i))
			}
		}
	}
	checkPatterns := func(field string, patterns []string) {
		for i, raw := range patterns {
			if strings.TrimSpace(raw) == "" {
				errs = append(errs, fmt.Errorf("exclusions.%s[%d] must not be empty", field, i))
				continue
			}
			if _, err := wildcard.Compile(raw, ignoreCase); err != nil {
				errs = append(errs, fmt.Errorf("exclusions.%s[%d] is not a valid pattern: %w", field, i, err))
			}
		}
	}

	checkNames("excludedTypes", e.ExcludedTypes)
	checkNames("excludedMembers", e.ExcludedMembers)
	checkPatterns("excludedTypePatterns", e.ExcludedTypePatterns)
	checkPatterns("excludedMemberPatterns", e.ExcludedMemberPatterns)
	return errs
}

// findCycles returns each distinct cycle in graph once, rotated so that its
// smallest node comes first, in sorted order.
func findCycles(graph map[string][]string) [][]string {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(graph))
	var stack []string
	seen := make(map[string]bool)
	var cycles [][]string

	var visit func(node string)
	visit = func(node string) {
		state[node] = visiting
		stack = append(stack, node)
		for _, next := range graph[node] {
			switch state[next] {
			case unvisited:
				visit(next)
			case visiting:
				start := len(stack) - 1
				for stack[start] != next {
					start--
				}
				cycle := canonicalCycle(stack[start:])
				key := strings.Join(cycle, "\x00")
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, append(cycle, cycle[0]))
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[node] = done
	}

	for _, node := range sortedKeys(graph) {
		if state[node] == unvisited {
			visit(node)
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		return strings.Join(cycles[i], "\x00") < strings.Join(cycles[j], "\x00")
	})
	return cycles
}

func canonicalCycle(nodes []string) []string {
	minIdx := 0
	for i, n := range nodes {
		if n < nodes[minIdx] {
			minIdx = i
		}
	}
	out := make([]string, 0, len(nodes)+1)
	out = append(out, nodes[minIdx:]...)
	out = append(out, nodes[:minIdx]...)
	return out
}

func foldFunc(ignoreCase bool) func(string) string {
	if ignoreCase {
		return strings.ToLower
	}
	return func(s string) string { return s }
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
