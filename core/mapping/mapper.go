// Package mapping resolves configured namespace and type renames into
// candidate target names.
//
// Every lookup is a single hop: a mapped name is never looked up again, so
// the mapper terminates even if a cyclic configuration slipped past
// validation. Case sensitivity is decided once, at construction.
package mapping

import (
	"sort"
	"strings"
	"unicode"

	"github.com/emenda-labs/apicompat/core/apimodel"
	"github.com/emenda-labs/apicompat/core/config"
)

// Mapper answers rename questions for one configuration.
type Mapper struct {
	ignoreCase bool
	autoMap    bool

	namespaces map[string][]string // folded source namespace -> ordered candidates
	types      map[string]string   // folded source full name -> target full name

	// simpleRenames maps a folded simple type name to the simple name of its
	// target, only for simple names that appear in exactly one type mapping.
	simpleRenames map[string]string
}

// New builds a Mapper from a validated mapping configuration.
func New(cfg config.MappingConfig) *Mapper {
	m := &Mapper{
		ignoreCase:    cfg.IgnoreCase,
		autoMap:       cfg.AutoMapSameNameTypes,
		namespaces:    make(map[string][]string, len(cfg.NamespaceMappings)),
		types:         make(map[string]string, len(cfg.TypeMappings)),
		simpleRenames: make(map[string]string),
	}

	// Iterate in sorted order so that case-folded collisions resolve the
	// same way on every run.
	nsKeys := make([]string, 0, len(cfg.NamespaceMappings))
	for k := range cfg.NamespaceMappings {
		nsKeys = append(nsKeys, k)
	}
	sort.Strings(nsKeys)
	for _, source := range nsKeys {
		key := m.Key(source)
		if _, dup := m.namespaces[key]; dup {
			continue
		}
		m.namespaces[key] = append([]string(nil), cfg.NamespaceMappings[source]...)
	}

	typeKeys := make([]string, 0, len(cfg.TypeMappings))
	for k := range cfg.TypeMappings {
		typeKeys = append(typeKeys, k)
	}
	sort.Strings(typeKeys)
	simpleCount := make(map[string]int)
	for _, source := range typeKeys {
		key := m.Key(source)
		if _, dup := m.types[key]; dup {
			continue
		}
		target := cfg.TypeMappings[source]
		m.types[key] = target

		_, srcSimple := apimodel.SplitFullName(source)
		_, dstSimple := apimodel.SplitFullName(target)
		simpleKey := m.Key(srcSimple)
		simpleCount[simpleKey]++
		m.simpleRenames[simpleKey] = dstSimple
	}
	for k, n := range simpleCount {
		if n > 1 {
			delete(m.simpleRenames, k)
		}
	}
	return m
}

// IgnoreCase reports whether the mapper compares names case-insensitively.
func (m *Mapper) IgnoreCase() bool {
	return m.ignoreCase
}

// Key returns the lookup key for name under the configured case rule.
func (m *Mapper) Key(name string) string {
	if m.ignoreCase {
		return strings.ToLower(name)
	}
	return name
}

// Equal compares two names under the configured case rule.
func (m *Mapper) Equal(a, b string) bool {
	if m.ignoreCase {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// Less orders two names under the configured case rule, falling back to a
// byte-wise comparison so the order is total.
func (m *Mapper) Less(a, b string) bool {
	if m.ignoreCase {
		la, lb := strings.ToLower(a), strings.ToLower(b)
		if la != lb {
			return la < lb
		}
	}
	return a < b
}

// MapNamespace returns the target namespace candidates for source in
// configured order, or source itself when no mapping is configured.
func (m *Mapper) MapNamespace(source string) []string {
	if targets, ok := m.namespaces[m.Key(source)]; ok {
		return append([]string(nil), targets...)
	}
	return []string{source}
}

// HasNamespaceMapping reports whether source has configured candidates.
func (m *Mapper) HasNamespaceMapping(source string) bool {
	_, ok := m.namespaces[m.Key(source)]
	return ok
}

// MapTypeName returns the explicit mapping for a full type name, or the
// name unchanged.
func (m *Mapper) MapTypeName(source string) string {
	if target, ok := m.types[m.Key(source)]; ok {
		return target
	}
	return source
}

// HasTypeMapping reports whether source has an explicit type mapping.
func (m *Mapper) HasTypeMapping(source string) bool {
	_, ok := m.types[m.Key(source)]
	return ok
}

// MapFullTypeName returns candidate target full names for source. An
// explicit type mapping is the sole candidate; otherwise each namespace
// candidate is joined with the unchanged simple name.
func (m *Mapper) MapFullTypeName(source string) []string {
	if target, ok := m.types[m.Key(source)]; ok {
		return []string{target}
	}
	ns, name := apimodel.SplitFullName(source)
	candidates := m.MapNamespace(ns)
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = apimodel.JoinFullName(c, name)
	}
	return out
}

// ShouldAutoMap reports whether a type without an explicit mapping may be
// matched by simple name alone.
func (m *Mapper) ShouldAutoMap(typeName string) bool {
	return m.autoMap && !m.HasTypeMapping(typeName)
}

// RewriteSignature substitutes configured renames into a baseline
// signature so it can be compared with a target signature.
//
// The signature is split into name tokens (runs of letters, digits, '_',
// '$', '`', '/' and inner dots); everything else is copied through. Each
// token is rewritten at most once, in this order:
//
//  1. an explicit type mapping for the whole token;
//  2. an explicit type mapping for the longest prefix of the token ending
//     before a '.' or '`', keeping the remainder, so "Old.Widget.Render"
//     and "Old.Widget`1" follow a mapping of "Old.Widget";
//  3. a namespace mapping for the longest dotted prefix of the token,
//     keeping the remainder and choosing the first candidate for which
//     isTarget reports a known target type, or the first candidate when
//     none is known;
//  4. for an unqualified token, the target simple name of the single type
//     mapping whose source has that simple name.
//
// Prefixes are looked up under the configured case rule. Generic
// arguments, arrays and pointers need no special handling: their element
// names are ordinary tokens. isTarget may be nil.
func (m *Mapper) RewriteSignature(sig string, isTarget func(fullName string) bool) string {
	if sig == "" || (len(m.types) == 0 && len(m.namespaces) == 0) {
		return sig
	}

	return ReplaceTokens(sig, func(token string) string {
		return m.rewriteToken(token, isTarget)
	})
}

func (m *Mapper) rewriteToken(token string, isTarget func(string) bool) string {
	if target, ok := m.types[m.Key(token)]; ok {
		return target
	}

	for _, cut := range prefixCuts(token, ".`") {
		if target, ok := m.types[m.Key(token[:cut])]; ok {
			return target + token[cut:]
		}
	}

	for _, cut := range prefixCuts(token, ".") {
		candidates, ok := m.namespaces[m.Key(token[:cut])]
		if !ok || len(candidates) == 0 {
			continue
		}
		rest := token[cut+1:]
		return apimodel.JoinFullName(pickCandidate(candidates, rest, isTarget), rest)
	}

	if strings.Contains(token, ".") {
		return token
	}
	if target, ok := m.simpleRenames[m.Key(token)]; ok {
		return target
	}
	return token
}

// prefixCuts returns the indexes of every separator in token, longest
// prefix first.
func prefixCuts(token, seps string) []int {
	var cuts []int
	for i := len(token) - 1; i > 0; i-- {
		if strings.IndexByte(seps, token[i]) >= 0 {
			cuts = append(cuts, i)
		}
	}
	return cuts
}

// pickCandidate returns the first namespace candidate under which rest, or
// a dotted prefix of rest, names a known target type.
func pickCandidate(candidates []string, rest string, isTarget func(string) bool) string {
	if isTarget != nil {
		for _, c := range candidates {
			name := rest
			for {
				if isTarget(apimodel.JoinFullName(c, name)) {
					return c
				}
				idx := strings.LastIndexByte(name, '.')
				if idx < 0 {
					break
				}
				name = name[:idx]
			}
		}
	}
	return candidates[0]
}

// ReplaceTokens calls fn for every name token in s and substitutes its
// result, copying all other text through unchanged.
func ReplaceTokens(s string, fn func(token string) string) string {
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); {
		if !isTokenStart(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && isTokenRune(runes[j]) {
			j++
		}
		// Trailing dots belong to the surrounding text.
		end := j
		for end > i && runes[end-1] == '.' {
			end--
		}
		b.WriteString(fn(string(runes[i:end])))
		b.WriteString(string(runes[end:j]))
		i = j
	}
	return b.String()
}

func isTokenStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isTokenRune(r rune) bool {
	return isTokenStart(r) || unicode.IsDigit(r) || r == '.' || r == '`' || r == '/'
}
