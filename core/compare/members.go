package compare

import (
	"strings"

	"github.com/emenda-labs/apicompat/core/apimodel"
	"github.com/emenda-labs/apicompat/core/diffcalc"
)

// memberKey identifies a baseline member in target terms. Callables carry
// their parameter type sequence so that overloads stay distinct.
func (s *compareState) memberKey(m apimodel.Element, baseline bool) string {
	var b strings.Builder
	b.WriteString(s.mapper.Key(m.Name))
	b.WriteByte('|')
	b.WriteString(string(m.Kind))
	if !m.Kind.IsCallable() {
		return b.String()
	}
	b.WriteByte('(')
	for i, p := range m.Parameters {
		if i > 0 {
			b.WriteByte(',')
		}
		t := p.Type
		if baseline {
			t = s.mapper.RewriteSignature(t, s.isTargetType)
		}
		b.WriteString(s.mapper.Key(t))
	}
	b.WriteByte(')')
	return b.String()
}

// overloadKey groups callables by name and kind only.
func (s *compareState) overloadKey(m apimodel.Element) string {
	return s.mapper.Key(m.Name) + "|" + string(m.Kind)
}

// compareMembers matches the members of one matched type pair. Exact keys
// are matched first; a remaining baseline callable may then pair with a
// target overload that only appends optional parameters.
func (s *compareState) compareMembers(oldMs, newMs []apimodel.Element) {
	byKey := make(map[string][]int, len(newMs))
	for j, m := range newMs {
		k := s.memberKey(m, false)
		byKey[k] = append(byKey[k], j)
	}

	oldMatched := make([]bool, len(oldMs))
	newClaimed := make([]bool, len(newMs))
	for i, m := range oldMs {
		for _, j := range byKey[s.memberKey(m, true)] {
			if newClaimed[j] {
				continue
			}
			newClaimed[j] = true
			oldMatched[i] = true
			for _, d := range diffcalc.MemberChanged(m, newMs[j], s.norm) {
				s.emit(d)
			}
			break
		}
	}

	byOverload := make(map[string][]int)
	for j, m := range newMs {
		if newClaimed[j] || !m.Kind.IsCallable() {
			continue
		}
		k := s.overloadKey(m)
		byOverload[k] = append(byOverload[k], j)
	}
	for i, m := range oldMs {
		if oldMatched[i] || !m.Kind.IsCallable() {
			continue
		}
		for _, j := range byOverload[s.overloadKey(m)] {
			if newClaimed[j] || !diffcalc.ExtendsWithOptional(m, newMs[j], s.norm) {
				continue
			}
			newClaimed[j] = true
			oldMatched[i] = true
			s.emit(diffcalc.OptionalParameterAdded(m, newMs[j]))
			if d, ok := diffcalc.AccessibilityReduced(m, newMs[j]); ok {
				s.emit(d)
			}
			break
		}
	}

	for i, m := range oldMs {
		if !oldMatched[i] {
			s.emit(diffcalc.MemberRemoved(m))
		}
	}
	for j, m := range newMs {
		if !newClaimed[j] {
			s.emit(diffcalc.MemberAdded(m))
		}
	}
}
