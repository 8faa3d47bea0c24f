// Package compare matches two API snapshots and produces a classified
// ComparisonResult.
package compare

import (
	"io"
	"log/slog"
	"sort"

	"github.com/emenda-labs/apicompat/core/apimodel"
	"github.com/emenda-labs/apicompat/core/changespec"
	"github.com/emenda-labs/apicompat/core/classify"
	"github.com/emenda-labs/apicompat/core/config"
	"github.com/emenda-labs/apicompat/core/diffcalc"
	"github.com/emenda-labs/apicompat/core/mapping"
)

// Comparer compares snapshots. It holds no state between calls and is safe
// for concurrent use.
type Comparer struct {
	logger *slog.Logger
}

// Option configures a Comparer.
type Option func(*Comparer)

// WithLogger routes match diagnostics, such as ambiguous auto-mapping, to
// logger. Diagnostics never change the result.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Comparer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Comparer.
func New(opts ...Option) *Comparer {
	c := &Comparer{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare is New().Compare.
func Compare(baseline, target []apimodel.Element, cfg config.Configuration) changespec.ComparisonResult {
	return New().Compare(baseline, target, cfg)
}

// Compare matches baseline against target under cfg, which must already be
// validated. It performs no I/O and never fails on well-formed input; a
// panic indicates a defect.
func (c *Comparer) Compare(baseline, target []apimodel.Element, cfg config.Configuration) changespec.ComparisonResult {
	s := newCompareState(baseline, target, cfg, c.logger)
	s.matchIdentical()
	s.matchTypeMappings()
	s.matchNamespaceMappings()
	s.matchAutoMapped()
	s.emitTypes()
	return s.result()
}

// matchRule records which rule paired two types.
type matchRule int

const (
	ruleNone matchRule = iota
	ruleIdentical
	ruleTypeMapping
	ruleNamespaceMapping
	ruleAutoMap
)

func (r matchRule) String() string {
	switch r {
	case ruleIdentical:
		return "identical"
	case ruleTypeMapping:
		return "type_mapping"
	case ruleNamespaceMapping:
		return "namespace_mapping"
	case ruleAutoMap:
		return "auto_map"
	}
	return "none"
}

// container is a type of one snapshot together with its members.
type container struct {
	elem    apimodel.Element
	members []apimodel.Element
	// synthetic containers stand in for declaring types that have members in
	// the snapshot but no type record of their own.
	synthetic bool
}

// compareState holds the working state across all match passes.
type compareState struct {
	mapper     *mapping.Mapper
	classifier *classify.Classifier
	logger     *slog.Logger
	norm       diffcalc.Normalizer

	old []container
	new []container

	newByFullName   map[string][]int
	newBySimpleName map[string][]int

	oldMatch   []int // index into new, -1 if unmatched
	oldRule    []matchRule
	claimedNew []bool

	diffs []changespec.Difference
}

func newCompareState(baseline, target []apimodel.Element, cfg config.Configuration, logger *slog.Logger) *compareState {
	mapper := mapping.New(cfg.Mappings)
	s := &compareState{
		mapper:     mapper,
		classifier: classify.New(cfg),
		logger:     logger,
		old:        groupContainers(baseline, mapper),
		new:        groupContainers(target, mapper),
	}

	s.newByFullName = make(map[string][]int, len(s.new))
	s.newBySimpleName = make(map[string][]int, len(s.new))
	for i, ct := range s.new {
		s.newByFullName[mapper.Key(ct.elem.FullName)] = append(s.newByFullName[mapper.Key(ct.elem.FullName)], i)
		_, simple := apimodel.SplitFullName(ct.elem.FullName)
		s.newBySimpleName[mapper.Key(simple)] = append(s.newBySimpleName[mapper.Key(simple)], i)
	}

	s.oldMatch = make([]int, len(s.old))
	s.oldRule = make([]matchRule, len(s.old))
	for i := range s.oldMatch {
		s.oldMatch[i] = -1
	}
	s.claimedNew = make([]bool, len(s.new))
	s.norm = normalizer{mapper: mapper, isTarget: s.isTargetType}
	return s
}

// groupContainers splits elements into types and members and attaches each
// member to its declaring type, preserving enumeration order.
func groupContainers(elems []apimodel.Element, mapper *mapping.Mapper) []container {
	var out []container
	byName := make(map[string]int)

	for _, e := range elems {
		if !e.Kind.IsType() {
			continue
		}
		byName[mapper.Key(e.FullName)] = len(out)
		out = append(out, container{elem: e})
	}

	for _, e := range elems {
		if !e.Kind.IsMember() {
			continue
		}
		key := mapper.Key(e.DeclaringType)
		idx, ok := byName[key]
		if !ok {
			ns, name := apimodel.SplitFullName(e.DeclaringType)
			idx = len(out)
			byName[key] = idx
			out = append(out, container{
				elem: apimodel.Element{
					Name:      name,
					FullName:  e.DeclaringType,
					Kind:      apimodel.KindClass,
					Namespace: ns,
				},
				synthetic: true,
			})
		}
		out[idx].members = append(out[idx].members, e)
	}
	return out
}

func (s *compareState) isTargetType(fullName string) bool {
	_, ok := s.newByFullName[s.mapper.Key(fullName)]
	return ok
}

// claim pairs old[i] with the first unclaimed target among candidates.
func (s *compareState) claim(i int, candidates []int, rule matchRule) bool {
	for _, j := range candidates {
		if s.claimedNew[j] {
			continue
		}
		s.claimedNew[j] = true
		s.oldMatch[i] = j
		s.oldRule[i] = rule
		if rule != ruleIdentical {
			s.logger.Debug("matched type",
				"rule", rule.String(),
				"baseline", s.old[i].elem.FullName,
				"target", s.new[j].elem.FullName)
		}
		return true
	}
	return false
}

func (s *compareState) unmatchedOld() []int {
	var out []int
	for i, j := range s.oldMatch {
		if j < 0 {
			out = append(out, i)
		}
	}
	return out
}

// Pass 1: identical full names.
func (s *compareState) matchIdentical() {
	for i := range s.old {
		s.claim(i, s.newByFullName[s.mapper.Key(s.old[i].elem.FullName)], ruleIdentical)
	}
}

// Pass 2: explicit type mappings.
func (s *compareState) matchTypeMappings() {
	for _, i := range s.unmatchedOld() {
		name := s.old[i].elem.FullName
		if !s.mapper.HasTypeMapping(name) {
			continue
		}
		target := s.mapper.MapTypeName(name)
		s.claim(i, s.newByFullName[s.mapper.Key(target)], ruleTypeMapping)
	}
}

// Pass 3: namespace mappings, candidates tried in configured order.
func (s *compareState) matchNamespaceMappings() {
	for _, i := range s.unmatchedOld() {
		ns, simple := apimodel.SplitFullName(s.old[i].elem.FullName)
		if !s.mapper.HasNamespaceMapping(ns) {
			continue
		}
		for _, candidate := range s.mapper.MapNamespace(ns) {
			full := apimodel.JoinFullName(candidate, simple)
			if s.claim(i, s.newByFullName[s.mapper.Key(full)], ruleNamespaceMapping) {
				break
			}
		}
	}
}

// Pass 4: auto-mapping by simple name; the first unclaimed target in
// enumeration order wins.
func (s *compareState) matchAutoMapped() {
	for _, i := range s.unmatchedOld() {
		name := s.old[i].elem.FullName
		if !s.mapper.ShouldAutoMap(name) {
			continue
		}
		_, simple := apimodel.SplitFullName(name)
		var open []int
		for _, j := range s.newBySimpleName[s.mapper.Key(simple)] {
			if !s.claimedNew[j] {
				open = append(open, j)
			}
		}
		if len(open) > 1 {
			names := make([]string, len(open))
			for k, j := range open {
				names[k] = s.new[j].elem.FullName
			}
			s.logger.Warn("ambiguous auto-map",
				"baseline", name,
				"chosen", names[0],
				"candidates", names)
		}
		s.claim(i, open, ruleAutoMap)
	}
}

// emitTypes walks baseline types in order, then unclaimed target types.
func (s *compareState) emitTypes() {
	for i, oldCt := range s.old {
		j := s.oldMatch[i]
		if j < 0 {
			if oldCt.synthetic {
				for _, m := range oldCt.members {
					s.emit(diffcalc.MemberRemoved(m))
				}
				continue
			}
			s.emit(diffcalc.TypeRemoved(oldCt.elem))
			continue
		}

		newCt := s.new[j]
		if !oldCt.synthetic && !newCt.synthetic {
			if s.oldRule[i] == ruleAutoMap && s.mapper.Key(oldCt.elem.FullName) != s.mapper.Key(newCt.elem.FullName) {
				s.emit(diffcalc.TypeMoved(oldCt.elem, newCt.elem))
			}
			for _, d := range diffcalc.TypeChanged(oldCt.elem, newCt.elem, s.norm) {
				s.emit(d)
			}
		}
		s.compareMembers(oldCt.members, newCt.members)
	}

	for j, newCt := range s.new {
		if s.claimedNew[j] {
			continue
		}
		if newCt.synthetic {
			for _, m := range newCt.members {
				s.emit(diffcalc.MemberAdded(m))
			}
			continue
		}
		s.emit(diffcalc.TypeAdded(newCt.elem))
	}
}

func (s *compareState) emit(d changespec.Difference) {
	s.diffs = append(s.diffs, s.classifier.Classify(d))
}

// result sorts the classified differences by element kind, then name under
// the configured case rule, then reason and description.
func (s *compareState) result() changespec.ComparisonResult {
	sort.SliceStable(s.diffs, func(i, j int) bool {
		a, b := s.diffs[i], s.diffs[j]
		if a.ElementKind.Order() != b.ElementKind.Order() {
			return a.ElementKind.Order() < b.ElementKind.Order()
		}
		if a.FullName != b.FullName {
			return s.mapper.Less(a.FullName, b.FullName)
		}
		if a.Reason != b.Reason {
			return a.Reason < b.Reason
		}
		return a.Description < b.Description
	})
	return changespec.NewComparisonResult(s.diffs)
}

// normalizer adapts the name mapper for the difference calculator.
type normalizer struct {
	mapper   *mapping.Mapper
	isTarget func(string) bool
}

func (n normalizer) Rewrite(sig string) string {
	return n.mapper.RewriteSignature(sig, n.isTarget)
}

func (n normalizer) Key(s string) string {
	return n.mapper.Key(s)
}
