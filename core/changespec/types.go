package changespec

import (
	"github.com/emenda-labs/apicompat/core/apimodel"
)

// ChangeKind represents how an element changed between two snapshots.
type ChangeKind string

const (
	ChangeKindAdded    ChangeKind = "added"
	ChangeKindRemoved  ChangeKind = "removed"
	ChangeKindModified ChangeKind = "modified"
	ChangeKindMoved    ChangeKind = "moved"
	ChangeKindExcluded ChangeKind = "excluded"
)

// Reason is the shape of a difference. Each reason is governed by at most
// one breaking-change rule.
type Reason string

const (
	ReasonTypeAdded              Reason = "type_added"
	ReasonTypeRemoved            Reason = "type_removed"
	ReasonTypeMoved              Reason = "type_moved"
	ReasonMemberAdded            Reason = "member_added"
	ReasonMemberRemoved          Reason = "member_removed"
	ReasonSignatureChanged       Reason = "signature_changed"
	ReasonAccessibilityReduced   Reason = "accessibility_reduced"
	ReasonInterfaceAdded         Reason = "interface_added"
	ReasonInterfaceRemoved       Reason = "interface_removed"
	ReasonParameterNamesChanged  Reason = "parameter_names_changed"
	ReasonOptionalParameterAdded Reason = "optional_parameter_added"
)

// Severity ranks how risky a difference is for consumers.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Difference is a single detected change between two snapshots.
//
// A Difference is built open by the difference calculator and stamped
// exactly once by the classifier. Classified reports which state it is in.
// TargetDeclaringType is set only on a modification whose member moved to a
// renamed declaring type.
type Difference struct {
	ChangeKind          ChangeKind           `json:"changeKind" yaml:"changeKind"`
	Reason              Reason               `json:"reason" yaml:"reason"`
	ElementKind         apimodel.ElementKind `json:"elementKind" yaml:"elementKind"`
	ElementName         string               `json:"elementName" yaml:"elementName"`
	FullName            string               `json:"fullName" yaml:"fullName"`
	DeclaringType       string               `json:"declaringType,omitempty" yaml:"declaringType,omitempty"`
	TargetDeclaringType string               `json:"targetDeclaringType,omitempty" yaml:"targetDeclaringType,omitempty"`
	Description         string               `json:"description" yaml:"description"`
	IsBreaking          bool                 `json:"isBreaking" yaml:"isBreaking"`
	Severity            Severity             `json:"severity" yaml:"severity"`
	OldSignature        string               `json:"oldSignature,omitempty" yaml:"oldSignature,omitempty"`
	NewSignature        string               `json:"newSignature,omitempty" yaml:"newSignature,omitempty"`
	SignatureEquivalent bool                 `json:"signatureEquivalent,omitempty" yaml:"signatureEquivalent,omitempty"`
	Attributes          []string             `json:"-" yaml:"-"`
	Classified          bool                 `json:"-" yaml:"-"`
}

// IsAddition reports whether the difference only adds surface.
func (d Difference) IsAddition() bool {
	switch d.Reason {
	case ReasonTypeAdded, ReasonMemberAdded, ReasonInterfaceAdded:
		return true
	}
	return false
}

// HasAttribute reports whether the changed element carries the named
// attribute, with or without the "Attribute" suffix.
func (d Difference) HasAttribute(name string) bool {
	e := apimodel.Element{Attributes: d.Attributes}
	return e.HasAttribute(name)
}

// Summary holds the derived counts of a ComparisonResult.
type Summary struct {
	HasBreakingChanges   bool `json:"hasBreakingChanges" yaml:"hasBreakingChanges"`
	BreakingChangesCount int  `json:"breakingChangesCount" yaml:"breakingChangesCount"`
	TotalChanges         int  `json:"totalChanges" yaml:"totalChanges"`
	Additions            int  `json:"additions" yaml:"additions"`
	Removals             int  `json:"removals" yaml:"removals"`
	Modifications        int  `json:"modifications" yaml:"modifications"`
	Moves                int  `json:"moves" yaml:"moves"`
	Excluded             int  `json:"excluded" yaml:"excluded"`
}

// ComparisonResult is the classified outcome of comparing two snapshots.
// Each list holds only differences of its own ChangeKind; build it with
// NewComparisonResult to keep that partition.
type ComparisonResult struct {
	Baseline      string       `json:"baseline,omitempty" yaml:"baseline,omitempty"`
	Target        string       `json:"target,omitempty" yaml:"target,omitempty"`
	Additions     []Difference `json:"additions" yaml:"additions"`
	Removals      []Difference `json:"removals" yaml:"removals"`
	Modifications []Difference `json:"modifications" yaml:"modifications"`
	Moves         []Difference `json:"moves" yaml:"moves"`
	Excluded      []Difference `json:"excluded" yaml:"excluded"`
	Summary       Summary      `json:"summary" yaml:"summary"`
}

// NewComparisonResult partitions diffs by ChangeKind, preserving their
// relative order, and computes the summary.
func NewComparisonResult(diffs []Difference) ComparisonResult {
	r := ComparisonResult{
		Additions:     []Difference{},
		Removals:      []Difference{},
		Modifications: []Difference{},
		Moves:         []Difference{},
		Excluded:      []Difference{},
	}
	for _, d := range diffs {
		switch d.ChangeKind {
		case ChangeKindAdded:
			r.Additions = append(r.Additions, d)
		case ChangeKindRemoved:
			r.Removals = append(r.Removals, d)
		case ChangeKindModified:
			r.Modifications = append(r.Modifications, d)
		case ChangeKindMoved:
			r.Moves = append(r.Moves, d)
		case ChangeKindExcluded:
			r.Excluded = append(r.Excluded, d)
		default:
			panic("changespec: unknown change kind " + string(d.ChangeKind))
		}
	}

	breaking := 0
	for _, list := range [][]Difference{r.Additions, r.Removals, r.Modifications, r.Moves} {
		for _, d := range list {
			if d.IsBreaking {
				breaking++
			}
		}
	}

	r.Summary = Summary{
		HasBreakingChanges:   breaking > 0,
		BreakingChangesCount: breaking,
		TotalChanges:         len(r.Additions) + len(r.Removals) + len(r.Modifications),
		Additions:            len(r.Additions),
		Removals:             len(r.Removals),
		Modifications:        len(r.Modifications),
		Moves:                len(r.Moves),
		Excluded:             len(r.Excluded),
	}
	return r
}

// HasBreakingChanges reports whether any non-excluded difference is breaking.
func (r ComparisonResult) HasBreakingChanges() bool {
	return r.Summary.HasBreakingChanges
}

// BreakingChangesCount is the number of breaking non-excluded differences.
func (r ComparisonResult) BreakingChangesCount() int {
	return r.Summary.BreakingChangesCount
}

// TotalChanges is the number of additions, removals and modifications.
func (r ComparisonResult) TotalChanges() int {
	return r.Summary.TotalChanges
}

// All returns every difference in report order: removals, modifications,
// moves, additions, excluded.
func (r ComparisonResult) All() []Difference {
	out := make([]Difference, 0, len(r.Removals)+len(r.Modifications)+len(r.Moves)+len(r.Additions)+len(r.Excluded))
	out = append(out, r.Removals...)
	out = append(out, r.Modifications...)
	out = append(out, r.Moves...)
	out = append(out, r.Additions...)
	out = append(out, r.Excluded...)
	return out
}

// Breaking returns the breaking differences in report order.
func (r ComparisonResult) Breaking() []Difference {
	var out []Difference
	for _, d := range r.All() {
		if d.IsBreaking && d.ChangeKind != ChangeKindExcluded {
			out = append(out, d)
		}
	}
	return out
}
