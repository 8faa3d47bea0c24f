// Package classify stamps differences with exclusion, breaking and
// severity decisions. Classification depends only on the difference and the
// configuration it was built with.
package classify

import (
	"strings"

	"github.com/emenda-labs/apicompat/core/apimodel"
	"github.com/emenda-labs/apicompat/core/changespec"
	"github.com/emenda-labs/apicompat/core/config"
	"github.com/emenda-labs/apicompat/core/wildcard"
)

// Classifier applies one configuration's exclusions and breaking rules.
type Classifier struct {
	rules      config.BreakingChangeRules
	exclusions config.ExclusionConfig

	excludedTypes   map[string]bool
	excludedMembers map[string]bool
	typePatterns    wildcard.Set
	memberPatterns  wildcard.Set
}

// New compiles the exclusions of a validated configuration. It panics on a
// malformed pattern, which validation rejects.
func New(cfg config.Configuration) *Classifier {
	c := &Classifier{
		rules:           cfg.BreakingChangeRules,
		exclusions:      cfg.Exclusions,
		excludedTypes:   make(map[string]bool, len(cfg.Exclusions.ExcludedTypes)),
		excludedMembers: make(map[string]bool, len(cfg.Exclusions.ExcludedMembers)),
	}
	for _, name := range cfg.Exclusions.ExcludedTypes {
		c.excludedTypes[name] = true
	}
	for _, name := range cfg.Exclusions.ExcludedMembers {
		c.excludedMembers[name] = true
	}

	var err error
	if c.typePatterns, err = wildcard.CompileSet(cfg.Exclusions.ExcludedTypePatterns, false); err != nil {
		panic("classify: " + err.Error())
	}
	if c.memberPatterns, err = wildcard.CompileSet(cfg.Exclusions.ExcludedMemberPatterns, false); err != nil {
		panic("classify: " + err.Error())
	}
	return c
}

// IsTypeExcluded reports whether a type full name is excluded by name or
// pattern.
func (c *Classifier) IsTypeExcluded(name string) bool {
	if c.excludedTypes[name] {
		return true
	}
	_, ok := c.typePatterns.Match(name)
	return ok
}

// IsMemberExcluded reports whether a member full name is excluded by name or
// pattern.
func (c *Classifier) IsMemberExcluded(name string) bool {
	if c.excludedMembers[name] {
		return true
	}
	_, ok := c.memberPatterns.Match(name)
	return ok
}

// IsExcluded reports whether d is covered by any exclusion. Members of an
// excluded type are excluded with it. A member whose declaring type was
// renamed is matched under both its baseline and target names.
func (c *Classifier) IsExcluded(d changespec.Difference) bool {
	if d.ElementKind.IsMember() {
		if c.IsMemberExcluded(d.FullName) {
			return true
		}
		if d.DeclaringType != "" && c.IsTypeExcluded(d.DeclaringType) {
			return true
		}
		if t := d.TargetDeclaringType; t != "" {
			if c.IsTypeExcluded(t) || c.IsMemberExcluded(apimodel.JoinFullName(t, d.ElementName)) {
				return true
			}
		}
	} else if c.IsTypeExcluded(d.FullName) {
		return true
	}

	if c.exclusions.ExcludeCompilerGenerated && isCompilerGenerated(d) {
		return true
	}
	if c.exclusions.ExcludeObsolete && d.HasAttribute("Obsolete") {
		return true
	}
	return false
}

// Classify returns d stamped with its final change kind, breaking flag and
// severity. Exclusion overrides every rule. Classifying a difference twice
// is a programming error and panics.
func (c *Classifier) Classify(d changespec.Difference) changespec.Difference {
	if d.Classified {
		panic("classify: difference for " + d.FullName + " classified twice")
	}
	d.Classified = true

	if c.IsExcluded(d) {
		d.ChangeKind = changespec.ChangeKindExcluded
		d.IsBreaking = false
		d.Severity = changespec.SeverityInfo
		return d
	}

	d.IsBreaking = c.isBreaking(d)
	d.Severity = severity(d)
	return d
}

// Classify is the one-shot form of New(cfg).Classify(d).
func Classify(d changespec.Difference, cfg config.Configuration) changespec.Difference {
	return New(cfg).Classify(d)
}

func (c *Classifier) isBreaking(d changespec.Difference) bool {
	r := c.rules
	switch d.Reason {
	case changespec.ReasonTypeRemoved:
		return r.TreatTypeRemovalAsBreaking
	case changespec.ReasonMemberRemoved:
		return r.TreatMemberRemovalAsBreaking
	case changespec.ReasonTypeAdded:
		return r.TreatAddedTypeAsBreaking
	case changespec.ReasonMemberAdded:
		return r.TreatAddedMemberAsBreaking
	case changespec.ReasonSignatureChanged:
		if d.SignatureEquivalent {
			return false
		}
		return r.TreatSignatureChangeAsBreaking
	case changespec.ReasonAccessibilityReduced:
		return r.TreatReducedAccessibilityAsBreaking
	case changespec.ReasonInterfaceAdded:
		return r.TreatAddedInterfaceAsBreaking
	case changespec.ReasonInterfaceRemoved:
		return r.TreatRemovedInterfaceAsBreaking
	case changespec.ReasonParameterNamesChanged:
		return r.TreatParameterNameChangeAsBreaking
	case changespec.ReasonOptionalParameterAdded:
		return r.TreatAddedOptionalParameterAsBreaking
	case changespec.ReasonTypeMoved:
		return false
	}
	panic("classify: unknown difference reason " + string(d.Reason))
}

func severity(d changespec.Difference) changespec.Severity {
	if d.IsBreaking {
		switch d.Reason {
		case changespec.ReasonTypeRemoved, changespec.ReasonAccessibilityReduced:
			return changespec.SeverityCritical
		}
		return changespec.SeverityError
	}
	if d.IsAddition() {
		return changespec.SeverityInfo
	}
	return changespec.SeverityWarning
}

func isCompilerGenerated(d changespec.Difference) bool {
	if strings.ContainsRune(d.ElementName, '<') {
		return true
	}
	return d.HasAttribute("CompilerGenerated")
}
