// Package diffcalc builds Difference records for matched and unmatched
// element pairs. Every builder is pure and its descriptions depend only on
// its inputs, so they are stable across runs.
package diffcalc

import (
	"fmt"
	"strings"

	"github.com/emenda-labs/apicompat/core/apimodel"
	"github.com/emenda-labs/apicompat/core/changespec"
	"github.com/emenda-labs/apicompat/core/mapping"
)

// Normalizer rewrites baseline names into target terms and folds names for
// comparison. The comparer supplies one backed by its name mapper.
type Normalizer interface {
	// Rewrite applies configured renames to a baseline signature or type name.
	Rewrite(s string) string
	// Key folds s according to the configured case rule.
	Key(s string) string
}

type identity struct{}

func (identity) Rewrite(s string) string { return s }
func (identity) Key(s string) string     { return s }

func normalizer(n Normalizer) Normalizer {
	if n == nil {
		return identity{}
	}
	return n
}

// TypeAdded describes a type present only in the target.
func TypeAdded(t apimodel.Element) changespec.Difference {
	return changespec.Difference{
		ChangeKind:   changespec.ChangeKindAdded,
		Reason:       changespec.ReasonTypeAdded,
		ElementKind:  t.Kind,
		ElementName:  t.Name,
		FullName:     t.FullName,
		Description:  fmt.Sprintf("%s %s added", t.Kind, t.FullName),
		NewSignature: t.Signature,
		Attributes:   t.Attributes,
	}
}

// TypeRemoved describes a type present only in the baseline.
func TypeRemoved(t apimodel.Element) changespec.Difference {
	return changespec.Difference{
		ChangeKind:   changespec.ChangeKindRemoved,
		Reason:       changespec.ReasonTypeRemoved,
		ElementKind:  t.Kind,
		ElementName:  t.Name,
		FullName:     t.FullName,
		Description:  fmt.Sprintf("%s %s removed", t.Kind, t.FullName),
		OldSignature: t.Signature,
		Attributes:   t.Attributes,
	}
}

// TypeMoved describes a type matched by simple name alone into a different
// namespace.
func TypeMoved(old, new apimodel.Element) changespec.Difference {
	return changespec.Difference{
		ChangeKind:   changespec.ChangeKindMoved,
		Reason:       changespec.ReasonTypeMoved,
		ElementKind:  old.Kind,
		ElementName:  old.Name,
		FullName:     old.FullName,
		Description:  fmt.Sprintf("moved from %s to %s", old.FullName, new.FullName),
		OldSignature: old.Signature,
		NewSignature: new.Signature,
		Attributes:   old.Attributes,
	}
}

// TypeChanged compares a matched type pair. It returns nil when nothing
// observable differs. Accessibility, kind/signature and every added or
// removed interface are reported as separate differences.
func TypeChanged(old, new apimodel.Element, n Normalizer) []changespec.Difference {
	n = normalizer(n)
	var out []changespec.Difference

	if d, ok := AccessibilityReduced(old, new); ok {
		out = append(out, d)
	}

	switch {
	case old.Kind != new.Kind:
		d := modified(old, new, changespec.ReasonSignatureChanged,
			fmt.Sprintf("kind changed from %s to %s", old.Kind, new.Kind))
		out = append(out, d)
	case old.Signature != new.Signature:
		d := modified(old, new, changespec.ReasonSignatureChanged, "signature changed")
		if n.Key(n.Rewrite(old.Signature)) == n.Key(new.Signature) {
			d.SignatureEquivalent = true
			d.Description = "signature changed (equivalent after renames)"
		}
		out = append(out, d)
	}

	oldIfaces := make(map[string]bool, len(old.Interfaces))
	for _, i := range old.Interfaces {
		oldIfaces[n.Key(n.Rewrite(i))] = true
	}
	newIfaces := make(map[string]bool, len(new.Interfaces))
	for _, i := range new.Interfaces {
		newIfaces[n.Key(i)] = true
	}
	for _, i := range old.Interfaces {
		if !newIfaces[n.Key(n.Rewrite(i))] {
			out = append(out, modified(old, new, changespec.ReasonInterfaceRemoved,
				fmt.Sprintf("no longer implements %s", i)))
		}
	}
	for _, i := range new.Interfaces {
		if !oldIfaces[n.Key(i)] {
			out = append(out, modified(old, new, changespec.ReasonInterfaceAdded,
				fmt.Sprintf("now implements %s", i)))
		}
	}

	return out
}

// MemberAdded describes a member present only in the target type.
func MemberAdded(m apimodel.Element) changespec.Difference {
	return changespec.Difference{
		ChangeKind:    changespec.ChangeKindAdded,
		Reason:        changespec.ReasonMemberAdded,
		ElementKind:   m.Kind,
		ElementName:   m.Name,
		FullName:      m.FullName,
		DeclaringType: m.DeclaringType,
		Description:   fmt.Sprintf("%s %s added", m.Kind, memberLabel(m)),
		NewSignature:  m.Signature,
		Attributes:    m.Attributes,
	}
}

// MemberRemoved describes a member present only in the baseline type.
func MemberRemoved(m apimodel.Element) changespec.Difference {
	return changespec.Difference{
		ChangeKind:    changespec.ChangeKindRemoved,
		Reason:        changespec.ReasonMemberRemoved,
		ElementKind:   m.Kind,
		ElementName:   m.Name,
		FullName:      m.FullName,
		DeclaringType: m.DeclaringType,
		Description:   fmt.Sprintf("%s %s removed", m.Kind, memberLabel(m)),
		OldSignature:  m.Signature,
		Attributes:    m.Attributes,
	}
}

// MemberChanged compares a matched member pair and returns nil when nothing
// observable differs.
func MemberChanged(old, new apimodel.Element, n Normalizer) []changespec.Difference {
	n = normalizer(n)
	var out []changespec.Difference

	if d, ok := AccessibilityReduced(old, new); ok {
		out = append(out, d)
	}

	renamedParams := parameterNamesChanged(old, new)

	if old.Signature != new.Signature {
		oldSig := old.Signature
		if renamedParams {
			oldSig = renameParameters(oldSig, old.Parameters, new.Parameters)
		}
		// A signature that differs only by parameter names is reported once,
		// as a parameter name change.
		if oldSig != new.Signature {
			d := modified(old, new, changespec.ReasonSignatureChanged, "signature changed")
			if n.Key(n.Rewrite(oldSig)) == n.Key(new.Signature) {
				d.SignatureEquivalent = true
				d.Description = "signature changed (equivalent after renames)"
			}
			out = append(out, d)
		}
	} else if old.ReturnType != new.ReturnType && n.Key(n.Rewrite(old.ReturnType)) != n.Key(new.ReturnType) {
		out = append(out, modified(old, new, changespec.ReasonSignatureChanged,
			fmt.Sprintf("type changed from %s to %s", old.ReturnType, new.ReturnType)))
	}

	if renamedParams {
		out = append(out, modified(old, new, changespec.ReasonParameterNamesChanged,
			fmt.Sprintf("parameter names changed from (%s) to (%s)",
				strings.Join(old.ParameterNames(), ", "), strings.Join(new.ParameterNames(), ", "))))
	}

	return out
}

// OptionalParameterAdded describes a method whose target overload extends
// the baseline parameter list with optional parameters only.
func OptionalParameterAdded(old, new apimodel.Element) changespec.Difference {
	added := new.Parameters[len(old.Parameters):]
	parts := make([]string, len(added))
	for i, p := range added {
		parts[i] = strings.TrimSpace(p.Type + " " + p.Name)
	}
	noun := "parameter"
	if len(added) > 1 {
		noun = "parameters"
	}
	return modified(old, new, changespec.ReasonOptionalParameterAdded,
		fmt.Sprintf("optional %s added: %s", noun, strings.Join(parts, ", ")))
}

// ExtendsWithOptional reports whether new's parameters are old's
// parameters (compared with n) followed by one or more optional parameters.
func ExtendsWithOptional(old, new apimodel.Element, n Normalizer) bool {
	n = normalizer(n)
	if len(new.Parameters) <= len(old.Parameters) {
		return false
	}
	for i, p := range old.Parameters {
		if n.Key(n.Rewrite(p.Type)) != n.Key(new.Parameters[i].Type) {
			return false
		}
	}
	for _, p := range new.Parameters[len(old.Parameters):] {
		if !p.IsOptional {
			return false
		}
	}
	return true
}

func modified(old, new apimodel.Element, reason changespec.Reason, description string) changespec.Difference {
	d := changespec.Difference{
		ChangeKind:    changespec.ChangeKindModified,
		Reason:        reason,
		ElementKind:   old.Kind,
		ElementName:   old.Name,
		FullName:      old.FullName,
		DeclaringType: old.DeclaringType,
		Description:   description,
		OldSignature:  old.Signature,
		NewSignature:  new.Signature,
		Attributes:    old.Attributes,
	}
	if new.DeclaringType != old.DeclaringType {
		d.TargetDeclaringType = new.DeclaringType
	}
	return d
}

// AccessibilityReduced reports a matched pair whose target is less
// accessible than its baseline.
func AccessibilityReduced(old, new apimodel.Element) (changespec.Difference, bool) {
	if new.Accessibility.Rank() >= old.Accessibility.Rank() {
		return changespec.Difference{}, false
	}
	return modified(old, new, changespec.ReasonAccessibilityReduced,
		fmt.Sprintf("accessibility reduced from %s to %s", old.Accessibility, new.Accessibility)), true
}

func parameterNamesChanged(old, new apimodel.Element) bool {
	if len(old.Parameters) != len(new.Parameters) {
		return false
	}
	for i := range old.Parameters {
		if old.Parameters[i].Name != new.Parameters[i].Name {
			return true
		}
	}
	return false
}

// renameParameters substitutes new parameter names for old ones in sig.
func renameParameters(sig string, old, new []apimodel.Parameter) string {
	renames := make(map[string]string, len(old))
	for i := range old {
		if old[i].Name != "" && old[i].Name != new[i].Name {
			renames[old[i].Name] = new[i].Name
		}
	}
	return mapping.ReplaceTokens(sig, func(token string) string {
		if to, ok := renames[token]; ok {
			return to
		}
		return token
	})
}

func memberLabel(m apimodel.Element) string {
	if m.DeclaringType == "" {
		return m.Name
	}
	return m.DeclaringType + "." + m.Name
}
