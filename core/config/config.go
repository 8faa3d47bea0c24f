package config

// Configuration is the immutable policy of one comparison run. It is
// passed by value; callers that need to modify a loaded configuration
// should Clone it first.
type Configuration struct {
	Mappings            MappingConfig       `json:"mappings" yaml:"mappings"`
	Exclusions          ExclusionConfig     `json:"exclusions" yaml:"exclusions"`
	BreakingChangeRules BreakingChangeRules `json:"breakingChangeRules" yaml:"breakingChangeRules"`
}

// MappingConfig describes namespace and type renames between snapshots.
type MappingConfig struct {
	// NamespaceMappings maps a baseline namespace to target namespace
	// candidates, tried in order.
	NamespaceMappings    map[string][]string `json:"namespaceMappings" yaml:"namespaceMappings"`
	TypeMappings         map[string]string   `json:"typeMappings" yaml:"typeMappings"`
	AutoMapSameNameTypes bool                `json:"autoMapSameNameTypes" yaml:"autoMapSameNameTypes"`
	IgnoreCase           bool                `json:"ignoreCase" yaml:"ignoreCase"`
}

// ExclusionConfig lists elements removed from breaking-change consideration.
type ExclusionConfig struct {
	ExcludedTypes            []string `json:"excludedTypes" yaml:"excludedTypes"`
	ExcludedMembers          []string `json:"excludedMembers" yaml:"excludedMembers"`
	ExcludedTypePatterns     []string `json:"excludedTypePatterns" yaml:"excludedTypePatterns"`
	ExcludedMemberPatterns   []string `json:"excludedMemberPatterns" yaml:"excludedMemberPatterns"`
	ExcludeCompilerGenerated bool     `json:"excludeCompilerGenerated" yaml:"excludeCompilerGenerated"`
	ExcludeObsolete          bool     `json:"excludeObsolete" yaml:"excludeObsolete"`
}

// BreakingChangeRules decides which difference shapes are breaking.
type BreakingChangeRules struct {
	TreatTypeRemovalAsBreaking            bool `json:"treatTypeRemovalAsBreaking" yaml:"treatTypeRemovalAsBreaking"`
	TreatMemberRemovalAsBreaking          bool `json:"treatMemberRemovalAsBreaking" yaml:"treatMemberRemovalAsBreaking"`
	TreatAddedTypeAsBreaking              bool `json:"treatAddedTypeAsBreaking" yaml:"treatAddedTypeAsBreaking"`
	TreatAddedMemberAsBreaking            bool `json:"treatAddedMemberAsBreaking" yaml:"treatAddedMemberAsBreaking"`
	TreatSignatureChangeAsBreaking        bool `json:"treatSignatureChangeAsBreaking" yaml:"treatSignatureChangeAsBreaking"`
	TreatReducedAccessibilityAsBreaking   bool `json:"treatReducedAccessibilityAsBreaking" yaml:"treatReducedAccessibilityAsBreaking"`
	TreatAddedInterfaceAsBreaking         bool `json:"treatAddedInterfaceAsBreaking" yaml:"treatAddedInterfaceAsBreaking"`
	TreatRemovedInterfaceAsBreaking       bool `json:"treatRemovedInterfaceAsBreaking" yaml:"treatRemovedInterfaceAsBreaking"`
	TreatParameterNameChangeAsBreaking    bool `json:"treatParameterNameChangeAsBreaking" yaml:"treatParameterNameChangeAsBreaking"`
	TreatAddedOptionalParameterAsBreaking bool `json:"treatAddedOptionalParameterAsBreaking" yaml:"treatAddedOptionalParameterAsBreaking"`
}

// Default returns the default configuration: no mappings, no exclusions,
// removals and incompatible modifications are breaking, additions are not.
func Default() Configuration {
	return Configuration{
		Mappings: MappingConfig{
			NamespaceMappings: map[string][]string{},
			TypeMappings:      map[string]string{},
		},
		BreakingChangeRules: DefaultRules(),
	}
}

// DefaultRules returns the default breaking-change policy.
func DefaultRules() BreakingChangeRules {
	return BreakingChangeRules{
		TreatTypeRemovalAsBreaking:            true,
		TreatMemberRemovalAsBreaking:          true,
		TreatAddedTypeAsBreaking:              false,
		TreatAddedMemberAsBreaking:            false,
		TreatSignatureChangeAsBreaking:        true,
		TreatReducedAccessibilityAsBreaking:   true,
		TreatAddedInterfaceAsBreaking:         false,
		TreatRemovedInterfaceAsBreaking:       true,
		TreatParameterNameChangeAsBreaking:    false,
		TreatAddedOptionalParameterAsBreaking: true,
	}
}

// Clone returns a deep copy of c.
func (c Configuration) Clone() Configuration {
	out := c

	if c.Mappings.NamespaceMappings != nil {
		out.Mappings.NamespaceMappings = make(map[string][]string, len(c.Mappings.NamespaceMappings))
		for k, v := range c.Mappings.NamespaceMappings {
			out.Mappings.NamespaceMappings[k] = append([]string(nil), v...)
		}
	}
	if c.Mappings.TypeMappings != nil {
		out.Mappings.TypeMappings = make(map[string]string, len(c.Mappings.TypeMappings))
		for k, v := range c.Mappings.TypeMappings {
			out.Mappings.TypeMappings[k] = v
		}
	}

	out.Exclusions.ExcludedTypes = append([]string(nil), c.Exclusions.ExcludedTypes...)
	out.Exclusions.ExcludedMembers = append([]string(nil), c.Exclusions.ExcludedMembers...)
	out.Exclusions.ExcludedTypePatterns = append([]string(nil), c.Exclusions.ExcludedTypePatterns...)
	out.Exclusions.ExcludedMemberPatterns = append([]string(nil), c.Exclusions.ExcludedMemberPatterns...)
	return out
}

// ruleFlag names one rule for environment overrides and listings.
type ruleFlag struct {
	name string
	env  string
	ptr  func(*BreakingChangeRules) *bool
}

var ruleFlags = []ruleFlag{
	{"treatTypeRemovalAsBreaking", "TREAT_TYPE_REMOVAL_AS_BREAKING", func(r *BreakingChangeRules) *bool { return &r.TreatTypeRemovalAsBreaking }},
	{"treatMemberRemovalAsBreaking", "TREAT_MEMBER_REMOVAL_AS_BREAKING", func(r *BreakingChangeRules) *bool { return &r.TreatMemberRemovalAsBreaking }},
	{"treatAddedTypeAsBreaking", "TREAT_ADDED_TYPE_AS_BREAKING", func(r *BreakingChangeRules) *bool { return &r.TreatAddedTypeAsBreaking }},
	{"treatAddedMemberAsBreaking", "TREAT_ADDED_MEMBER_AS_BREAKING", func(r *BreakingChangeRules) *bool { return &r.TreatAddedMemberAsBreaking }},
	{"treatSignatureChangeAsBreaking", "TREAT_SIGNATURE_CHANGE_AS_BREAKING", func(r *BreakingChangeRules) *bool { return &r.TreatSignatureChangeAsBreaking }},
	{"treatReducedAccessibilityAsBreaking", "TREAT_REDUCED_ACCESSIBILITY_AS_BREAKING", func(r *BreakingChangeRules) *bool { return &r.TreatReducedAccessibilityAsBreaking }},
	{"treatAddedInterfaceAsBreaking", "TREAT_ADDED_INTERFACE_AS_BREAKING", func(r *BreakingChangeRules) *bool { return &r.TreatAddedInterfaceAsBreaking }},
	{"treatRemovedInterfaceAsBreaking", "TREAT_REMOVED_INTERFACE_AS_BREAKING", func(r *BreakingChangeRules) *bool { return &r.TreatRemovedInterfaceAsBreaking }},
	{"treatParameterNameChangeAsBreaking", "TREAT_PARAMETER_NAME_CHANGE_AS_BREAKING", func(r *BreakingChangeRules) *bool { return &r.TreatParameterNameChangeAsBreaking }},
	{"treatAddedOptionalParameterAsBreaking", "TREAT_ADDED_OPTIONAL_PARAMETER_AS_BREAKING", func(r *BreakingChangeRules) *bool { return &r.TreatAddedOptionalParameterAsBreaking }},
}

// RuleNames returns the ten rule names in declaration order.
func RuleNames() []string {
	names := make([]string, len(ruleFlags))
	for i, f := range ruleFlags {
		names[i] = f.name
	}
	return names
}

// Rule returns the value of the named rule.
func (r BreakingChangeRules) Rule(name string) (bool, bool) {
	for _, f := range ruleFlags {
		if f.name == name {
			return *f.ptr(&r), true
		}
	}
	return false, false
}
