package apimodel

import "strings"

// ElementKind identifies what kind of public API element this is.
type ElementKind string

const (
	KindClass     ElementKind = "class"
	KindInterface ElementKind = "interface"
	KindStruct    ElementKind = "struct"
	KindEnum      ElementKind = "enum"
	KindDelegate  ElementKind = "delegate"
	// KindPackage is the synthetic container for package-level members
	// in languages that have free functions and values.
	KindPackage ElementKind = "package"

	KindMethod      ElementKind = "method"
	KindProperty    ElementKind = "property"
	KindField       ElementKind = "field"
	KindEvent       ElementKind = "event"
	KindConstructor ElementKind = "constructor"
)

// ElementKinds lists every kind in report order: types first, then members.
var ElementKinds = []ElementKind{
	KindPackage, KindClass, KindInterface, KindStruct, KindEnum, KindDelegate,
	KindConstructor, KindMethod, KindProperty, KindField, KindEvent,
}

// IsType reports whether k is a container kind.
func (k ElementKind) IsType() bool {
	switch k {
	case KindClass, KindInterface, KindStruct, KindEnum, KindDelegate, KindPackage:
		return true
	case KindMethod, KindProperty, KindField, KindEvent, KindConstructor:
		return false
	}
	return false
}

// IsMember reports whether k is a member kind.
func (k ElementKind) IsMember() bool {
	switch k {
	case KindMethod, KindProperty, KindField, KindEvent, KindConstructor:
		return true
	case KindClass, KindInterface, KindStruct, KindEnum, KindDelegate, KindPackage:
		return false
	}
	return false
}

// IsCallable reports whether members of this kind are matched by their
// parameter type sequence as well as their name.
func (k ElementKind) IsCallable() bool {
	return k == KindMethod || k == KindConstructor
}

// Valid reports whether k is one of the known kinds.
func (k ElementKind) Valid() bool {
	return k.IsType() || k.IsMember()
}

// Order returns the position of k in ElementKinds, or len(ElementKinds)
// for unknown kinds.
func (k ElementKind) Order() int {
	for i, known := range ElementKinds {
		if known == k {
			return i
		}
	}
	return len(ElementKinds)
}

// Accessibility is the declared visibility of an element.
type Accessibility string

const (
	AccessPublic            Accessibility = "public"
	AccessProtectedInternal Accessibility = "protected_internal"
	AccessProtected         Accessibility = "protected"
	AccessInternal          Accessibility = "internal"
	AccessPrivateProtected  Accessibility = "private_protected"
	AccessPrivate           Accessibility = "private"
)

// Rank orders accessibilities from most (5) to least (0) visible.
// An empty accessibility is treated as public.
func (a Accessibility) Rank() int {
	switch a {
	case AccessPublic, "":
		return 5
	case AccessProtectedInternal:
		return 4
	case AccessProtected:
		return 3
	case AccessInternal:
		return 2
	case AccessPrivateProtected:
		return 1
	case AccessPrivate:
		return 0
	}
	return 5
}

// Valid reports whether a is empty or one of the known accessibilities.
func (a Accessibility) Valid() bool {
	switch a {
	case "", AccessPublic, AccessProtectedInternal, AccessProtected, AccessInternal, AccessPrivateProtected, AccessPrivate:
		return true
	}
	return false
}

// String returns the accessibility, defaulting to public.
func (a Accessibility) String() string {
	if a == "" {
		return string(AccessPublic)
	}
	return string(a)
}

// Parameter is one formal parameter of a method or constructor.
type Parameter struct {
	Name       string `json:"name" yaml:"name"`
	Type       string `json:"type" yaml:"type" validate:"required"`
	IsOptional bool   `json:"isOptional,omitempty" yaml:"isOptional,omitempty"`
}

// Element is a single public type or member of a component snapshot.
// Signature is pre-normalized by the extractor and compared verbatim.
type Element struct {
	Name          string        `json:"name" yaml:"name" validate:"required"`
	FullName      string        `json:"fullName" yaml:"fullName" validate:"required"`
	Kind          ElementKind   `json:"kind" yaml:"kind" validate:"required,elementkind"`
	Accessibility Accessibility `json:"accessibility,omitempty" yaml:"accessibility,omitempty" validate:"accessibility"`
	Signature     string        `json:"signature,omitempty" yaml:"signature,omitempty"`
	DeclaringType string        `json:"declaringType,omitempty" yaml:"declaringType,omitempty"`
	Namespace     string        `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Attributes    []string      `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Parameters    []Parameter   `json:"parameters,omitempty" yaml:"parameters,omitempty" validate:"dive"`
	ReturnType    string        `json:"returnType,omitempty" yaml:"returnType,omitempty"`
	Interfaces    []string      `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
}

// Identity is the (full name, signature) pair that identifies an element.
type Identity struct {
	FullName  string
	Signature string
}

// Identity returns the matching identity of e.
func (e Element) Identity() Identity {
	return Identity{FullName: e.FullName, Signature: e.Signature}
}

// ParameterTypes returns the ordered parameter types of e.
func (e Element) ParameterTypes() []string {
	types := make([]string, len(e.Parameters))
	for i, p := range e.Parameters {
		types[i] = p.Type
	}
	return types
}

// ParameterNames returns the ordered parameter names of e.
func (e Element) ParameterNames() []string {
	names := make([]string, len(e.Parameters))
	for i, p := range e.Parameters {
		names[i] = p.Name
	}
	return names
}

// HasAttribute reports whether e carries the named custom attribute. Both
// the bare name and the "Attribute"-suffixed form match.
func (e Element) HasAttribute(name string) bool {
	for _, a := range e.Attributes {
		if a == name || a == name+"Attribute" || strings.HasSuffix(a, "."+name) || strings.HasSuffix(a, "."+name+"Attribute") {
			return true
		}
	}
	return false
}

// Snapshot is the public surface of one version of a component.
type Snapshot struct {
	Component string    `json:"component" yaml:"component"`
	Version   string    `json:"version,omitempty" yaml:"version,omitempty"`
	Elements  []Element `json:"elements" yaml:"elements" validate:"dive"`
}

// SplitFullName splits a qualified type name at its last dot into the
// namespace portion and the simple name. Names without a dot have an empty
// namespace.
func SplitFullName(fullName string) (namespace, name string) {
	idx := strings.LastIndex(fullName, ".")
	if idx < 0 {
		return "", fullName
	}
	return fullName[:idx], fullName[idx+1:]
}

// JoinFullName joins a namespace and simple name.
func JoinFullName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

// NamespaceOf returns the namespace of a type element, falling back to the
// namespace portion of its full name.
func (e Element) NamespaceOf() string {
	if e.Namespace != "" {
		return e.Namespace
	}
	ns, _ := SplitFullName(e.FullName)
	return ns
}
