package exports

import (
	"fmt"
	"go/ast"
	"sort"
	"strings"

	"github.com/emenda-labs/apicompat/core/apimodel"
)

// funcSignature is the parameter list and result types of a func type.
type funcSignature struct {
	params  []param
	results []string
}

type param struct {
	name     string
	typ      string
	variadic bool
}

func (s funcSignature) paramTypes() []string {
	out := make([]string, len(s.params))
	for i, p := range s.params {
		out[i] = p.typ
	}
	return out
}

// parameters converts to the model. A trailing variadic parameter is
// optional: callers may omit it.
func (s funcSignature) parameters() []apimodel.Parameter {
	if len(s.params) == 0 {
		return nil
	}
	out := make([]apimodel.Parameter, len(s.params))
	for i, p := range s.params {
		out[i] = apimodel.Parameter{Name: p.name, Type: p.typ, IsOptional: p.variadic}
	}
	return out
}

// returnType renders the results the way they appear after the parameter
// list.
func (s funcSignature) returnType() string {
	switch len(s.results) {
	case 0:
		return ""
	case 1:
		return s.results[0]
	}
	return "(" + strings.Join(s.results, ", ") + ")"
}

// renderTypeExpr converts a type expression to its canonical string form.
func renderTypeExpr(expr ast.Expr) string {
	if expr == nil {
		return ""
	}

	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name

	case *ast.SelectorExpr:
		return renderTypeExpr(e.X) + "." + e.Sel.Name

	case *ast.StarExpr:
		return "*" + renderTypeExpr(e.X)

	case *ast.ArrayType:
		if e.Len != nil {
			return fmt.Sprintf("[%s]%s", renderTypeExpr(e.Len), renderTypeExpr(e.Elt))
		}
		return "[]" + renderTypeExpr(e.Elt)

	case *ast.MapType:
		return "map[" + renderTypeExpr(e.Key) + "]" + renderTypeExpr(e.Value)

	case *ast.InterfaceType:
		if e.Methods == nil || len(e.Methods.List) == 0 {
			return "interface{}"
		}
		return "interface{...}"

	case *ast.FuncType:
		return "func" + renderFuncSignature(extractFuncSignature(e))

	case *ast.Ellipsis:
		return "..." + renderTypeExpr(e.Elt)

	case *ast.ChanType:
		switch e.Dir {
		case ast.RECV:
			return "<-chan " + renderTypeExpr(e.Value)
		case ast.SEND:
			return "chan<- " + renderTypeExpr(e.Value)
		}
		return "chan " + renderTypeExpr(e.Value)

	case *ast.StructType:
		return "struct{...}"

	case *ast.IndexExpr:
		return renderTypeExpr(e.X) + "[" + renderTypeExpr(e.Index) + "]"

	case *ast.IndexListExpr:
		indices := make([]string, len(e.Indices))
		for i, idx := range e.Indices {
			indices[i] = renderTypeExpr(idx)
		}
		return renderTypeExpr(e.X) + "[" + strings.Join(indices, ", ") + "]"

	case *ast.ParenExpr:
		return "(" + renderTypeExpr(e.X) + ")"

	case *ast.BasicLit:
		return e.Value

	case *ast.UnaryExpr:
		// Type set terms in constraints, e.g. ~int.
		return e.Op.String() + renderTypeExpr(e.X)

	case *ast.BinaryExpr:
		return renderTypeExpr(e.X) + " " + e.Op.String() + " " + renderTypeExpr(e.Y)
	}
	return "unknown"
}

// extractFuncSignature expands a func type into one entry per parameter
// name. Unnamed parameters get an empty name.
func extractFuncSignature(funcType *ast.FuncType) funcSignature {
	if funcType == nil {
		return funcSignature{}
	}

	var sig funcSignature
	if funcType.Params != nil {
		for _, field := range funcType.Params.List {
			typ := renderTypeExpr(field.Type)
			_, variadic := field.Type.(*ast.Ellipsis)
			if len(field.Names) == 0 {
				sig.params = append(sig.params, param{typ: typ, variadic: variadic})
				continue
			}
			for _, name := range field.Names {
				sig.params = append(sig.params, param{name: name.Name, typ: typ, variadic: variadic})
			}
		}
	}

	if funcType.Results != nil {
		for _, field := range funcType.Results.List {
			typ := renderTypeExpr(field.Type)
			n := len(field.Names)
			if n == 0 {
				n = 1
			}
			for i := 0; i < n; i++ {
				sig.results = append(sig.results, typ)
			}
		}
	}
	return sig
}

// renderFuncSignature renders "(T1, T2) R" or "(T1) (R1, R2)". Parameter
// names are left out; they are compared separately.
func renderFuncSignature(sig funcSignature) string {
	out := "(" + strings.Join(sig.paramTypes(), ", ") + ")"
	if ret := sig.returnType(); ret != "" {
		out += " " + ret
	}
	return out
}

// renderTypeParams renders a generic type parameter list, or "" when there
// is none.
func renderTypeParams(list *ast.FieldList) string {
	if list == nil || len(list.List) == 0 {
		return ""
	}
	var parts []string
	for _, field := range list.List {
		constraint := renderTypeExpr(field.Type)
		for _, name := range field.Names {
			parts = append(parts, name.Name+" "+constraint)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// extractTypeSignature produces a canonical signature for a type spec.
// Struct types list exported fields; interface types list methods sorted.
func extractTypeSignature(typeSpec *ast.TypeSpec) string {
	prefix := "type " + typeSpec.Name.Name + renderTypeParams(typeSpec.TypeParams) + " "
	if typeSpec.Assign.IsValid() {
		return prefix + "= " + renderTypeExpr(typeSpec.Type)
	}

	switch t := typeSpec.Type.(type) {
	case *ast.StructType:
		return prefix + renderStructSignature(t)
	case *ast.InterfaceType:
		return prefix + renderInterfaceSignature(t)
	}
	return prefix + renderTypeExpr(typeSpec.Type)
}

// renderStructSignature produces "struct{Field1 Type1; Field2 Type2}" with
// exported and embedded fields only.
func renderStructSignature(structType *ast.StructType) string {
	if structType.Fields == nil {
		return "struct{}"
	}

	var fields []string
	for _, field := range structType.Fields.List {
		typ := renderTypeExpr(field.Type)
		if len(field.Names) == 0 {
			fields = append(fields, typ)
			continue
		}
		for _, name := range field.Names {
			if name.IsExported() {
				fields = append(fields, name.Name+" "+typ)
			}
		}
	}

	if len(fields) == 0 {
		return "struct{}"
	}
	return "struct{" + strings.Join(fields, "; ") + "}"
}

// renderInterfaceSignature produces "interface{M1(sig); M2(sig)}" sorted
// alphabetically.
func renderInterfaceSignature(interfaceType *ast.InterfaceType) string {
	if interfaceType.Methods == nil {
		return "interface{}"
	}

	var entries []string
	for _, method := range interfaceType.Methods.List {
		if len(method.Names) == 0 {
			entries = append(entries, renderTypeExpr(method.Type))
			continue
		}
		if funcType, ok := method.Type.(*ast.FuncType); ok {
			entries = append(entries, method.Names[0].Name+renderFuncSignature(extractFuncSignature(funcType)))
		}
	}
	if len(entries) == 0 {
		return "interface{}"
	}
	sort.Strings(entries)
	return "interface{" + strings.Join(entries, "; ") + "}"
}

// valueType returns the declared type of a const or var spec, or "" when
// it is untyped.
func valueType(spec *ast.ValueSpec) string {
	if spec == nil || spec.Type == nil {
		return ""
	}
	return renderTypeExpr(spec.Type)
}
