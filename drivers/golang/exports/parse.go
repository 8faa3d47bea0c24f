// Package exports extracts the exported API surface of a Go module as
// apimodel elements.
//
// Each package becomes a package container holding its funcs, consts and
// vars. Named types become containers of their fields and methods. Full
// names are qualified by import path, e.g. "github.com/acme/foo.Client.Do".
package exports

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/emenda-labs/apicompat/core/apimodel"
)

// maxRootDepth bounds the go.mod search below an unpacked module zip.
const maxRootDepth = 8

const (
	attrDeprecated = "Obsolete"
	attrGenerated  = "CompilerGenerated"
)

// collector accumulates elements for one module walk.
type collector struct {
	elements []apimodel.Element
	packages map[string]bool
}

// ParseExports walks the Go module source at rootDir and collects every
// exported element. module is the module import path. Files that fail to
// parse are skipped with a warning on logger, which may be nil.
func ParseExports(ctx context.Context, rootDir, module string, logger *slog.Logger) (apimodel.Snapshot, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	sourceRoot, err := FindSourceRoot(rootDir)
	if err != nil {
		return apimodel.Snapshot{}, fmt.Errorf("finding source root in %s: %w", rootDir, err)
	}

	fset := token.NewFileSet()
	c := &collector{packages: make(map[string]bool)}

	walkErr := filepath.WalkDir(sourceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Skip symlinks to prevent symlink-based path escapes.
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		if d.IsDir() {
			base := d.Name()
			if path != sourceRoot && (base == "internal" || base == "testdata" || base == "vendor" ||
				strings.HasPrefix(base, "_") || strings.HasPrefix(base, ".")) {
				return fs.SkipDir
			}
			// Nested modules are versioned separately.
			if path != sourceRoot && hasGoMod(path) {
				return fs.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		file, parseErr := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if parseErr != nil {
			logger.Warn("skipping unparsable file", "path", path, "error", parseErr)
			return nil
		}
		if file.Name.Name == "main" {
			return nil
		}

		c.collectFile(file, computePackagePath(sourceRoot, path, module))
		return nil
	})
	if walkErr != nil {
		return apimodel.Snapshot{}, fmt.Errorf("walking source at %s: %w", sourceRoot, walkErr)
	}

	logger.Debug("parsed exports", "module", module, "elements", len(c.elements))
	return apimodel.Snapshot{Component: module, Elements: c.elements}, nil
}

func (c *collector) collectFile(file *ast.File, pkgPath string) {
	var fileAttrs []string
	if ast.IsGenerated(file) {
		fileAttrs = []string{attrGenerated}
	}

	if !c.packages[pkgPath] {
		c.packages[pkgPath] = true
		c.elements = append(c.elements, apimodel.Element{
			Name:          file.Name.Name,
			FullName:      pkgPath,
			Kind:          apimodel.KindPackage,
			Accessibility: apimodel.AccessPublic,
			Signature:     "package " + file.Name.Name,
			Namespace:     pkgPath,
		})
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			c.collectFunc(d, pkgPath, fileAttrs)
		case *ast.GenDecl:
			switch d.Tok {
			case token.TYPE:
				c.collectTypes(d, pkgPath, fileAttrs)
			case token.CONST, token.VAR:
				c.collectValues(d, pkgPath, fileAttrs)
			}
		}
	}
}

// collectFunc adds a function, or a method on an exported receiver.
func (c *collector) collectFunc(funcDecl *ast.FuncDecl, pkgPath string, fileAttrs []string) {
	if funcDecl.Name == nil || !funcDecl.Name.IsExported() {
		return
	}

	name := funcDecl.Name.Name
	sig := extractFuncSignature(funcDecl.Type)
	elem := apimodel.Element{
		Name:          name,
		Kind:          apimodel.KindMethod,
		Accessibility: apimodel.AccessPublic,
		Namespace:     pkgPath,
		Parameters:    sig.parameters(),
		ReturnType:    sig.returnType(),
		Attributes:    attributes(fileAttrs, funcDecl.Doc),
	}

	if funcDecl.Recv != nil {
		recvName := receiverTypeName(funcDecl.Recv)
		if recvName == "" || !ast.IsExported(recvName) {
			return
		}
		elem.DeclaringType = apimodel.JoinFullName(pkgPath, recvName)
		elem.Signature = "func (" + receiverExpr(funcDecl.Recv) + ") " + name + renderFuncSignature(sig)
	} else {
		elem.DeclaringType = pkgPath
		elem.Signature = "func " + name + renderTypeParams(funcDecl.Type.TypeParams) + renderFuncSignature(sig)
	}
	elem.FullName = elem.DeclaringType + "." + name

	c.elements = append(c.elements, elem)
}

// collectTypes adds exported types together with their exported fields and,
// for interfaces, their method set.
func (c *collector) collectTypes(genDecl *ast.GenDecl, pkgPath string, fileAttrs []string) {
	for _, spec := range genDecl.Specs {
		typeSpec, ok := spec.(*ast.TypeSpec)
		if !ok || typeSpec.Name == nil || !typeSpec.Name.IsExported() {
			continue
		}

		doc := typeSpec.Doc
		if doc == nil && len(genDecl.Specs) == 1 {
			doc = genDecl.Doc
		}
		typeName := typeSpec.Name.Name
		fullName := apimodel.JoinFullName(pkgPath, typeName)
		attrs := attributes(fileAttrs, doc)

		elem := apimodel.Element{
			Name:          typeName,
			FullName:      fullName,
			Kind:          typeKind(typeSpec),
			Accessibility: apimodel.AccessPublic,
			Signature:     extractTypeSignature(typeSpec),
			Namespace:     pkgPath,
			Attributes:    attrs,
		}

		switch t := typeSpec.Type.(type) {
		case *ast.StructType:
			c.elements = append(c.elements, elem)
			c.collectFields(t, fullName, pkgPath, attrs)
		case *ast.InterfaceType:
			elem.Interfaces = embeddedInterfaces(t)
			c.elements = append(c.elements, elem)
			c.collectInterfaceMethods(t, fullName, pkgPath, attrs)
		default:
			c.elements = append(c.elements, elem)
		}
	}
}

func (c *collector) collectFields(structType *ast.StructType, typeName, pkgPath string, typeAttrs []string) {
	if structType.Fields == nil {
		return
	}
	for _, field := range structType.Fields.List {
		typ := renderTypeExpr(field.Type)
		names := make([]string, 0, len(field.Names))
		if len(field.Names) == 0 {
			// Embedded field: named after its type.
			names = append(names, baseTypeName(field.Type))
		}
		for _, n := range field.Names {
			names = append(names, n.Name)
		}

		for _, name := range names {
			if name == "" || !ast.IsExported(name) {
				continue
			}
			c.elements = append(c.elements, apimodel.Element{
				Name:          name,
				FullName:      typeName + "." + name,
				Kind:          apimodel.KindField,
				Accessibility: apimodel.AccessPublic,
				Signature:     name + " " + typ,
				DeclaringType: typeName,
				Namespace:     pkgPath,
				ReturnType:    typ,
				Attributes:    attributes(typeAttrs, field.Doc),
			})
		}
	}
}

func (c *collector) collectInterfaceMethods(iface *ast.InterfaceType, typeName, pkgPath string, typeAttrs []string) {
	if iface.Methods == nil {
		return
	}
	for _, method := range iface.Methods.List {
		funcType, ok := method.Type.(*ast.FuncType)
		if !ok || len(method.Names) == 0 || !method.Names[0].IsExported() {
			continue
		}
		name := method.Names[0].Name
		sig := extractFuncSignature(funcType)
		c.elements = append(c.elements, apimodel.Element{
			Name:          name,
			FullName:      typeName + "." + name,
			Kind:          apimodel.KindMethod,
			Accessibility: apimodel.AccessPublic,
			Signature:     name + renderFuncSignature(sig),
			DeclaringType: typeName,
			Namespace:     pkgPath,
			Parameters:    sig.parameters(),
			ReturnType:    sig.returnType(),
			Attributes:    attributes(typeAttrs, method.Doc),
		})
	}
}

// collectValues adds exported consts and vars as package fields.
func (c *collector) collectValues(genDecl *ast.GenDecl, pkgPath string, fileAttrs []string) {
	keyword := genDecl.Tok.String()
	for _, spec := range genDecl.Specs {
		valSpec, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		doc := valSpec.Doc
		if doc == nil && len(genDecl.Specs) == 1 {
			doc = genDecl.Doc
		}
		typ := valueType(valSpec)
		for _, name := range valSpec.Names {
			if !name.IsExported() {
				continue
			}
			sig := keyword + " " + name.Name
			if typ != "" {
				sig += " " + typ
			}
			c.elements = append(c.elements, apimodel.Element{
				Name:          name.Name,
				FullName:      pkgPath + "." + name.Name,
				Kind:          apimodel.KindField,
				Accessibility: apimodel.AccessPublic,
				Signature:     sig,
				DeclaringType: pkgPath,
				Namespace:     pkgPath,
				ReturnType:    typ,
				Attributes:    attributes(fileAttrs, doc),
			})
		}
	}
}

func typeKind(typeSpec *ast.TypeSpec) apimodel.ElementKind {
	switch typeSpec.Type.(type) {
	case *ast.StructType:
		return apimodel.KindStruct
	case *ast.InterfaceType:
		return apimodel.KindInterface
	case *ast.FuncType:
		return apimodel.KindDelegate
	}
	return apimodel.KindClass
}

func embeddedInterfaces(iface *ast.InterfaceType) []string {
	if iface.Methods == nil {
		return nil
	}
	var out []string
	for _, m := range iface.Methods.List {
		if len(m.Names) == 0 {
			out = append(out, renderTypeExpr(m.Type))
		}
	}
	return out
}

// attributes merges inherited attributes with those implied by a doc
// comment. A "Deprecated:" paragraph marks the element obsolete.
func attributes(inherited []string, doc *ast.CommentGroup) []string {
	out := append([]string(nil), inherited...)
	if isDeprecated(doc) {
		for _, a := range out {
			if a == attrDeprecated {
				return out
			}
		}
		out = append(out, attrDeprecated)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func isDeprecated(doc *ast.CommentGroup) bool {
	if doc == nil {
		return false
	}
	for _, para := range strings.Split(doc.Text(), "\n\n") {
		if strings.HasPrefix(strings.TrimSpace(para), "Deprecated:") {
			return true
		}
	}
	return false
}

// computePackagePath derives the full Go import path for the package
// containing the file at filePath, relative to the module source root.
func computePackagePath(sourceRoot, filePath, module string) string {
	dir := filepath.Dir(filePath)
	relDir, err := filepath.Rel(sourceRoot, dir)
	if err != nil || relDir == "." || relDir == "" {
		return module
	}
	return module + "/" + filepath.ToSlash(relDir)
}

// baseTypeName extracts the base type name from an AST expression,
// stripping pointers, type parameters (generics), and package selectors.
// Examples: *Client -> "Client", Foo[T] -> "Foo", *Bar[T, U] -> "Bar"
func baseTypeName(expr ast.Expr) string {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	switch idx := expr.(type) {
	case *ast.IndexExpr:
		expr = idx.X
	case *ast.IndexListExpr:
		expr = idx.X
	}

	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return e.Sel.Name
	}
	return ""
}

// receiverTypeName extracts the base type name from a method receiver.
func receiverTypeName(recv *ast.FieldList) string {
	if recv == nil || len(recv.List) == 0 {
		return ""
	}
	return baseTypeName(recv.List[0].Type)
}

// receiverExpr renders the receiver type, keeping the pointer so that a
// switch between value and pointer receivers shows up as a signature change.
func receiverExpr(recv *ast.FieldList) string {
	if recv == nil || len(recv.List) == 0 {
		return ""
	}
	return renderTypeExpr(recv.List[0].Type)
}

// FindSourceRoot walks from dir looking for go.mod to find the module source root.
// The Go proxy zip extracts to tmpDir/module@version/, so go.mod may be nested.
func FindSourceRoot(dir string) (string, error) {
	if hasGoMod(dir) {
		return dir, nil
	}

	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		// The zip nests one directory per module path element, so
		// example.com/lib/v2@v2.0.0 sits three levels down.
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return nil
		}
		if strings.Count(filepath.ToSlash(rel), "/") > maxRootDepth {
			return fs.SkipDir
		}

		if hasGoMod(path) {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("searching for go.mod: %w", err)
	}
	if found == "" {
		return "", fmt.Errorf("no go.mod found under %s", dir)
	}
	return found, nil
}

func hasGoMod(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "go.mod"))
	return err == nil && !info.IsDir()
}
