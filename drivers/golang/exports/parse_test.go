package exports

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"

	"github.com/emenda-labs/apicompat/core/apimodel"
)

const testModule = "github.com/acme/testmod"

func testdataDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to determine test file path")
	}
	return filepath.Join(filepath.Dir(file), "testdata")
}

func parseFixture(t *testing.T, name string) map[string]apimodel.Element {
	t.Helper()
	snap, err := ParseExports(context.Background(), filepath.Join(testdataDir(t), name), testModule, nil)
	if err != nil {
		t.Fatalf("ParseExports: %v", err)
	}
	if snap.Component != testModule {
		t.Errorf("component = %q, want %q", snap.Component, testModule)
	}

	byName := make(map[string]apimodel.Element)
	for _, e := range snap.Elements {
		if _, dup := byName[e.FullName]; dup {
			t.Errorf("duplicate element %s", e.FullName)
		}
		byName[e.FullName] = e
	}
	return byName
}

func TestParseExports_OldFixture(t *testing.T) {
	byName := parseFixture(t, "old")

	expected := []struct {
		key       string
		kind      apimodel.ElementKind
		declaring string
	}{
		{"github.com/acme/testmod", apimodel.KindPackage, ""},
		{"github.com/acme/testmod/sub", apimodel.KindPackage, ""},
		{"github.com/acme/testmod.DoWork", apimodel.KindMethod, "github.com/acme/testmod"},
		{"github.com/acme/testmod.SimpleFunc", apimodel.KindMethod, "github.com/acme/testmod"},
		{"github.com/acme/testmod.Variadic", apimodel.KindMethod, "github.com/acme/testmod"},
		{"github.com/acme/testmod.Config", apimodel.KindStruct, ""},
		{"github.com/acme/testmod.Handler", apimodel.KindInterface, ""},
		{"github.com/acme/testmod.Handler.Handle", apimodel.KindMethod, "github.com/acme/testmod.Handler"},
		{"github.com/acme/testmod.Token", apimodel.KindClass, ""},
		{"github.com/acme/testmod.Config.Validate", apimodel.KindMethod, "github.com/acme/testmod.Config"},
		{"github.com/acme/testmod.Config.Host", apimodel.KindField, "github.com/acme/testmod.Config"},
		{"github.com/acme/testmod.MaxRetries", apimodel.KindField, "github.com/acme/testmod"},
		{"github.com/acme/testmod.ErrNotFound", apimodel.KindField, "github.com/acme/testmod"},
		{"github.com/acme/testmod/sub.SubFunc", apimodel.KindMethod, "github.com/acme/testmod/sub"},
		{"github.com/acme/testmod/sub.SubType", apimodel.KindStruct, ""},
		{"github.com/acme/testmod/sub.SubType.Value", apimodel.KindField, "github.com/acme/testmod/sub.SubType"},
	}
	for _, exp := range expected {
		e, ok := byName[exp.key]
		if !ok {
			t.Errorf("missing element %s", exp.key)
			continue
		}
		if e.Kind != exp.kind {
			t.Errorf("%s kind = %q, want %q", exp.key, e.Kind, exp.kind)
		}
		if e.DeclaringType != exp.declaring {
			t.Errorf("%s declaring type = %q, want %q", exp.key, e.DeclaringType, exp.declaring)
		}
		if e.Accessibility != apimodel.AccessPublic {
			t.Errorf("%s accessibility = %q, want public", exp.key, e.Accessibility)
		}
	}

	unwanted := []string{
		"github.com/acme/testmod.unexportedType",
		"github.com/acme/testmod.unexportedType.Hidden",
		"github.com/acme/testmod.Config.secret",
		"github.com/acme/testmod/internal.InternalFunc",
		"github.com/acme/testmod/internal",
		"github.com/acme/testmod/_examples.ExampleFunc",
	}
	for _, key := range unwanted {
		if _, ok := byName[key]; ok {
			t.Errorf("unwanted element present: %s", key)
		}
	}
}

func TestParseExports_Signatures(t *testing.T) {
	byName := parseFixture(t, "old")

	tests := map[string]string{
		"github.com/acme/testmod.Variadic":        "func Variadic(...string) int",
		"github.com/acme/testmod.Config.Validate": "func (*Config) Validate() error",
		"github.com/acme/testmod.Handler.Close":   "Close() error",
		"github.com/acme/testmod.Config.Port":     "Port int",
		"github.com/acme/testmod.MaxRetries":      "const MaxRetries int",
		"github.com/acme/testmod.UntypedConst":    "const UntypedConst",
		"github.com/acme/testmod.ErrNotFound":     "var ErrNotFound error",
		"github.com/acme/testmod.Token":           "type Token string",
	}
	for key, want := range tests {
		if got := byName[key].Signature; got != want {
			t.Errorf("%s signature = %q, want %q", key, got, want)
		}
	}

	doWork := byName["github.com/acme/testmod.DoWork"]
	if got := doWork.ParameterNames(); !slices.Equal(got, []string{"ctx", "name"}) {
		t.Errorf("DoWork parameter names = %v", got)
	}
	if doWork.ReturnType != "(string, error)" {
		t.Errorf("DoWork return type = %q", doWork.ReturnType)
	}
}

func TestParseExports_Attributes(t *testing.T) {
	byName := parseFixture(t, "old")

	if !byName["github.com/acme/testmod.Legacy"].HasAttribute("Obsolete") {
		t.Error("Legacy should be marked obsolete")
	}
	if byName["github.com/acme/testmod.Connect"].HasAttribute("Obsolete") {
		t.Error("Connect should not be marked obsolete")
	}
	if !byName["github.com/acme/testmod.Token.String"].HasAttribute("CompilerGenerated") {
		t.Error("Token.String comes from a generated file")
	}
}

func TestParseExports_NewFixture(t *testing.T) {
	byName := parseFixture(t, "new")

	if _, ok := byName["github.com/acme/testmod/cmd/tool.MainFunc"]; ok {
		t.Error("package main symbol should be skipped")
	}

	e, ok := byName["github.com/acme/testmod.ComputeHash"]
	if !ok {
		t.Fatal("missing ComputeHash in new")
	}
	if e.Kind != apimodel.KindMethod {
		t.Errorf("ComputeHash kind = %q, want method", e.Kind)
	}

	if _, ok := byName["github.com/acme/testmod.Config"]; ok {
		t.Error("Config should not exist in new (renamed to Settings)")
	}
	if _, ok := byName["github.com/acme/testmod.Option"]; !ok {
		t.Error("Option should exist in new")
	} else if byName["github.com/acme/testmod.Option"].Kind != apimodel.KindDelegate {
		t.Error("func types are delegates")
	}

	connect := byName["github.com/acme/testmod.Connect"]
	if len(connect.Parameters) != 2 || !connect.Parameters[1].IsOptional {
		t.Errorf("Connect parameters = %+v, want trailing optional variadic", connect.Parameters)
	}
}

func TestParseExports_EmptyModule(t *testing.T) {
	dir := t.TempDir()
	if err := writeFile(filepath.Join(dir, "go.mod"), "module github.com/empty/mod\n\ngo 1.21\n"); err != nil {
		t.Fatal(err)
	}

	snap, err := ParseExports(context.Background(), dir, "github.com/empty/mod", nil)
	if err != nil {
		t.Fatalf("ParseExports: %v", err)
	}
	if len(snap.Elements) != 0 {
		t.Errorf("expected 0 elements, got %d", len(snap.Elements))
	}
}

func TestParseExports_BrokenFileIsLogged(t *testing.T) {
	dir := t.TempDir()
	if err := writeFile(filepath.Join(dir, "go.mod"), "module example.com/broken\n"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "bad.go"), "package broken\nfunc Broken( {"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "good.go"), "package broken\nfunc Good() {}\n"); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	snap, err := ParseExports(context.Background(), dir, "example.com/broken", logger)
	if err != nil {
		t.Fatalf("ParseExports: %v", err)
	}
	if len(snap.Elements) != 2 {
		t.Errorf("got %d elements, want package and Good", len(snap.Elements))
	}
	if !bytes.Contains(buf.Bytes(), []byte("skipping unparsable file")) {
		t.Errorf("missing warning in log output: %s", buf.String())
	}
}

func TestParseExports_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ParseExports(ctx, filepath.Join(testdataDir(t), "old"), testModule, nil); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestFindSourceRoot_DirectGoMod(t *testing.T) {
	dir := t.TempDir()
	if err := writeFile(filepath.Join(dir, "go.mod"), "module test\n"); err != nil {
		t.Fatal(err)
	}
	root, err := FindSourceRoot(dir)
	if err != nil {
		t.Fatalf("FindSourceRoot: %v", err)
	}
	if root != dir {
		t.Errorf("root = %q, want %q", root, dir)
	}
}

func TestFindSourceRoot_NestedGoMod(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "module@v1.0.0")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(nested, "go.mod"), "module test\n"); err != nil {
		t.Fatal(err)
	}
	root, err := FindSourceRoot(dir)
	if err != nil {
		t.Fatalf("FindSourceRoot: %v", err)
	}
	if root != nested {
		t.Errorf("root = %q, want %q", root, nested)
	}
}

func TestFindSourceRoot_NoGoMod(t *testing.T) {
	if _, err := FindSourceRoot(t.TempDir()); err == nil {
		t.Error("expected error for missing go.mod")
	}
}

func TestComputePackagePath(t *testing.T) {
	tests := []struct {
		sourceRoot string
		filePath   string
		module     string
		want       string
	}{
		{"/src", "/src/foo.go", "github.com/acme/mod", "github.com/acme/mod"},
		{"/src", "/src/sub/bar.go", "github.com/acme/mod", "github.com/acme/mod/sub"},
		{"/src", "/src/a/b/c.go", "github.com/acme/mod", "github.com/acme/mod/a/b"},
	}
	for _, tt := range tests {
		got := computePackagePath(tt.sourceRoot, tt.filePath, tt.module)
		if got != tt.want {
			t.Errorf("computePackagePath(%q, %q, %q) = %q, want %q",
				tt.sourceRoot, tt.filePath, tt.module, got, tt.want)
		}
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
