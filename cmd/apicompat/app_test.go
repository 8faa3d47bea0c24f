package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emenda-labs/apicompat/core/apimodel"
	"github.com/emenda-labs/apicompat/core/changespec"
	"github.com/emenda-labs/apicompat/core/cli"
	"github.com/emenda-labs/apicompat/core/config"
	apierrors "github.com/emenda-labs/apicompat/core/errors"
	golangdriver "github.com/emenda-labs/apicompat/drivers/golang"
	"github.com/emenda-labs/apicompat/drivers/snapshot"
	"github.com/emenda-labs/apicompat/pkg/goproxy"
	"github.com/emenda-labs/apicompat/pkg/report"
)

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	var stdout bytes.Buffer
	a := newApp(&stdout, &bytes.Buffer{}, &cli.GlobalOptions{})
	return a, &stdout
}

func writeSnapshot(t *testing.T, dir, name string, elems ...apimodel.Element) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, snapshot.Save(path, apimodel.Snapshot{Component: "Acme", Elements: elems}))
	return path
}

func class(name string) apimodel.Element {
	return apimodel.Element{Name: name, FullName: "Acme." + name, Kind: apimodel.KindClass}
}

func TestRunCompare(t *testing.T) {
	dir := t.TempDir()
	v1 := writeSnapshot(t, dir, "v1.json", class("Foo"), class("Bar"))
	v2 := writeSnapshot(t, dir, "v2.yaml", class("Foo"), class("Baz"))
	v3 := writeSnapshot(t, dir, "v3.json", class("Foo"), class("Bar"), class("Baz"))

	a, stdout := newTestApp(t)
	opts := cli.CompareOptions{
		ReportOptions: cli.ReportOptions{Format: report.FormatJSON},
		Pairs:         []cli.Pair{{Baseline: v1, Target: v2}, {Baseline: v1, Target: v3}},
	}
	require.NoError(t, a.runCompare(context.Background(), opts))

	var results []changespec.ComparisonResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &results))
	require.Len(t, results, 2)
	assert.True(t, results[0].Summary.HasBreakingChanges)
	assert.Equal(t, 1, results[0].Summary.Removals)
	assert.False(t, results[1].Summary.HasBreakingChanges)
	assert.Equal(t, "Acme", results[0].Baseline)

	opts.FailOnBreaking = true
	err := a.runCompare(context.Background(), opts)
	assert.Equal(t, cli.ExitBreaking, cli.ExitCodeOf(err))

	opts.Pairs = opts.Pairs[1:]
	assert.NoError(t, a.runCompare(context.Background(), opts))
}

func TestRunCompare_ReportFile(t *testing.T) {
	dir := t.TempDir()
	v1 := writeSnapshot(t, dir, "v1.json", class("Foo"))
	v2 := writeSnapshot(t, dir, "v2.json", class("Foo"), class("Bar"))
	out := filepath.Join(dir, "report.md")

	a, stdout := newTestApp(t)
	err := a.runCompare(context.Background(), cli.CompareOptions{
		ReportOptions: cli.ReportOptions{Format: report.FormatMarkdown, Output: out},
		Pairs:         []cli.Pair{{Baseline: v1, Target: v2}},
	})
	require.NoError(t, err)
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Additions")
}

func TestRunCompare_Errors(t *testing.T) {
	dir := t.TempDir()
	v1 := writeSnapshot(t, dir, "v1.json", class("Foo"))

	badConfig := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badConfig, []byte(`{"mappings":{"typeMappings":{"A":"A","":"B"}}}`), 0o644))

	a, _ := newTestApp(t)
	err := a.runCompare(context.Background(), cli.CompareOptions{
		ReportOptions: cli.ReportOptions{Config: badConfig, Format: report.FormatConsole},
		Pairs:         []cli.Pair{{Baseline: v1, Target: v1}},
	})
	assert.True(t, apierrors.IsCode(err, apierrors.CodeInvalidConfig))
	assert.Equal(t, cli.ExitError, cli.ExitCodeOf(err))

	err = a.runCompare(context.Background(), cli.CompareOptions{
		ReportOptions: cli.ReportOptions{Format: report.FormatConsole},
		Pairs:         []cli.Pair{{Baseline: v1, Target: filepath.Join(dir, "missing.json")}},
	})
	assert.True(t, apierrors.IsCode(err, apierrors.CodeInvalidSnapshot))
}

func TestRunConfigValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, config.Default().Save(good))
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"exclusions":{"excludedTypePatterns":[" "]},"mappings":{"typeMappings":{"A":"A"}}}`), 0o644))

	a, stdout := newTestApp(t)
	require.NoError(t, a.runConfigValidate(context.Background(), cli.ConfigValidateOptions{Config: good}))
	assert.Contains(t, stdout.String(), "configuration is valid")

	stdout.Reset()
	err := a.runConfigValidate(context.Background(), cli.ConfigValidateOptions{Config: bad})
	assert.True(t, apierrors.IsCode(err, apierrors.CodeInvalidConfig))
	assert.Contains(t, stdout.String(), "excludedTypePatterns[0] must not be empty")
	assert.ErrorContains(t, err, "2 configuration error(s)")
}

func TestRunExtract(t *testing.T) {
	a, stdout := newTestApp(t)
	dir := filepath.Join("..", "..", "drivers", "golang", "exports", "testdata", "old")

	require.NoError(t, a.runExtract(context.Background(), cli.ExtractOptions{Dir: dir}))
	var snap apimodel.Snapshot
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &snap))
	assert.Equal(t, "github.com/acme/testmod", snap.Component)
	assert.NotEmpty(t, snap.Elements)

	out := filepath.Join(t.TempDir(), "api.yaml")
	require.NoError(t, a.runExtract(context.Background(), cli.ExtractOptions{Dir: dir, Output: out}))
	loaded, err := snapshot.NewLoader(nil).Extract(context.Background(), out)
	require.NoError(t, err)
	assert.Len(t, loaded.Elements, len(snap.Elements))
}

func moduleZip(t *testing.T, prefix string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		f, err := w.Create(prefix + "/" + name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestRunGo_MajorVersion(t *testing.T) {
	zips := map[string][]byte{
		"/example.com/lib/@v/v1.0.0.zip": moduleZip(t, "example.com/lib@v1.0.0", map[string]string{
			"go.mod":     "module example.com/lib\n",
			"lib.go":     "package lib\n\nfunc A() {}\n\nfunc B() {}\n",
			"sub/sub.go": "package sub\n\ntype T struct{ X int }\n",
		}),
		"/example.com/lib/v2/@v/v2.0.0.zip": moduleZip(t, "example.com/lib/v2@v2.0.0", map[string]string{
			"go.mod":     "module example.com/lib/v2\n",
			"lib.go":     "package lib\n\nfunc A() {}\n",
			"sub/sub.go": "package sub\n\ntype T struct{ X int }\n",
		}),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := zips[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	a, stdout := newTestApp(t)
	a.goDriver = golangdriver.NewDriver(golangdriver.WithProxyClient(goproxy.NewClient(goproxy.WithProxy(srv.URL))))

	err := a.runGo(context.Background(), cli.GoOptions{
		ReportOptions: cli.ReportOptions{Format: report.FormatJSON, FailOnBreaking: true},
		Module:        "example.com/lib",
		From:          "v1.0.0",
		To:            "v2.0.0",
	})
	assert.ErrorIs(t, err, cli.ErrBreakingChanges)

	var r changespec.ComparisonResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &r))
	assert.Equal(t, "example.com/lib@v1.0.0", r.Baseline)
	assert.Equal(t, "example.com/lib/v2@v2.0.0", r.Target)
	require.Len(t, r.Removals, 1)
	assert.Equal(t, "example.com/lib.B", r.Removals[0].FullName)
	assert.Empty(t, r.Additions)
}

func TestRunGo_SameVersion(t *testing.T) {
	a, _ := newTestApp(t)
	err := a.runGo(context.Background(), cli.GoOptions{Module: "example.com/lib", From: "v1.0.0", To: "v1.0.0"})
	assert.ErrorContains(t, err, "already at")
}

func TestMajorModulePath(t *testing.T) {
	tests := []struct{ module, version, want string }{
		{"example.com/lib", "v1.4.0", "example.com/lib"},
		{"example.com/lib", "v0.3.0", "example.com/lib"},
		{"example.com/lib", "v2.0.0", "example.com/lib/v2"},
		{"example.com/lib/v2", "v3.1.0", "example.com/lib/v3"},
		{"example.com/lib/v3", "v3.1.0", "example.com/lib/v3"},
		{"gopkg.in/yaml.v2", "v3.0.1", "gopkg.in/yaml.v3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, majorModulePath(tt.module, tt.version), tt.module+"@"+tt.version)
	}
}

func TestIsMajorBump(t *testing.T) {
	assert.True(t, isMajorBump("v1.2.0", "v2.0.0"))
	assert.False(t, isMajorBump("v1.2.0", "v1.3.0"))
	assert.True(t, isMajorBump("v0.2.0", "v0.3.0"))
	assert.True(t, isMajorBump("latest", "v1.0.0"))
}

func TestWithModuleRename(t *testing.T) {
	cfg := config.Default()
	cfg.Mappings.TypeMappings["example.com/lib/sub"] = "example.com/lib/v2/other"

	baseline := []apimodel.Element{
		{FullName: "example.com/lib", Kind: apimodel.KindPackage},
		{FullName: "example.com/lib/sub", Kind: apimodel.KindPackage},
		{FullName: "example.com/library", Kind: apimodel.KindPackage},
		{FullName: "example.com/lib.T", Kind: apimodel.KindStruct},
	}
	out := withModuleRename(cfg, baseline, "example.com/lib", "example.com/lib/v2")

	assert.Equal(t, "example.com/lib/v2", out.Mappings.TypeMappings["example.com/lib"])
	assert.Equal(t, "example.com/lib/v2/other", out.Mappings.TypeMappings["example.com/lib/sub"])
	assert.Equal(t, []string{"example.com/lib/v2/sub"}, out.Mappings.NamespaceMappings["example.com/lib/sub"])
	assert.NotContains(t, out.Mappings.TypeMappings, "example.com/library")
	assert.Len(t, cfg.Mappings.TypeMappings, 1, "input configuration is not modified")
}
