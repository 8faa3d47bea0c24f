package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/mod/semver"
	"golang.org/x/sync/errgroup"

	"github.com/emenda-labs/apicompat/core/apimodel"
	"github.com/emenda-labs/apicompat/core/changespec"
	"github.com/emenda-labs/apicompat/core/cli"
	"github.com/emenda-labs/apicompat/core/compare"
	"github.com/emenda-labs/apicompat/core/config"
	apierrors "github.com/emenda-labs/apicompat/core/errors"
	golangdriver "github.com/emenda-labs/apicompat/drivers/golang"
	"github.com/emenda-labs/apicompat/drivers/snapshot"
	"github.com/emenda-labs/apicompat/pkg/gomod"
	"github.com/emenda-labs/apicompat/pkg/logging"
	"github.com/emenda-labs/apicompat/pkg/report"
)

// app holds the collaborators the command handlers share.
type app struct {
	stdout io.Writer
	stderr io.Writer
	global *cli.GlobalOptions
	logger *slog.Logger

	loader   *snapshot.Loader
	goDriver *golangdriver.Driver
}

func newApp(stdout, stderr io.Writer, global *cli.GlobalOptions) *app {
	a := &app{stdout: stdout, stderr: stderr, global: global}
	a.setLogger(logging.Discard())
	return a
}

// initLogging builds the logger from the global flags. It runs after flag
// parsing.
func (a *app) initLogging() {
	level := logging.LevelFromVerbosity(a.global.Verbose, a.global.Quiet)
	if strings.EqualFold(a.global.LogFormat, "json") {
		a.setLogger(logging.NewJSON(a.stderr, level))
		return
	}
	a.setLogger(logging.New(a.stderr, level))
}

func (a *app) setLogger(logger *slog.Logger) {
	a.logger = logger
	a.loader = snapshot.NewLoader(logger)
	a.goDriver = golangdriver.NewDriver(golangdriver.WithLogger(logger))
}

// loadConfig reads and validates the configuration. Every validation
// problem is reported, not only the first.
func (a *app) loadConfig(path string) (config.Configuration, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Configuration{}, apierrors.Wrap(err, apierrors.CodeInvalidConfig, "loading configuration").
			WithContext(apierrors.CtxPath, path)
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return config.Configuration{}, apierrors.Wrap(errors.Join(errs...), apierrors.CodeInvalidConfig, "invalid configuration")
	}
	return cfg, nil
}

func (a *app) runCompare(ctx context.Context, opts cli.CompareOptions) error {
	cfg, err := a.loadConfig(opts.Config)
	if err != nil {
		return err
	}

	comparer := compare.New(compare.WithLogger(a.logger))
	results := make([]changespec.ComparisonResult, len(opts.Pairs))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range opts.Pairs {
		g.Go(func() error {
			baseline, err := a.loader.Extract(gctx, p.Baseline)
			if err != nil {
				return err
			}
			target, err := a.loader.Extract(gctx, p.Target)
			if err != nil {
				return err
			}

			r := comparer.Compare(baseline.Elements, target.Elements, cfg)
			r.Baseline = snapshotLabel(baseline, p.Baseline)
			r.Target = snapshotLabel(target, p.Target)
			a.logger.Info("compared snapshots", "baseline", r.Baseline, "target", r.Target,
				"changes", r.TotalChanges(), "breaking", r.BreakingChangesCount())
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return a.finish(opts.ReportOptions, results)
}

func (a *app) runGo(ctx context.Context, opts cli.GoOptions) error {
	cfg, err := a.loadConfig(opts.Config)
	if err != nil {
		return err
	}

	from := opts.From
	if from == "" {
		from, err = gomod.FindModuleVersion(opts.Repo, opts.Module, a.logger)
		if err != nil {
			return err
		}
	}
	if from == opts.To {
		return fmt.Errorf("module %s is already at %s", opts.Module, opts.To)
	}
	if semver.IsValid(from) && semver.IsValid(opts.To) && semver.Compare(opts.To, from) < 0 {
		a.logger.Warn("target version is older than baseline", "baseline", from, "target", opts.To)
	}

	targetModule := majorModulePath(opts.Module, opts.To)

	var baseline, target apimodel.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		baseline, err = a.goDriver.Snapshot(gctx, opts.Module, from)
		return err
	})
	g.Go(func() error {
		var err error
		target, err = a.goDriver.Snapshot(gctx, targetModule, opts.To)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if targetModule != opts.Module {
		a.logger.Info("mapping packages across major version", "from", opts.Module, "to", targetModule)
		cfg = withModuleRename(cfg, baseline.Elements, opts.Module, targetModule)
	}

	r := compare.New(compare.WithLogger(a.logger)).Compare(baseline.Elements, target.Elements, cfg)
	r.Baseline = opts.Module + "@" + from
	r.Target = targetModule + "@" + opts.To

	if r.HasBreakingChanges() && !isMajorBump(from, opts.To) {
		a.logger.Warn("breaking changes without a major version bump",
			"baseline", from, "target", opts.To, "breaking", r.BreakingChangesCount())
	}

	return a.finish(opts.ReportOptions, []changespec.ComparisonResult{r})
}

func (a *app) runExtract(ctx context.Context, opts cli.ExtractOptions) error {
	snap, err := a.goDriver.Extract(ctx, opts.Dir)
	if err != nil {
		return err
	}
	if opts.Output == "" {
		return snapshot.Write(a.stdout, snap, snapshot.FormatJSON)
	}
	if err := snapshot.Save(opts.Output, snap); err != nil {
		return err
	}
	a.logger.Info("wrote snapshot", "path", opts.Output, "elements", len(snap.Elements))
	return nil
}

func (a *app) runConfigValidate(ctx context.Context, opts cli.ConfigValidateOptions) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return apierrors.Wrap(err, apierrors.CodeInvalidConfig, "loading configuration").
			WithContext(apierrors.CtxPath, opts.Config)
	}

	errs := config.Validate(cfg)
	for _, e := range errs {
		fmt.Fprintln(a.stdout, e)
	}
	if len(errs) > 0 {
		return apierrors.New(apierrors.CodeInvalidConfig, fmt.Sprintf("%d configuration error(s)", len(errs)))
	}
	fmt.Fprintln(a.stdout, "configuration is valid")
	return nil
}

// finish writes the report and applies the exit policy.
func (a *app) finish(opts cli.ReportOptions, results []changespec.ComparisonResult) error {
	w := a.stdout
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := report.WriteAll(w, results, opts.Format); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	for _, r := range results {
		if cli.ExitCode(r, opts.FailOnBreaking) == cli.ExitBreaking {
			return cli.ErrBreakingChanges
		}
	}
	return nil
}

func snapshotLabel(snap apimodel.Snapshot, path string) string {
	if snap.Component == "" {
		return path
	}
	if snap.Version == "" {
		return snap.Component
	}
	return snap.Component + "@" + snap.Version
}

// majorModulePath returns the module path that serves version: for v2 and
// later the path carries a /vN suffix.
func majorModulePath(module, version string) string {
	major := semver.Major(version)
	if major == "" || major == "v0" || major == "v1" {
		return module
	}
	prefix, suffix := gomod.SplitMajor(module)
	switch {
	case suffix == "/"+major || suffix == "."+major:
		return module
	case strings.HasPrefix(suffix, "."):
		return prefix + "." + major
	}
	return prefix + "/" + major
}

func isMajorBump(from, to string) bool {
	if !semver.IsValid(from) || !semver.IsValid(to) {
		return true
	}
	fromMajor := semver.Major(from)
	// Anything goes before v1.
	if fromMajor == "v0" {
		return true
	}
	return semver.Major(to) != fromMajor
}

// withModuleRename maps every baseline package under fromModule onto the
// same package under toModule: a type mapping for the package container
// and a namespace mapping for the types it declares. Mappings already in
// cfg win.
func withModuleRename(cfg config.Configuration, baseline []apimodel.Element, fromModule, toModule string) config.Configuration {
	out := cfg.Clone()
	if out.Mappings.TypeMappings == nil {
		out.Mappings.TypeMappings = map[string]string{}
	}
	if out.Mappings.NamespaceMappings == nil {
		out.Mappings.NamespaceMappings = map[string][]string{}
	}
	for _, e := range baseline {
		if e.Kind != apimodel.KindPackage {
			continue
		}
		rest, ok := strings.CutPrefix(e.FullName, fromModule)
		if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
			continue
		}
		target := toModule + rest
		if _, set := out.Mappings.TypeMappings[e.FullName]; !set {
			out.Mappings.TypeMappings[e.FullName] = target
		}
		if _, set := out.Mappings.NamespaceMappings[e.FullName]; !set {
			out.Mappings.NamespaceMappings[e.FullName] = []string{target}
		}
	}
	return out
}
