// Package gomod reads go.mod files.
package gomod

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

func readModFile(dir string) (*modfile.File, string, error) {
	gomodPath := filepath.Join(dir, "go.mod")
	data, err := os.ReadFile(gomodPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, gomodPath, fmt.Errorf("no go.mod found at %s", gomodPath)
		}
		return nil, gomodPath, fmt.Errorf("reading go.mod: %w", err)
	}

	f, err := modfile.Parse(gomodPath, data, nil)
	if err != nil {
		return nil, gomodPath, fmt.Errorf("parsing go.mod: %w", err)
	}
	return f, gomodPath, nil
}

// FindModulePath returns the module path declared by the go.mod in dir.
func FindModulePath(dir string) (string, error) {
	f, gomodPath, err := readModFile(dir)
	if err != nil {
		return "", err
	}
	if f.Module == nil || f.Module.Mod.Path == "" {
		return "", fmt.Errorf("go.mod at %s has no module directive", gomodPath)
	}
	return f.Module.Mod.Path, nil
}

// FindModuleVersion reads the go.mod at repoPath and returns the required
// version of module. A replace directive for the module is logged, since
// the proxy version may then differ from the source actually built.
func FindModuleVersion(repoPath, mod string, logger *slog.Logger) (string, error) {
	f, gomodPath, err := readModFile(repoPath)
	if err != nil {
		return "", err
	}

	for _, rep := range f.Replace {
		if rep.Old.Path == mod && logger != nil {
			logger.Warn("module has a replace directive; proxy version may differ from local source",
				"module", mod, "replacement", rep.New.Path)
			break
		}
	}

	for _, req := range f.Require {
		if req.Mod.Path == mod {
			return req.Mod.Version, nil
		}
	}
	return "", fmt.Errorf("module %s not found in go.mod at %s", mod, gomodPath)
}

// SplitMajor splits a module path into its prefix and major version
// suffix, e.g. "example.com/lib/v2" gives "example.com/lib" and "/v2".
func SplitMajor(path string) (prefix, major string) {
	prefix, major, ok := module.SplitPathVersion(path)
	if !ok {
		return path, ""
	}
	return prefix, major
}
