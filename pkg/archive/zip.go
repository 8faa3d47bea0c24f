// Package archive unpacks module zip files fetched from the proxy.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Limits guarding against zip bombs.
const (
	MaxFileSize  = 100 * 1024 * 1024  // per file
	MaxTotalSize = 1024 * 1024 * 1024 // whole archive
	MaxFileCount = 50000
)

// ExtractZip unpacks a zip archive into a new temp directory and returns it
// with a cleanup function that removes it. Entries escaping the directory,
// symlinks and oversized archives are rejected.
func ExtractZip(data []byte, prefix string) (dir string, cleanup func(), err error) {
	tmpDir, err := os.MkdirTemp("", "apicompat-"+sanitize(prefix)+"-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp directory: %w", err)
	}
	cleanupFn := func() { os.RemoveAll(tmpDir) }

	if err := extractInto(tmpDir, data); err != nil {
		cleanupFn()
		return "", nil, err
	}
	return tmpDir, cleanupFn, nil
}

func extractInto(dir string, data []byte) error {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("reading zip archive: %w", err)
	}
	if len(reader.File) > MaxFileCount {
		return fmt.Errorf("zip archive contains %d files, exceeds maximum of %d", len(reader.File), MaxFileCount)
	}

	base, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving base path: %w", err)
	}

	var total int64
	for _, file := range reader.File {
		if file.Mode()&os.ModeSymlink != 0 {
			continue
		}

		target, err := filepath.Abs(filepath.Join(dir, file.Name))
		if err != nil {
			return fmt.Errorf("resolving path %s: %w", file.Name, err)
		}
		if target != base && !strings.HasPrefix(target, base+string(os.PathSeparator)) {
			return fmt.Errorf("zip entry attempts path traversal: %s", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating directory %s: %w", file.Name, err)
			}
			continue
		}

		n, err := extractFile(file, target)
		if err != nil {
			return err
		}
		total += n
		if total > MaxTotalSize {
			return fmt.Errorf("total extracted size exceeds maximum of %d bytes", MaxTotalSize)
		}
	}
	return nil
}

func extractFile(file *zip.File, target string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("creating parent directory for %s: %w", file.Name, err)
	}

	rc, err := file.Open()
	if err != nil {
		return 0, fmt.Errorf("opening zip entry %s: %w", file.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return 0, fmt.Errorf("creating file %s: %w", file.Name, err)
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(rc, MaxFileSize+1))
	if err != nil {
		return 0, fmt.Errorf("extracting %s: %w", file.Name, err)
	}
	if n > MaxFileSize {
		return 0, fmt.Errorf("file %s exceeds maximum size of %d bytes", file.Name, MaxFileSize)
	}
	return n, nil
}

// sanitize keeps temp directory names free of path separators.
func sanitize(prefix string) string {
	return strings.NewReplacer("/", "_", string(os.PathSeparator), "_").Replace(prefix)
}
