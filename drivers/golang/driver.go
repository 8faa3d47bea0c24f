// Package golang extracts the exported API of Go modules, either from a
// local source tree or from module versions fetched through the proxy.
package golang

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emenda-labs/apicompat/core/apimodel"
	"github.com/emenda-labs/apicompat/core/driver"
	apierrors "github.com/emenda-labs/apicompat/core/errors"
	"github.com/emenda-labs/apicompat/drivers/golang/exports"
	"github.com/emenda-labs/apicompat/pkg/archive"
	"github.com/emenda-labs/apicompat/pkg/gomod"
	"github.com/emenda-labs/apicompat/pkg/goproxy"
	"github.com/emenda-labs/apicompat/pkg/logging"
)

var (
	_ driver.Extractor     = (*Driver)(nil)
	_ driver.SourceFetcher = (*Driver)(nil)
)

// Driver implements driver.Extractor and driver.SourceFetcher for Go modules.
type Driver struct {
	proxyClient *goproxy.Client
	logger      *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithProxyClient replaces the default proxy client.
func WithProxyClient(c *goproxy.Client) Option {
	return func(d *Driver) {
		d.proxyClient = c
	}
}

// WithLogger sets the logger for fetch and parse diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDriver creates a Driver. Without WithProxyClient it uses a
// goproxy.Client configured from GOPROXY.
func NewDriver(opts ...Option) *Driver {
	d := &Driver{logger: logging.Discard()}
	for _, opt := range opts {
		opt(d)
	}
	if d.proxyClient == nil {
		d.proxyClient = goproxy.NewClient(goproxy.WithLogger(d.logger))
	}
	return d
}

// FetchSource downloads the module zip from the proxy and extracts it to a temp directory.
func (d *Driver) FetchSource(ctx context.Context, module, version string) (string, func(), error) {
	d.logger.Info("downloading module", "module", module, "version", version)

	data, err := d.proxyClient.DownloadZip(ctx, module, version)
	if err != nil {
		return "", nil, apierrors.Wrap(err, apierrors.CodeFetchFailed, "downloading module zip").
			WithContext(apierrors.CtxModule, module).
			WithContext(apierrors.CtxVersion, version)
	}

	dir, cleanup, err := archive.ExtractZip(data, version)
	if err != nil {
		return "", nil, apierrors.Wrap(err, apierrors.CodeFetchFailed, "extracting module zip").
			WithContext(apierrors.CtxModule, module).
			WithContext(apierrors.CtxVersion, version)
	}

	return dir, cleanup, nil
}

// Extract parses the exported API of the module rooted at or below dir. The
// component name is the module path from go.mod.
func (d *Driver) Extract(ctx context.Context, dir string) (apimodel.Snapshot, error) {
	root, err := exports.FindSourceRoot(dir)
	if err != nil {
		return apimodel.Snapshot{}, apierrors.Wrap(err, apierrors.CodeExtractFailed, "finding module root").
			WithContext(apierrors.CtxPath, dir)
	}

	module, err := gomod.FindModulePath(root)
	if err != nil {
		return apimodel.Snapshot{}, apierrors.Wrap(err, apierrors.CodeExtractFailed, "reading module path").
			WithContext(apierrors.CtxPath, root)
	}

	snap, err := exports.ParseExports(ctx, root, module, d.logger)
	if err != nil {
		return apimodel.Snapshot{}, apierrors.Wrap(err, apierrors.CodeExtractFailed, "parsing exports").
			WithContext(apierrors.CtxModule, module)
	}

	d.logger.Debug("extracted exports", "module", module, "elements", len(snap.Elements))
	return snap, nil
}

// Snapshot fetches module@version and extracts its exported API. The
// downloaded source is removed before returning.
func (d *Driver) Snapshot(ctx context.Context, module, version string) (apimodel.Snapshot, error) {
	dir, cleanup, err := d.FetchSource(ctx, module, version)
	if err != nil {
		return apimodel.Snapshot{}, err
	}
	defer cleanup()

	snap, err := d.Extract(ctx, dir)
	if err != nil {
		return apimodel.Snapshot{}, err
	}
	if snap.Component != module {
		return apimodel.Snapshot{}, apierrors.New(apierrors.CodeExtractFailed,
			fmt.Sprintf("module mismatch: requested %s, go.mod declares %s", module, snap.Component))
	}
	snap.Version = version
	return snap, nil
}
