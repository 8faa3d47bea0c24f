package driver

import (
	"context"

	"github.com/emenda-labs/apicompat/core/apimodel"
)

// Extractor produces the public API surface of one component version.
type Extractor interface {
	// Extract reads the snapshot rooted at source. What source names is up
	// to the implementation: a snapshot file, an unpacked module directory.
	Extract(ctx context.Context, source string) (apimodel.Snapshot, error)
}

// SourceFetcher downloads a component version so it can be extracted.
type SourceFetcher interface {
	// FetchSource downloads module source and unpacks it to a local
	// directory. The cleanup function removes the directory.
	FetchSource(ctx context.Context, module, version string) (path string, cleanup func(), err error)
}
