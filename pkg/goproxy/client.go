package goproxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
)

const (
	defaultProxy      = "https://proxy.golang.org,direct"
	httpClientTimeout = 30 * time.Second
	defaultUserAgent  = "apicompat/0.1.0"
	statusNotFound    = http.StatusNotFound
	statusGone        = http.StatusGone
)

// Client downloads module zip files from the Go module proxy.
type Client struct {
	httpClient *http.Client
	userAgent  string
	proxies    []string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for proxy chain diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithProxy replaces the proxy chain, using the GOPROXY syntax.
func WithProxy(goproxy string) Option {
	return func(c *Client) {
		if strings.TrimSpace(goproxy) != "" {
			c.proxies = parseProxyList(goproxy)
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a Client that reads the GOPROXY environment variable to
// determine the proxy chain. If GOPROXY is unset, it defaults to
// "https://proxy.golang.org,direct".
func NewClient(opts ...Option) *Client {
	goproxy := os.Getenv("GOPROXY")
	if strings.TrimSpace(goproxy) == "" {
		goproxy = defaultProxy
	}

	c := &Client{
		httpClient: &http.Client{Timeout: httpClientTimeout},
		userAgent:  defaultUserAgent,
		proxies:    parseProxyList(goproxy),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func parseProxyList(goproxy string) []string {
	// The GOPROXY value is a comma- or pipe-separated list of proxy URLs.
	replacer := strings.NewReplacer("|", ",")
	normalized := replacer.Replace(goproxy)

	parts := strings.Split(normalized, ",")
	proxies := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			proxies = append(proxies, trimmed)
		}
	}

	return proxies
}

// DownloadZip fetches the zip archive for the given module and version from the
// proxy chain. It returns the raw zip bytes on success.
func (c *Client) DownloadZip(ctx context.Context, mod, version string) ([]byte, error) {
	escapedMod, err := module.EscapePath(mod)
	if err != nil {
		return nil, fmt.Errorf("escaping module path %q: %w", mod, err)
	}
	escapedVersion, err := module.EscapeVersion(version)
	if err != nil {
		return nil, fmt.Errorf("escaping version %q: %w", version, err)
	}

	data, err := c.get(ctx, escapedMod+"/@v/"+escapedVersion+".zip")
	if err != nil {
		return nil, fmt.Errorf("module %s@%s: %w", mod, version, err)
	}
	return data, nil
}

// Info is the proxy's description of one module version.
type Info struct {
	Version string    `json:"Version"`
	Time    time.Time `json:"Time"`
}

// Latest resolves the newest version of a module known to the proxy.
func (c *Client) Latest(ctx context.Context, mod string) (Info, error) {
	escapedMod, err := module.EscapePath(mod)
	if err != nil {
		return Info{}, fmt.Errorf("escaping module path %q: %w", mod, err)
	}

	data, err := c.get(ctx, escapedMod+"/@latest")
	if err != nil {
		return Info{}, fmt.Errorf("resolving latest %s: %w", mod, err)
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, fmt.Errorf("decoding latest info for %s: %w", mod, err)
	}
	if !semver.IsValid(info.Version) {
		return Info{}, fmt.Errorf("proxy returned invalid version %q for %s", info.Version, mod)
	}
	return info, nil
}

// get walks the proxy chain for one proxy-relative path.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	for i, proxy := range c.proxies {
		switch proxy {
		case "direct":
			c.logger.Warn("goproxy: direct mode not supported, skipping")
			continue
		case "off":
			c.logger.Warn("goproxy: proxy chain contains 'off', stopping")
			return nil, fmt.Errorf("not found on any proxy")
		}

		url := strings.TrimRight(proxy, "/") + "/" + path
		c.logger.Debug("goproxy: fetching", "url", url)

		data, tryNext, fetchErr := c.fetch(ctx, url)
		if fetchErr == nil {
			return data, nil
		}
		if tryNext && i < len(c.proxies)-1 {
			c.logger.Info("goproxy: trying next proxy", "error", fetchErr)
			continue
		}
		return nil, fetchErr
	}

	return nil, fmt.Errorf("not found on any proxy")
}

// fetch performs a single HTTP GET for the given URL.
// It returns (data, tryNext, error).
// tryNext signals that the caller should attempt the next proxy in the chain.
func (c *Client) fetch(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network-level error; let the caller decide whether to try the next proxy.
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == statusNotFound || resp.StatusCode == statusGone {
		return nil, true, fmt.Errorf("proxy returned %d for %s", resp.StatusCode, url)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("reading response body from %s: %w", url, err)
	}

	return data, false, nil
}
