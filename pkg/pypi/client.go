// Package pypi fetches and parses the remote documents behind the package
// index: per-package release-history pages and ecosystem-statistics pages.
//
// Both documents are HTML scraped structurally, keyed off class markers
// rather than exact text, so minor markup drift does not break parsing.
// Fetches go through a cache backend and retry transient failures without
// bound; a missing document fails with REMOTE_NOT_FOUND carrying both
// attempted URLs so the caller can spot a misnamed package or platform.
package pypi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pyscope/pyscope/pkg/buildinfo"
	"github.com/pyscope/pyscope/pkg/cache"
	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
	"github.com/pyscope/pyscope/pkg/httputil"
	"github.com/pyscope/pyscope/pkg/memo"
	"github.com/pyscope/pyscope/pkg/observability"
	"github.com/pyscope/pyscope/pkg/pool"
	"github.com/pyscope/pyscope/pkg/release"
)

const (
	// DefaultIndexBase is the package index serving release-history pages.
	DefaultIndexBase = "https://pypi.org"

	// DefaultStatsBase is the host serving ecosystem-statistics pages.
	DefaultStatsBase = "https://libraries.io"

	// DefaultTimeout bounds ordinary document fetches.
	DefaultTimeout = 30 * time.Second

	// LongTimeout bounds history fetches, whose pages grow with every
	// release a package has ever published.
	LongTimeout = 90 * time.Second
)

// Client fetches release histories and statistics snapshots. Fetched
// documents are cached in the configured backend and parsed results are
// memoized per package for the client's lifetime. Safe for concurrent use.
type Client struct {
	// IndexBase and StatsBase are the registry endpoints. Override them to
	// point at a mirror or a local test server.
	IndexBase string
	StatsBase string

	// Workers bounds the token-extraction pool for history parsing.
	Workers int

	// RetryDelay is the initial backoff between transient-failure retries.
	RetryDelay time.Duration

	// UserAgent identifies the client on outgoing requests.
	UserAgent string

	// TTL overrides the per-document cache lifetimes ([cache.TTLHistory],
	// [cache.TTLStats]) when positive.
	TTL time.Duration

	http   *http.Client
	long   *http.Client
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger

	histories *memo.Map[*release.History]
	stats     *memo.Map[*Stats]
}

// NewClient creates a catalog client.
// If c is nil, a NullCache is used (caching disabled). If keyer is nil, a
// DefaultKeyer is used. If logger is nil, the default logger is used.
func NewClient(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		IndexBase:  DefaultIndexBase,
		StatsBase:  DefaultStatsBase,
		Workers:    pool.DefaultWorkers,
		RetryDelay: time.Second,
		UserAgent:  "pyscope/" + buildinfo.Version,
		http:       &http.Client{Timeout: DefaultTimeout},
		long:       &http.Client{Timeout: LongTimeout},
		cache:      c,
		keyer:      keyer,
		logger:     logger,
		histories:  memo.New[*release.History](),
		stats:      memo.New[*Stats](),
	}
}

// SetTimeouts overrides the fetch timeouts. A zero duration keeps the
// current value.
func (c *Client) SetTimeouts(short, long time.Duration) {
	if short > 0 {
		c.http.Timeout = short
	}
	if long > 0 {
		c.long.Timeout = long
	}
}

// HistoryURL returns the release-history page URL for a package.
func (c *Client) HistoryURL(name string) string {
	return fmt.Sprintf("%s/project/%s/#history", c.IndexBase, name)
}

// StatsURL returns the statistics page URL for a package on a platform.
func (c *Client) StatsURL(platform, name string) string {
	return fmt.Sprintf("%s/%s/%s", c.StatsBase, platform, name)
}

// History fetches and parses a package's release history. The result is
// memoized per package; the raw document is additionally cached in the
// backend with [cache.TTLHistory].
func (c *Client) History(ctx context.Context, name string) (*release.History, error) {
	if err := pkgerrors.ValidatePythonPackageName(name); err != nil {
		return nil, err
	}

	return c.histories.Do(strings.ToLower(name), func() (*release.History, error) {
		histURL := c.HistoryURL(name)
		body, err := c.fetchText(ctx, c.long, "history", histURL, c.ttlFor(cache.TTLHistory))
		if err != nil {
			return nil, c.remoteError(err, name)
		}

		records, err := parseHistory(ctx, c.Workers, body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.GetCode(err), err, "parse release history from %s", histURL)
		}

		c.logger.Debug("fetched release history", "package", name, "releases", len(records))
		return &release.History{Package: name, Records: records}, nil
	})
}

// Stats fetches and parses a package's ecosystem statistics. An empty
// platform selects [DefaultPlatform]; other platforms resolve fuzzily
// against [Platforms].
func (c *Client) Stats(ctx context.Context, platform, name string) (*Stats, error) {
	if err := pkgerrors.ValidatePythonPackageName(name); err != nil {
		return nil, err
	}
	platform, err := ResolvePlatform(platform)
	if err != nil {
		return nil, err
	}

	return c.stats.Do(platform+":"+strings.ToLower(name), func() (*Stats, error) {
		statsURL := c.StatsURL(platform, name)
		body, err := c.fetchText(ctx, c.http, "stats", statsURL, c.ttlFor(cache.TTLStats))
		if err != nil {
			return nil, c.remoteError(err, name)
		}

		values, err := parseStats(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.GetCode(err), err, "parse statistics from %s", statsURL)
		}

		c.logger.Debug("fetched statistics", "package", name, "platform", platform, "fields", len(values))
		return &Stats{Package: name, Platform: platform, Values: values}, nil
	})
}

// ttlFor resolves the cache lifetime for a document class, honoring the
// client-wide override when one is set.
func (c *Client) ttlFor(def time.Duration) time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return def
}

// fetchText returns a document body, serving from cache when possible.
// Transient failures (network errors, 5xx, rate limiting) retry without
// bound until the context is cancelled; definitive responses end the loop.
func (c *Client) fetchText(ctx context.Context, hc *http.Client, namespace, url string, ttl time.Duration) (string, error) {
	key := c.keyer.HTTPKey(namespace, url)
	if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, namespace)
		return string(data), nil
	}
	observability.Cache().OnCacheMiss(ctx, namespace)

	var body string
	err := httputil.Retry(ctx, 0, c.RetryDelay, func() error {
		text, err := c.doRequest(ctx, hc, url)
		if err != nil {
			return err
		}
		body = text
		return nil
	})
	if err != nil {
		// A deadline expiring mid-retry is a timeout; cancellation passes
		// through so callers can tell the two apart.
		if errors.Is(err, context.DeadlineExceeded) {
			return "", pkgerrors.Wrap(pkgerrors.ErrCodeTimeout, err, "fetch %s", url)
		}
		return "", err
	}

	_ = c.cache.Set(ctx, key, []byte(body), ttl)
	observability.Cache().OnCacheSet(ctx, namespace, len(body))
	return body, nil
}

func (c *Client) doRequest(ctx context.Context, hc *http.Client, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "build request for %s", rawURL)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	start := time.Now()
	observability.HTTP().OnRequest(ctx, http.MethodGet, req.URL.Host, req.URL.Path)

	resp, err := hc.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, req.URL.Host, req.URL.Path, err)
		return "", &httputil.RetryableError{Err: pkgerrors.Wrap(pkgerrors.ErrCodeNetwork, err, "fetch %s", rawURL)}
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, http.MethodGet, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return "", &httputil.RetryableError{Err: &pkgerrors.RateLimitedError{RetryAfter: retryAfter}}
	}
	if err := checkStatus(resp.StatusCode, rawURL); err != nil {
		return "", err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &httputil.RetryableError{Err: pkgerrors.Wrap(pkgerrors.ErrCodeNetwork, err, "read %s", rawURL)}
	}
	return string(data), nil
}

func checkStatus(code int, url string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code >= 500:
		return &httputil.RetryableError{Err: pkgerrors.New(pkgerrors.ErrCodeNetwork, "fetch %s: status %d", url, code)}
	default:
		// 404 and other rejections mean the document is not served.
		return pkgerrors.New(pkgerrors.ErrCodeRemoteNotFound, "fetch %s: status %d", url, code)
	}
}

// remoteError enriches a not-found fetch failure with both document URLs,
// so a misspelled package or wrong platform is diagnosable from the error
// alone. Other failures pass through unchanged.
func (c *Client) remoteError(err error, name string) error {
	if pkgerrors.GetCode(err) != pkgerrors.ErrCodeRemoteNotFound {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.ErrCodeRemoteNotFound, err,
		"package %s has no remote documents (tried %s and %s)",
		name, c.HistoryURL(name), c.StatsURL(DefaultPlatform, name))
}
