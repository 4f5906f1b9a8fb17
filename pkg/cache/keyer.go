package cache

// Keyer generates cache keys for the cacheable document classes. Using one
// key scheme everywhere keeps CLI and server deployments interchangeable on
// the same backend.
type Keyer interface {
	// HTTPKey generates a key for a raw HTTP response body.
	HTTPKey(namespace, url string) string

	// HistoryKey generates a key for a package's release-history document.
	HistoryKey(pkg string) string

	// StatsKey generates a key for a package's ecosystem-statistics document
	// on the given platform.
	StatsKey(platform, pkg string) string
}

// DefaultKeyer hashes key components with SHA-256 under a class prefix.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for HTTP response caching.
func (k *DefaultKeyer) HTTPKey(namespace, url string) string {
	return hashKey("http:"+namespace, url)
}

// HistoryKey generates a key for release-history caching.
func (k *DefaultKeyer) HistoryKey(pkg string) string {
	return hashKey("history", pkg)
}

// StatsKey generates a key for statistics caching.
func (k *DefaultKeyer) StatsKey(platform, pkg string) string {
	return hashKey("stats", platform, pkg)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
