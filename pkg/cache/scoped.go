package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation. Useful
// when several tools or tenants share one Redis backend and their entries
// must not collide.
//
// Example usage:
//
//	// Host-specific keys when one Redis serves a fleet
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "host:build-17:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, url string) string {
	return k.prefix + k.inner.HTTPKey(namespace, url)
}

// HistoryKey generates a prefixed key for release-history caching.
func (k *ScopedKeyer) HistoryKey(pkg string) string {
	return k.prefix + k.inner.HistoryKey(pkg)
}

// StatsKey generates a prefixed key for statistics caching.
func (k *ScopedKeyer) StatsKey(platform, pkg string) string {
	return k.prefix + k.inner.StatsKey(platform, pkg)
}
