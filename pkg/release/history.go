package release

import (
	"sort"

	"github.com/hashicorp/go-version"

	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
)

// History is one package's release history as fetched from the registry.
// Records keep the order of the source document (newest first on the
// registry's pages); consumers that need a different order sort copies.
// A History is immutable once built.
type History struct {
	// Package is the name the history was fetched for.
	Package string

	// Records are the releases, in source-document order.
	Records []Record
}

// Len returns the number of releases.
func (h *History) Len() int {
	return len(h.Records)
}

// Latest returns the newest release under the record total order.
// Fails with NOT_FOUND on an empty history.
func (h *History) Latest() (Record, error) {
	return h.reduce(func(best, r Record) bool { return Compare(r, best) > 0 })
}

// Initial returns the oldest release under the record total order.
// Fails with NOT_FOUND on an empty history.
func (h *History) Initial() (Record, error) {
	return h.reduce(func(best, r Record) bool { return Compare(r, best) < 0 })
}

func (h *History) reduce(better func(best, r Record) bool) (Record, error) {
	if len(h.Records) == 0 {
		return Record{}, pkgerrors.New(pkgerrors.ErrCodeNotFound, "no releases for %s", h.Package)
	}
	best := h.Records[0]
	for _, r := range h.Records[1:] {
		if better(best, r) {
			best = r
		}
	}
	return best, nil
}

// IsLatest reports whether v names the newest released version. The check
// compares versions only; dates play no part.
func (h *History) IsLatest(v string) (bool, error) {
	cur, err := version.NewVersion(v)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidArgument, err, "parse version %q", v)
	}
	latest, err := h.Latest()
	if err != nil {
		return false, err
	}
	return versionOrMin(latest.Version).Equal(cur), nil
}

// SortedByVersion returns a copy of the records sorted by version
// ascending. Records sharing a version keep their source order.
func (h *History) SortedByVersion() []Record {
	out := make([]Record, len(h.Records))
	copy(out, h.Records)
	sort.SliceStable(out, func(i, j int) bool {
		return compareVersions(out[i].Version, out[j].Version) < 0
	})
	return out
}

// UpdatesAfter returns the releases strictly newer than current, oldest
// first. current must name a version present in the history; passing a
// version the registry never published fails with VERSION_NOT_FOUND. An
// empty result means the current version is already the latest.
func (h *History) UpdatesAfter(current string) ([]Record, error) {
	cur, err := version.NewVersion(current)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidArgument, err, "parse version %q", current)
	}

	// Anchor on the last record matching current so duplicate-version
	// records never count as updates.
	sorted := h.SortedByVersion()
	idx := -1
	for i, r := range sorted {
		if r.Version != nil && r.Version.Equal(cur) {
			idx = i
		}
	}
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.ErrCodeVersionNotFound,
			"version %s not in the release history of %s", current, h.Package)
	}

	return sorted[idx+1:], nil
}
