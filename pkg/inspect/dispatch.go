package inspect

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
	"github.com/pyscope/pyscope/pkg/match"
	"github.com/pyscope/pyscope/pkg/metrics"
	"github.com/pyscope/pyscope/pkg/pypi"
	"github.com/pyscope/pyscope/pkg/release"
	"github.com/pyscope/pyscope/pkg/resolve"
)

// rule pairs a query matcher with its handler. Rules run in fixed
// priority order and the first matcher that accepts the query handles it;
// match returns the canonical field the query resolved to.
type rule struct {
	name   string
	match  func(i *Inspector, rec *resolve.Record, q string) (string, bool)
	handle func(ctx context.Context, i *Inspector, rec *resolve.Record, field string) (any, error)
}

// rules is the dispatch table: record properties, then catalog fields,
// then derived source queries, then descriptor files by name, then
// descriptor metadata fields.
var rules = []rule{
	{name: "local", match: matchLocal, handle: handleLocal},
	{name: "remote", match: matchRemote, handle: handleRemote},
	{name: "derived", match: matchDerived, handle: handleDerived},
	{name: "file", match: matchFile, handle: handleFile},
	{name: "descriptor", match: matchDescriptor, handle: handleDescriptor},
}

// normalizeQuery lowers a query and folds hyphens, underscores and runs
// of whitespace to single spaces, so "Author-email", "author_email" and
// "author email" all land on the same form.
func normalizeQuery(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		if r == '-' || r == '_' {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// vocabMatch resolves q against a vocabulary under normalization,
// returning the original candidate spelling. Ties keep the first
// candidate at maximum score.
func vocabMatch(q string, vocab []string, threshold float64) (string, bool) {
	nq := normalizeQuery(q)
	best, idx := 0.0, -1
	for i, cand := range vocab {
		score := match.Ratio(nq, normalizeQuery(cand))
		if score > best {
			best, idx = score, i
		}
	}
	if idx < 0 || best < threshold {
		return "", false
	}
	return vocab[idx], true
}

func matchLocal(_ *Inspector, _ *resolve.Record, q string) (string, bool) {
	return vocabMatch(q, localFields, match.ThresholdField)
}

func handleLocal(ctx context.Context, i *Inspector, rec *resolve.Record, field string) (any, error) {
	switch field {
	case "name":
		return rec.Name, nil
	case "version", "installed version":
		return rec.Version, nil
	case "runtime":
		return rec.Runtime.Name, nil
	case "site path":
		return rec.Dir.Path, nil
	case "is latest":
		return i.isLatest(ctx, rec)
	}

	// The remaining properties are filesystem statistics.
	stats, err := metrics.ScanDir(rec.Dir.Path)
	if err != nil {
		return nil, err
	}
	switch field {
	case "package paths":
		return stats.Paths(), nil
	case "package size":
		return stats.HumanTotal(), nil
	case "file count":
		return stats.Files, nil
	case "installed date":
		return stats.Modified.Format(release.DateLayout), nil
	}
	return nil, nil
}

func (i *Inspector) isLatest(ctx context.Context, rec *resolve.Record) (any, error) {
	if rec.Version == "" {
		return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidArgument,
			"package %s has no installed version recorded", rec.Name)
	}
	hist, err := i.history(ctx, rec)
	if err != nil {
		return nil, err
	}
	return hist.IsLatest(rec.Version)
}

// RemoteField reports whether a query names a field answerable from the
// remote catalog alone, without a local installation.
func RemoteField(q string) (string, bool) {
	return matchRemote(nil, nil, q)
}

func matchRemote(_ *Inspector, _ *resolve.Record, q string) (string, bool) {
	if field, ok := vocabMatch(q, remoteFields, match.ThresholdField); ok {
		return field, true
	}
	return vocabMatch(q, pypi.StatKeys, match.ThresholdField)
}

func handleRemote(ctx context.Context, i *Inspector, rec *resolve.Record, field string) (any, error) {
	switch field {
	case "latest version":
		hist, err := i.history(ctx, rec)
		if err != nil {
			return nil, err
		}
		latest, err := hist.Latest()
		if err != nil {
			return nil, err
		}
		return latest.VersionRaw, nil
	case "initial version":
		hist, err := i.history(ctx, rec)
		if err != nil {
			return nil, err
		}
		initial, err := hist.Initial()
		if err != nil {
			return nil, err
		}
		return initial.VersionRaw, nil
	case "version history":
		return i.history(ctx, rec)
	case "release count":
		hist, err := i.history(ctx, rec)
		if err != nil {
			return nil, err
		}
		return hist.Len(), nil
	case "available updates":
		hist, err := i.history(ctx, rec)
		if err != nil {
			return nil, err
		}
		return hist.UpdatesAfter(rec.Version)
	}

	// A named ecosystem statistic.
	stats, err := i.stats(ctx, rec)
	if err != nil {
		return nil, err
	}
	if v, ok := stats.Get(field); ok {
		return v, nil
	}
	return nil, nil
}

func matchDerived(_ *Inspector, _ *resolve.Record, q string) (string, bool) {
	alias, ok := vocabMatch(q, derivedQueries, match.ThresholdField)
	if !ok {
		return "", false
	}
	return derivedAliases[alias], true
}

func handleDerived(_ context.Context, _ *Inspector, rec *resolve.Record, field string) (any, error) {
	path, err := sourcePath(rec)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil
	}
	if field == "source file" {
		return path, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "read module source %s", path)
	}
	src := string(data)
	if field == "source code" {
		return src, nil
	}
	if doc := docstring(src); doc != "" {
		return doc, nil
	}
	return nil, nil
}

// matchFile scans the descriptor directory for a file whose name fuzzy
// matches the query; extensions and separators are ignored so "entry
// points" finds entry_points.txt.
func matchFile(_ *Inspector, rec *resolve.Record, q string) (string, bool) {
	var names []string
	if rec.Dir.IsDescriptor {
		entries, err := os.ReadDir(rec.Dir.Path)
		if err != nil {
			return "", false
		}
		for _, e := range entries {
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
	} else {
		names = []string{filepath.Base(rec.Dir.Path)}
	}

	nq := normalizeQuery(q)
	best, idx := 0.0, -1
	for i, name := range names {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		score := match.Ratio(nq, normalizeQuery(stem))
		if score > best {
			best, idx = score, i
		}
	}
	if idx < 0 || best < match.ThresholdField {
		return "", false
	}
	return names[idx], true
}

func handleFile(_ context.Context, _ *Inspector, rec *resolve.Record, name string) (any, error) {
	path := rec.Dir.Path
	if rec.Dir.IsDescriptor {
		path = filepath.Join(path, name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "read descriptor file %s", path)
	}
	return string(data), nil
}

func matchDescriptor(_ *Inspector, rec *resolve.Record, q string) (string, bool) {
	if !rec.Dir.IsDescriptor {
		return "", false
	}
	if field, ok := vocabMatch(q, aggregateFields, match.ThresholdField); ok {
		return field, true
	}
	return vocabMatch(q, metadataVocab, match.ThresholdField)
}

func handleDescriptor(_ context.Context, i *Inspector, rec *resolve.Record, field string) (any, error) {
	meta, err := i.metadata(rec)
	if err != nil {
		return nil, err
	}
	switch field {
	case "short metadata":
		return meta, nil
	case "short license":
		if lic := licenseClassifiers(meta); len(lic) > 0 {
			return lic, nil
		}
		return nil, nil
	}

	// Multi-valued fields live under the pluralized key once folded, so a
	// singular query falls through to its plural and vice versa.
	for _, key := range []string{field, field + "s", strings.TrimSuffix(field, "s")} {
		if v, ok := meta[key]; ok {
			return v, nil
		}
	}
	return nil, nil
}

// derivedQueries and metadataVocab are the precomputed matcher inputs for
// stages that resolve against static vocabularies.
var (
	derivedQueries = func() []string {
		qs := make([]string, 0, len(derivedAliases))
		for q := range derivedAliases {
			qs = append(qs, q)
		}
		sort.Strings(qs)
		return qs
	}()

	metadataVocab = func() []string {
		vocab := make([]string, 0, len(MetadataFields)+2)
		vocab = append(vocab, MetadataFields...)
		// Plural spellings of the multi-valued fields.
		vocab = append(vocab, "Classifiers", "Platforms")
		return vocab
	}()
)
