// Package inspect answers field and content queries against a resolved
// package: record properties, release-catalog fields, derived source
// queries, descriptor file contents and descriptor metadata fields, all
// behind one fuzzy-matched query surface.
//
// Queries resolve through an ordered dispatch table; the first stage
// whose matcher accepts the query handles it. An empty query enumerates
// the recognized vocabulary instead of data. A query no stage recognizes
// yields a nil result, not an error.
package inspect

import (
	"context"

	"github.com/charmbracelet/log"

	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
	"github.com/pyscope/pyscope/pkg/memo"
	"github.com/pyscope/pyscope/pkg/pypi"
	"github.com/pyscope/pyscope/pkg/release"
	"github.com/pyscope/pyscope/pkg/resolve"
)

// Catalog provides the remote documents behind catalog field queries.
// *pypi.Client satisfies it.
type Catalog interface {
	History(ctx context.Context, name string) (*release.History, error)
	Stats(ctx context.Context, platform, name string) (*pypi.Stats, error)
}

// Inspector resolves field queries for resolved package records. The
// descriptor parse is memoized per package directory, so repeated field
// queries against the same package read the descriptor once. Safe for
// concurrent use.
type Inspector struct {
	catalog Catalog
	logger  *log.Logger
	meta    *memo.Map[map[string]any]
}

// NewInspector creates an inspector. catalog may be nil, in which case
// catalog-backed queries fail with PRECONDITION_FAILED. If logger is nil,
// the default logger is used.
func NewInspector(catalog Catalog, logger *log.Logger) *Inspector {
	if logger == nil {
		logger = log.Default()
	}
	return &Inspector{
		catalog: catalog,
		logger:  logger,
		meta:    memo.New[map[string]any](),
	}
}

// Inspect answers a field or file query for a resolved record.
//
// The empty query returns the sorted field vocabulary. Otherwise the
// query is dispatched through the rule table; a query that no stage
// recognizes, or a recognized field the package simply does not carry,
// returns (nil, nil).
func (i *Inspector) Inspect(ctx context.Context, rec *resolve.Record, query string) (any, error) {
	if rec == nil {
		return nil, pkgerrors.New(pkgerrors.ErrCodePrecondition, "no package bound for inspection")
	}
	if query == "" {
		return Fields(), nil
	}
	if err := pkgerrors.ValidateFieldQuery(query); err != nil {
		return nil, err
	}

	for _, r := range rules {
		field, ok := r.match(i, rec, query)
		if !ok {
			continue
		}
		i.logger.Debug("field query resolved",
			"package", rec.Name, "query", query, "field", field, "stage", r.name)
		return r.handle(ctx, i, rec, field)
	}

	i.logger.Debug("field query unresolved", "package", rec.Name, "query", query)
	return nil, nil
}

func (i *Inspector) history(ctx context.Context, rec *resolve.Record) (*release.History, error) {
	if i.catalog == nil {
		return nil, pkgerrors.New(pkgerrors.ErrCodePrecondition,
			"no remote catalog configured for %q", rec.Name)
	}
	return i.catalog.History(ctx, rec.Name)
}

func (i *Inspector) stats(ctx context.Context, rec *resolve.Record) (*pypi.Stats, error) {
	if i.catalog == nil {
		return nil, pkgerrors.New(pkgerrors.ErrCodePrecondition,
			"no remote catalog configured for %q", rec.Name)
	}
	return i.catalog.Stats(ctx, pypi.DefaultPlatform, rec.Name)
}
