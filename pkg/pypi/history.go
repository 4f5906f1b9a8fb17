package pypi

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
	"github.com/pyscope/pyscope/pkg/pool"
	"github.com/pyscope/pyscope/pkg/release"
)

var (
	// dateRE matches release dates as the history pages render them,
	// e.g. "Feb 1, 2022".
	dateRE = regexp.MustCompile(`[A-Z][a-z]{2}\s\d{1,2},\s\d{4}`)

	// versionRE matches a whole final-release version token. Pre-release
	// tokens like "2.0.0rc1" do not match and get their block filtered.
	versionRE = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?$`)
)

// extracted carries one block's parse result through the worker pool.
type extracted struct {
	rec release.Record
	ok  bool
}

// parseHistory extracts (date, version) records from a history page,
// preserving the page's block order. Release blocks are tokenized by a
// bounded worker pool. Blocks without a recognizable version token are
// filtered out; a version token with no date in its block fails loudly
// rather than producing a silently truncated history.
func parseHistory(ctx context.Context, workers int, body string) ([]release.Record, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeParse, err, "parse history markup")
	}

	blocks := releaseBlocks(doc)
	if len(blocks) == 0 {
		return nil, pkgerrors.New(pkgerrors.ErrCodeParse, "no release blocks found")
	}

	results, err := pool.Map(ctx, workers, blocks, func(ctx context.Context, text string) (extracted, error) {
		return extractRelease(text)
	})
	if err != nil {
		return nil, err
	}

	records := make([]release.Record, 0, len(results))
	for _, ex := range results {
		if ex.ok {
			records = append(records, ex.rec)
		}
	}
	return records, nil
}

// extractRelease pairs the date and version tokens within one release
// block. Pairing inside the block keeps a drifted page from matching the
// wrong date to a version.
func extractRelease(text string) (extracted, error) {
	var verTok string
	for _, field := range strings.Fields(text) {
		if versionRE.MatchString(field) {
			verTok = field
			break
		}
	}
	if verTok == "" {
		return extracted{}, nil // pre-release or malformed block
	}

	dateTok := dateRE.FindString(text)
	if dateTok == "" {
		return extracted{}, pkgerrors.New(pkgerrors.ErrCodeParse,
			"release block for version %s has no date token", verTok)
	}

	rec, err := release.NewRecord(dateTok, verTok)
	if err != nil {
		return extracted{}, err
	}
	return extracted{rec: rec, ok: true}, nil
}

// releaseBlocks collects the text of every node carrying the "release"
// class token, in document order. Release blocks do not nest.
func releaseBlocks(doc *html.Node) []string {
	var blocks []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClassToken(n, "release") {
			blocks = append(blocks, nodeText(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return blocks
}
