package pypi

import (
	"sort"
	"strings"

	"golang.org/x/net/html"

	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
	"github.com/pyscope/pyscope/pkg/match"
	"github.com/pyscope/pyscope/pkg/metrics"
)

// StatKeys are the recognized ecosystem statistics, spelled as the
// statistics host labels them.
var StatKeys = []string{
	"Contributors",
	"Dependencies",
	"Dependent packages",
	"Dependent repositories",
	"Forks",
	"Repository size",
	"SourceRank",
	"Stars",
	"Total releases",
	"Watchers",
}

// Stats is one package's statistics snapshot on one platform.
type Stats struct {
	// Package and Platform identify what the snapshot describes.
	Package  string
	Platform string

	// Values maps canonical stat keys to normalized values.
	Values map[string]metrics.Value
}

// Keys returns the snapshot's stat keys, sorted.
func (s *Stats) Keys() []string {
	keys := make([]string, 0, len(s.Values))
	for k := range s.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get looks a statistic up by fuzzy key, so "dependent packages" and
// "Dependent packages" resolve identically.
func (s *Stats) Get(key string) (metrics.Value, bool) {
	if v, ok := s.Values[key]; ok {
		return v, true
	}
	best, ok := match.Best(key, s.Keys(), match.ThresholdField)
	if !ok {
		return metrics.Value{}, false
	}
	return s.Values[best.Value], true
}

// parseStats extracts the statistics run from a page. Statistics are laid
// out as definition lists: a dt naming a recognized stat key pairs with
// the dd that follows it. The first occurrence of each key wins.
func parseStats(body string) (map[string]metrics.Value, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeParse, err, "parse statistics markup")
	}

	values := make(map[string]metrics.Value)
	var pendingKey string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "dt":
				pendingKey = canonicalStatKey(nodeText(n))
				return
			case "dd":
				if pendingKey != "" {
					if _, seen := values[pendingKey]; !seen {
						values[pendingKey] = metrics.ParseValue(nodeText(n))
					}
					pendingKey = ""
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(values) == 0 {
		return nil, pkgerrors.New(pkgerrors.ErrCodeParse, "no recognized statistics found")
	}
	return values, nil
}

// canonicalStatKey maps a scraped dt label onto a recognized stat key, or
// "" when the label is not a statistic we track.
func canonicalStatKey(label string) string {
	for _, k := range StatKeys {
		if match.Exact(label, k) {
			return k
		}
	}
	if best, ok := match.Best(label, StatKeys, match.ThresholdField); ok {
		return best.Value
	}
	return ""
}
