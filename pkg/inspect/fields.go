package inspect

import (
	"sort"
	"strings"

	"github.com/pyscope/pyscope/pkg/pypi"
)

// MetadataFields is the curated subset of descriptor fields exposed as
// short metadata, spelled as the descriptor file spells them.
var MetadataFields = []string{
	"Author",
	"Author-email",
	"Classifier",
	"Description-Content-Type",
	"Download-URL",
	"Home-page",
	"Metadata-Version",
	"Name",
	"Platform",
	"Summary",
}

// DescriptorFiles are the auxiliary files a descriptor directory may ship.
// Their contents are queryable by (fuzzy) filename.
var DescriptorFiles = []string{
	"entry_points.txt",
	"INSTALLER",
	"LICENSE",
	"METADATA",
	"RECORD",
	"REQUESTED",
	"top_level.txt",
	"WHEEL",
}

// localFields are answered from the resolved record and the filesystem
// alone, no network involved.
var localFields = []string{
	"name",
	"version",
	"installed version",
	"runtime",
	"site path",
	"package paths",
	"package size",
	"file count",
	"installed date",
	"is latest",
}

// remoteFields are answered from the release-history document. Named
// ecosystem statistics (pypi.StatKeys) are matched separately.
var remoteFields = []string{
	"latest version",
	"initial version",
	"version history",
	"available updates",
	"release count",
}

// derivedAliases maps the accepted spellings of the derived-metadata
// queries onto their canonical form.
var derivedAliases = map[string]string{
	"documentation":   "documentation",
	"doc":             "documentation",
	"docs":            "documentation",
	"source file":     "source file",
	"source location": "source file",
	"source path":     "source file",
	"source code":     "source code",
	"source text":     "source code",
	"source":          "source code",
}

// aggregateFields answer with the folded descriptor map rather than a
// single field.
var aggregateFields = []string{
	"short metadata",
	"short license",
}

// Fields returns the full queryable vocabulary, sorted case-insensitively.
// An empty Inspect query returns exactly this list.
func Fields() []string {
	var all []string
	all = append(all, localFields...)
	all = append(all, remoteFields...)
	all = append(all, pypi.StatKeys...)
	all = append(all, "documentation", "source file", "source code")
	all = append(all, aggregateFields...)
	all = append(all, MetadataFields...)
	all = append(all, DescriptorFiles...)

	seen := make(map[string]bool, len(all))
	fields := all[:0]
	for _, f := range all {
		key := strings.ToLower(f)
		if seen[key] {
			continue
		}
		seen[key] = true
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool {
		return strings.ToLower(fields[i]) < strings.ToLower(fields[j])
	})
	return fields
}
