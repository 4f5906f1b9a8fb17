package inspect

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
	"github.com/pyscope/pyscope/pkg/resolve"
)

// metadataFile is the structured descriptor inside a descriptor directory.
const metadataFile = "METADATA"

// metadata returns the folded descriptor map for a record, parsing the
// descriptor file at most once per package directory.
func (i *Inspector) metadata(rec *resolve.Record) (map[string]any, error) {
	return i.meta.Do(rec.Dir.Path, func() (map[string]any, error) {
		path := filepath.Join(rec.Dir.Path, metadataFile)
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return map[string]any{}, nil
			}
			return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "read descriptor metadata for %s", rec.Name)
		}
		defer f.Close()
		return foldMetadata(parseMetadata(f)), nil
	})
}

// parseMetadata reads the header block of a descriptor file into ordered
// key/value pairs, keeping only the short-metadata fields. The block ends
// at the first blank line; whatever follows is the long description.
// Indented lines continue the previous value.
func parseMetadata(r io.Reader) map[string][]string {
	pairs := make(map[string][]string)
	var lastKey string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		if (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) && lastKey != "" {
			vals := pairs[lastKey]
			if len(vals) > 0 {
				vals[len(vals)-1] += " " + strings.TrimSpace(line)
			}
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !isMetadataField(key) || value == "" {
			lastKey = ""
			continue
		}
		lastKey = key
		if !contains(pairs[key], value) {
			pairs[key] = append(pairs[key], value)
		}
	}
	return pairs
}

// foldMetadata flattens parsed pairs into the query map. A field seen once
// stays scalar under its own key; a field seen more than once becomes a
// list under the pluralized key, and the singular key is dropped.
func foldMetadata(pairs map[string][]string) map[string]any {
	out := make(map[string]any, len(pairs))
	for key, vals := range pairs {
		if len(vals) == 1 {
			out[key] = vals[0]
			continue
		}
		out[key+"s"] = vals
	}
	return out
}

// licenseClassifiers extracts the License trove entries from a folded map.
func licenseClassifiers(meta map[string]any) []string {
	var classifiers []string
	switch v := meta["Classifiers"].(type) {
	case []string:
		classifiers = v
	}
	if v, ok := meta["Classifier"].(string); ok {
		classifiers = append(classifiers, v)
	}

	var out []string
	for _, c := range classifiers {
		if strings.HasPrefix(c, "License") {
			out = append(out, c)
		}
	}
	return out
}

func isMetadataField(key string) bool {
	for _, f := range MetadataFields {
		if f == key {
			return true
		}
	}
	return false
}

func contains(vals []string, v string) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}
