package inspect

import (
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
	"github.com/pyscope/pyscope/pkg/pyenv"
	"github.com/pyscope/pyscope/pkg/resolve"
)

// topLevelFile is the manifest naming a package's importable module.
const topLevelFile = "top_level.txt"

// sourcePath locates the module source behind a record. For a bare module
// the record path is the source itself. For a descriptor directory the
// importable name comes from the top_level.txt manifest when present,
// falling back to the normalized package name; the module is then looked
// up in the surrounding installation directory as either a package
// __init__.py or a flat module file. Returns "" when no source exists.
func sourcePath(rec *resolve.Record) (string, error) {
	if !rec.Dir.IsDescriptor {
		return rec.Dir.Path, nil
	}

	module, err := topLevelModule(rec)
	if err != nil {
		return "", err
	}
	if module == "" {
		module = strings.ReplaceAll(pyenv.NormalizeName(rec.Name), "-", "_")
	}

	site := filepath.Dir(rec.Dir.Path)
	for _, candidate := range []string{
		filepath.Join(site, module, "__init__.py"),
		filepath.Join(site, module+".py"),
	} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", nil
}

// topLevelModule reads the first module name from the manifest, or ""
// when the manifest is absent.
func topLevelModule(rec *resolve.Record) (string, error) {
	data, err := os.ReadFile(filepath.Join(rec.Dir.Path, topLevelFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "read module manifest for %s", rec.Name)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			return name, nil
		}
	}
	return "", nil
}

// docstring extracts the module-level docstring from source text: the
// first statement when it is a triple-quoted string, with leading blank
// and comment lines skipped. Returns "" when the module has none.
func docstring(src string) string {
	rest := src
	for rest != "" {
		line, tail, more := strings.Cut(rest, "\n")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			if !more {
				return ""
			}
			rest = tail
			continue
		}

		for _, quote := range []string{`"""`, `'''`} {
			body, ok := strings.CutPrefix(trimmed, quote)
			if !ok {
				continue
			}
			if end := strings.Index(body, quote); end >= 0 {
				return strings.TrimSpace(body[:end])
			}
			if more {
				body += "\n" + tail
			}
			if end := strings.Index(body, quote); end >= 0 {
				return strings.TrimSpace(body[:end])
			}
			return ""
		}
		return ""
	}
	return ""
}
