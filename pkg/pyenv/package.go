package pyenv

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// descriptorSuffix marks a package descriptor directory.
	descriptorSuffix = ".dist-info"

	// moduleSuffix marks a bare single-file module.
	moduleSuffix = ".py"
)

// PackageDir is the filesystem location of one installed package under one
// runtime: either a descriptor directory or a bare module file.
type PackageDir struct {
	// Name is the installed name as encoded on disk, e.g. "requests".
	Name string

	// Version is the version encoded in the descriptor directory name.
	// Empty for bare modules, which carry no version on disk.
	Version string

	// Path is the absolute path of the descriptor directory or module file.
	Path string

	// IsDescriptor reports whether Path is a descriptor directory.
	IsDescriptor bool
}

var normalizeRE = regexp.MustCompile(`[-_.]+`)

// NormalizeName canonicalizes a package name for comparison: lowercase,
// with runs of dots, dashes and underscores collapsed to a single dash.
// "Typing_Extensions" and "typing-extensions" normalize identically.
func NormalizeName(name string) string {
	return strings.ToLower(normalizeRE.ReplaceAllString(name, "-"))
}

// isNoise reports whether a site entry is platform-framework noise rather
// than an installed package.
func isNoise(name string) bool {
	if strings.Contains(strings.ToLower(name), "pyobjc") {
		return true
	}
	switch {
	case name == "__pycache__", name == "_distutils_hack":
		return true
	case strings.HasPrefix(name, "__editable__"):
		return true
	}
	return false
}

// parseEntry interprets one installation-directory entry as a package.
// Returns false for entries that are neither descriptor directories nor
// bare module files, and for noise entries.
func parseEntry(site string, de fs.DirEntry) (PackageDir, bool) {
	name := de.Name()
	if isNoise(name) {
		return PackageDir{}, false
	}

	if de.IsDir() {
		if !strings.HasSuffix(name, descriptorSuffix) {
			return PackageDir{}, false
		}
		stem := strings.TrimSuffix(name, descriptorSuffix)
		pkg, ver, _ := strings.Cut(stem, "-")
		if pkg == "" {
			return PackageDir{}, false
		}
		return PackageDir{
			Name:         pkg,
			Version:      ver,
			Path:         filepath.Join(site, name),
			IsDescriptor: true,
		}, true
	}

	if !strings.HasSuffix(name, moduleSuffix) {
		return PackageDir{}, false
	}
	pkg := strings.TrimSuffix(name, moduleSuffix)
	if pkg == "" {
		return PackageDir{}, false
	}
	return PackageDir{Name: pkg, Path: filepath.Join(site, name)}, true
}
