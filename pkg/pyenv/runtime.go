package pyenv

import (
	"regexp"

	"github.com/hashicorp/go-version"
)

// runtimeDirRE recognizes version-labeled runtime directories. Framework
// layouts name them "3.12", Debian layouts "python3.12"; either way the
// runtime identity is the major.minor part.
var runtimeDirRE = regexp.MustCompile(`^(?:python)?(\d+\.\d+)$`)

// Runtime identifies one installed interpreter version.
type Runtime struct {
	// Name is the major.minor version label, e.g. "3.12".
	Name string

	// Dir is the absolute path of the version directory.
	Dir string

	// Ver is the parsed version, used for ordering.
	Ver *version.Version
}

// NewRuntime builds a Runtime from a version label and its directory.
func NewRuntime(name, dir string) (Runtime, error) {
	ver, err := version.NewVersion(name)
	if err != nil {
		return Runtime{}, err
	}
	return Runtime{Name: name, Dir: dir, Ver: ver}, nil
}

// Less orders runtimes by parsed version, oldest first.
func (r Runtime) Less(o Runtime) bool {
	if r.Ver == nil || o.Ver == nil {
		return r.Name < o.Name
	}
	return r.Ver.LessThan(o.Ver)
}

// String returns the version label.
func (r Runtime) String() string {
	return r.Name
}
