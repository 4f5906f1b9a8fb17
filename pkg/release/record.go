// Package release defines ordering and comparison semantics for published
// releases. A release is a (date, version) record; the package provides a
// total order over records, an operator enum for explicit comparisons, and
// update computation against a version history.
package release

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-version"

	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
)

const (
	// DateLayout is the release-date format used by the registry's
	// history pages, e.g. "Jan 2, 2021".
	DateLayout = "Jan 2, 2006"

	// MinVersion stands in for a missing version during comparisons, so
	// version-less records order before any parsed version.
	MinVersion = "0.0.0"
)

var minVersion = version.Must(version.NewVersion(MinVersion))

// Record is one published release: a (date, version) pair. Either side may
// be absent; comparison falls back to the side both records carry. The raw
// tokens are retained for display and diagnostics.
type Record struct {
	// Date is the publication date, zero when the source carried none.
	Date time.Time

	// Version is the parsed version, nil when the source carried none.
	Version *version.Version

	// DateRaw and VersionRaw are the tokens as scraped.
	DateRaw    string
	VersionRaw string
}

// NewRecord parses raw date and version tokens into a Record. Empty tokens
// are allowed and produce a record missing that side. Malformed non-empty
// tokens fail with a PARSE error.
func NewRecord(dateRaw, versionRaw string) (Record, error) {
	rec := Record{DateRaw: dateRaw, VersionRaw: versionRaw}
	if dateRaw != "" {
		d, err := time.Parse(DateLayout, dateRaw)
		if err != nil {
			return Record{}, pkgerrors.Wrap(pkgerrors.ErrCodeParse, err, "parse release date %q", dateRaw)
		}
		rec.Date = d
	}
	if versionRaw != "" {
		v, err := version.NewVersion(versionRaw)
		if err != nil {
			return Record{}, pkgerrors.Wrap(pkgerrors.ErrCodeParse, err, "parse release version %q", versionRaw)
		}
		rec.Version = v
	}
	return rec, nil
}

// String renders the record for display.
func (r Record) String() string {
	switch {
	case r.DateRaw == "":
		return r.VersionRaw
	case r.VersionRaw == "":
		return r.DateRaw
	default:
		return fmt.Sprintf("%s (%s)", r.VersionRaw, r.DateRaw)
	}
}

// Compare totally orders two records: the date is the primary key and the
// version breaks ties. A record missing its date forces version-only
// comparison, and a record missing its version forces date-only comparison.
// Returns -1, 0, or 1.
func Compare(a, b Record) int {
	if a.Date.IsZero() || b.Date.IsZero() {
		return compareVersions(a.Version, b.Version)
	}
	if a.Version == nil || b.Version == nil {
		return compareDates(a.Date, b.Date)
	}
	if c := compareDates(a.Date, b.Date); c != 0 {
		return c
	}
	return a.Version.Compare(b.Version)
}

func compareDates(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func compareVersions(a, b *version.Version) int {
	return versionOrMin(a).Compare(versionOrMin(b))
}

func versionOrMin(v *version.Version) *version.Version {
	if v == nil {
		return minVersion
	}
	return v
}

// Op is a comparison operator kind.
type Op int

const (
	OpLess Op = iota
	OpLessOrEqual
	OpEqual
	OpNotEqual
	OpGreaterOrEqual
	OpGreater
)

// ParseOp maps an operator spelling to its Op. Both symbolic ("<=") and
// mnemonic ("le") spellings are accepted; the mnemonics spare shell users
// from quoting.
func ParseOp(s string) (Op, error) {
	switch s {
	case "<", "lt":
		return OpLess, nil
	case "<=", "le":
		return OpLessOrEqual, nil
	case "==", "=", "eq":
		return OpEqual, nil
	case "!=", "ne":
		return OpNotEqual, nil
	case ">=", "ge":
		return OpGreaterOrEqual, nil
	case ">", "gt":
		return OpGreater, nil
	default:
		return 0, pkgerrors.New(pkgerrors.ErrCodeInvalidArgument, "unknown comparison operator %q", s)
	}
}

// String returns the symbolic spelling of the operator.
func (op Op) String() string {
	switch op {
	case OpLess:
		return "<"
	case OpLessOrEqual:
		return "<="
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	case OpGreaterOrEqual:
		return ">="
	case OpGreater:
		return ">"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// Evaluate reports whether "a op b" holds under the record total order.
func Evaluate(a, b Record, op Op) (bool, error) {
	c := Compare(a, b)
	switch op {
	case OpLess:
		return c < 0, nil
	case OpLessOrEqual:
		return c <= 0, nil
	case OpEqual:
		return c == 0, nil
	case OpNotEqual:
		return c != 0, nil
	case OpGreaterOrEqual:
		return c >= 0, nil
	case OpGreater:
		return c > 0, nil
	default:
		return false, pkgerrors.New(pkgerrors.ErrCodeInvalidArgument, "unknown comparison operator %v", op)
	}
}
