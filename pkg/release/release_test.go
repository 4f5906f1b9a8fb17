package release

import (
	"testing"

	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
)

func mustRecord(t *testing.T, date, ver string) Record {
	t.Helper()
	r, err := NewRecord(date, ver)
	if err != nil {
		t.Fatalf("NewRecord(%q, %q): %v", date, ver, err)
	}
	return r
}

func sampleHistory(t *testing.T) *History {
	t.Helper()
	return &History{
		Package: "sample",
		Records: []Record{
			mustRecord(t, "Feb 1, 2022", "2.0.0"),
			mustRecord(t, "Jan 1, 2021", "1.0.0"),
		},
	}
}

func TestNewRecordParsing(t *testing.T) {
	r := mustRecord(t, "Jan 2, 2021", "1.2.3")
	if r.Date.Year() != 2021 || r.Date.Month() != 1 || r.Date.Day() != 2 {
		t.Errorf("Date parsed wrong: %v", r.Date)
	}
	if r.Version.String() != "1.2.3" {
		t.Errorf("Version parsed wrong: %v", r.Version)
	}

	// Empty sides are allowed
	dateless := mustRecord(t, "", "1.0.0")
	if !dateless.Date.IsZero() {
		t.Error("Empty date should stay zero")
	}
	versionless := mustRecord(t, "Jan 2, 2021", "")
	if versionless.Version != nil {
		t.Error("Empty version should stay nil")
	}

	// Malformed tokens fail loudly
	if _, err := NewRecord("2021-01-02", "1.0.0"); pkgerrors.GetCode(err) != pkgerrors.ErrCodeParse {
		t.Errorf("Bad date should fail PARSE, got %v", err)
	}
	if _, err := NewRecord("Jan 2, 2021", "one.two"); pkgerrors.GetCode(err) != pkgerrors.ErrCodeParse {
		t.Errorf("Bad version should fail PARSE, got %v", err)
	}
}

func TestCompareDatePrimary(t *testing.T) {
	older := mustRecord(t, "Jan 1, 2021", "9.0.0")
	newer := mustRecord(t, "Feb 1, 2022", "1.0.0")

	// The date decides even when versions point the other way
	if Compare(older, newer) >= 0 {
		t.Error("Earlier date should order first regardless of version")
	}
}

func TestCompareVersionTiebreak(t *testing.T) {
	a := mustRecord(t, "Jan 1, 2021", "1.0.0")
	b := mustRecord(t, "Jan 1, 2021", "1.1.0")
	if Compare(a, b) >= 0 {
		t.Error("Same date should fall back to version order")
	}

	same := mustRecord(t, "Jan 1, 2021", "1.0.0")
	if Compare(a, same) != 0 {
		t.Error("Equal date and version should compare equal")
	}
}

func TestCompareMissingSides(t *testing.T) {
	dated := mustRecord(t, "Jan 1, 2021", "1.0.0")
	dateless := mustRecord(t, "", "2.0.0")

	// A missing date forces version-only comparison
	if Compare(dated, dateless) >= 0 {
		t.Error("1.0.0 should order before 2.0.0 when a date is missing")
	}

	// A missing version forces date-only comparison
	versionless := mustRecord(t, "Feb 1, 2022", "")
	if Compare(dated, versionless) >= 0 {
		t.Error("Earlier date should order first when a version is missing")
	}

	// Missing versions stand in as the minimum version
	empty := Record{}
	if Compare(empty, dateless) >= 0 {
		t.Error("A fully empty record should order before any versioned one")
	}
}

func TestLatestInitialBounds(t *testing.T) {
	h := &History{Package: "sample", Records: []Record{
		mustRecord(t, "Mar 1, 2021", "1.1.0"),
		mustRecord(t, "Jan 1, 2021", "1.0.0"),
		mustRecord(t, "Feb 1, 2022", "2.0.0"),
		mustRecord(t, "Jun 15, 2021", "1.2.0"),
	}}

	latest, err := h.Latest()
	if err != nil {
		t.Fatal(err)
	}
	initial, err := h.Initial()
	if err != nil {
		t.Fatal(err)
	}

	if latest.VersionRaw != "2.0.0" {
		t.Errorf("Latest = %s, want 2.0.0", latest.VersionRaw)
	}
	if initial.VersionRaw != "1.0.0" {
		t.Errorf("Initial = %s, want 1.0.0", initial.VersionRaw)
	}

	// Every record sits between initial and latest
	for _, r := range h.Records {
		if Compare(initial, r) > 0 {
			t.Errorf("initial > %s", r)
		}
		if Compare(r, latest) > 0 {
			t.Errorf("%s > latest", r)
		}
	}
}

func TestLatestEmptyHistory(t *testing.T) {
	h := &History{Package: "empty"}
	if _, err := h.Latest(); pkgerrors.GetCode(err) != pkgerrors.ErrCodeNotFound {
		t.Errorf("Latest on empty history should fail NOT_FOUND, got %v", err)
	}
	if _, err := h.Initial(); pkgerrors.GetCode(err) != pkgerrors.ErrCodeNotFound {
		t.Errorf("Initial on empty history should fail NOT_FOUND, got %v", err)
	}
}

func TestUpdatesAfter(t *testing.T) {
	h := sampleHistory(t)

	updates, err := h.UpdatesAfter("1.0.0")
	if err != nil {
		t.Fatalf("UpdatesAfter(1.0.0) error: %v", err)
	}
	if len(updates) != 1 || updates[0].VersionRaw != "2.0.0" {
		t.Errorf("UpdatesAfter(1.0.0) = %v, want [2.0.0]", updates)
	}

	updates, err = h.UpdatesAfter("2.0.0")
	if err != nil {
		t.Fatalf("UpdatesAfter(2.0.0) error: %v", err)
	}
	if len(updates) != 0 {
		t.Errorf("UpdatesAfter(2.0.0) = %v, want empty", updates)
	}
}

func TestUpdatesAfterLatestIsEmpty(t *testing.T) {
	h := sampleHistory(t)
	latest, err := h.Latest()
	if err != nil {
		t.Fatal(err)
	}
	updates, err := h.UpdatesAfter(latest.VersionRaw)
	if err != nil {
		t.Fatal(err)
	}
	if len(updates) != 0 {
		t.Errorf("UpdatesAfter(latest) = %v, want empty", updates)
	}
}

func TestUpdatesAfterUnknownVersion(t *testing.T) {
	h := sampleHistory(t)
	_, err := h.UpdatesAfter("9.9.9")
	if pkgerrors.GetCode(err) != pkgerrors.ErrCodeVersionNotFound {
		t.Errorf("Unknown version should fail VERSION_NOT_FOUND, got %v", err)
	}
}

func TestUpdatesAfterBadInput(t *testing.T) {
	h := sampleHistory(t)
	_, err := h.UpdatesAfter("not a version")
	if pkgerrors.GetCode(err) != pkgerrors.ErrCodeInvalidArgument {
		t.Errorf("Bad input should fail INVALID_ARGUMENT, got %v", err)
	}
}

func TestIsLatest(t *testing.T) {
	h := sampleHistory(t)

	ok, err := h.IsLatest("2.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("IsLatest(2.0.0) = false, want true")
	}

	// Version equality tolerates different segment counts
	ok, err = h.IsLatest("2.0")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("IsLatest(2.0) = false, want true")
	}

	ok, err = h.IsLatest("1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("IsLatest(1.0.0) = true, want false")
	}
}

func TestSortedByVersionStable(t *testing.T) {
	// Re-published version keeps its source order among equals
	h := &History{Package: "sample", Records: []Record{
		mustRecord(t, "Feb 1, 2021", "1.0.0"),
		mustRecord(t, "Jan 1, 2021", "1.0.0"),
		mustRecord(t, "Mar 1, 2021", "0.9.0"),
	}}
	sorted := h.SortedByVersion()
	if sorted[0].VersionRaw != "0.9.0" {
		t.Errorf("sorted[0] = %s, want 0.9.0", sorted[0].VersionRaw)
	}
	if sorted[1].DateRaw != "Feb 1, 2021" || sorted[2].DateRaw != "Jan 1, 2021" {
		t.Error("Equal versions should keep source order")
	}

	// The original history is untouched
	if h.Records[0].VersionRaw != "1.0.0" {
		t.Error("SortedByVersion should not mutate the history")
	}
}

func TestParseOp(t *testing.T) {
	tests := []struct {
		in   string
		want Op
	}{
		{"<", OpLess}, {"lt", OpLess},
		{"<=", OpLessOrEqual}, {"le", OpLessOrEqual},
		{"==", OpEqual}, {"=", OpEqual}, {"eq", OpEqual},
		{"!=", OpNotEqual}, {"ne", OpNotEqual},
		{">=", OpGreaterOrEqual}, {"ge", OpGreaterOrEqual},
		{">", OpGreater}, {"gt", OpGreater},
	}
	for _, tt := range tests {
		op, err := ParseOp(tt.in)
		if err != nil {
			t.Errorf("ParseOp(%q) error: %v", tt.in, err)
			continue
		}
		if op != tt.want {
			t.Errorf("ParseOp(%q) = %v, want %v", tt.in, op, tt.want)
		}
	}

	if _, err := ParseOp("~="); pkgerrors.GetCode(err) != pkgerrors.ErrCodeInvalidArgument {
		t.Errorf("Unknown operator should fail INVALID_ARGUMENT, got %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	older := mustRecord(t, "Jan 1, 2021", "1.0.0")
	newer := mustRecord(t, "Feb 1, 2022", "2.0.0")

	tests := []struct {
		a, b Record
		op   Op
		want bool
	}{
		{older, newer, OpLess, true},
		{older, newer, OpLessOrEqual, true},
		{older, newer, OpEqual, false},
		{older, newer, OpNotEqual, true},
		{older, newer, OpGreaterOrEqual, false},
		{older, newer, OpGreater, false},
		{older, older, OpEqual, true},
		{newer, older, OpGreater, true},
	}
	for _, tt := range tests {
		got, err := Evaluate(tt.a, tt.b, tt.op)
		if err != nil {
			t.Errorf("Evaluate(%v %v %v) error: %v", tt.a, tt.op, tt.b, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Evaluate(%v %v %v) = %v, want %v", tt.a, tt.op, tt.b, got, tt.want)
		}
	}
}
