package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pyscope/pyscope/pkg/config"
	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
	"github.com/pyscope/pyscope/pkg/release"
)

const requestsHistory = `<!DOCTYPE html>
<html><body>
<div class="release release--latest">
  <p class="release__version">2.26.0</p>
  <time>Feb 1, 2022</time>
</div>
<div class="release">
  <p class="release__version">2.25.1</p>
  <time>Jan 1, 2021</time>
</div>
<div class="release">
  <p class="release__version">2.24.0</p>
  <time>Jun 1, 2020</time>
</div>
</body></html>`

const ghostHistory = `<!DOCTYPE html>
<html><body>
<div class="release release--latest">
  <p class="release__version">2.0.0</p>
  <time>Feb 1, 2022</time>
</div>
<div class="release">
  <p class="release__version">1.0.0</p>
  <time>Jan 1, 2021</time>
</div>
</body></html>`

// newTestSession builds a runtime root with 3.8 and 3.12, installs
// requests under both (2.24.0 and 2.25.1) plus urllib3 under 3.12, and
// points the catalog at a local history server.
func newTestSession(t *testing.T) *Session {
	t.Helper()
	root := t.TempDir()
	install := func(version, name, ver string) {
		dist := filepath.Join(root, version, "lib", "python"+version, "site-packages", name+"-"+ver+".dist-info")
		if err := os.MkdirAll(dist, 0755); err != nil {
			t.Fatal(err)
		}
		meta := fmt.Sprintf("Name: %s\nVersion: %s\n", name, ver)
		if err := os.WriteFile(filepath.Join(dist, "METADATA"), []byte(meta), 0644); err != nil {
			t.Fatal(err)
		}
	}
	install("3.8", "requests", "2.24.0")
	install("3.12", "requests", "2.25.1")
	install("3.12", "urllib3", "1.26.0")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/project/requests/"):
			fmt.Fprint(w, requestsHistory)
		case strings.Contains(r.URL.Path, "/project/ghost/"):
			fmt.Fprint(w, ghostHistory)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	s := New(Options{Root: root})
	s.Catalog.IndexBase = server.URL
	s.Catalog.RetryDelay = time.Millisecond
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRuntimes(t *testing.T) {
	s := newTestSession(t)

	rts, err := s.Runtimes(context.Background())
	if err != nil {
		t.Fatalf("Runtimes() error: %v", err)
	}
	if len(rts) != 2 {
		t.Fatalf("Runtimes() = %d entries, want 2", len(rts))
	}
	if rts[0].Name != "3.8" || rts[1].Name != "3.12" {
		t.Errorf("Runtimes() = [%s, %s], want [3.8, 3.12]", rts[0].Name, rts[1].Name)
	}
}

func TestSessionDefaultRuntime(t *testing.T) {
	s := newTestSession(t)

	rt, err := s.DefaultRuntime(context.Background())
	if err != nil {
		t.Fatalf("DefaultRuntime() error: %v", err)
	}
	if rt.Name != "3.12" {
		t.Errorf("DefaultRuntime() = %s, want 3.12", rt.Name)
	}
}

func TestSessionPackagesEager(t *testing.T) {
	s := newTestSession(t)

	recs, err := s.Packages(context.Background(), "3.12")
	if err != nil {
		t.Fatalf("Packages() error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("Packages() = %d records, want 2", len(recs))
	}
	if recs[0].Name != "requests" || recs[0].Version != "2.25.1" {
		t.Errorf("Packages()[0] = %s %s, want requests 2.25.1", recs[0].Name, recs[0].Version)
	}
	if recs[1].Name != "urllib3" || recs[1].Version != "1.26.0" {
		t.Errorf("Packages()[1] = %s %s, want urllib3 1.26.0", recs[1].Name, recs[1].Version)
	}
}

func TestSessionInspectAllLazy(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	var names []string
	for rec, err := range s.InspectAll(ctx, "3.12") {
		if err != nil {
			t.Fatalf("InspectAll yielded error: %v", err)
		}
		names = append(names, rec.Name)
	}
	if len(names) != 2 || names[0] != "requests" || names[1] != "urllib3" {
		t.Errorf("InspectAll yielded %v, want [requests urllib3]", names)
	}

	// Breaking early stops the iteration cleanly
	count := 0
	for _, err := range s.InspectAll(ctx, "3.12") {
		if err != nil {
			t.Fatal(err)
		}
		count++
		break
	}
	if count != 1 {
		t.Errorf("early break consumed %d records, want 1", count)
	}
}

func TestSessionInspectAllUnknownRuntime(t *testing.T) {
	s := newTestSession(t)

	yields := 0
	for _, err := range s.InspectAll(context.Background(), "9.9") {
		yields++
		if pkgerrors.GetCode(err) != pkgerrors.ErrCodeRuntimeNotFound {
			t.Errorf("InspectAll(9.9) should yield RUNTIME_NOT_FOUND, got %v", err)
		}
	}
	if yields != 1 {
		t.Errorf("InspectAll(9.9) yielded %d times, want 1", yields)
	}
}

func TestSessionInspectTypoResolves(t *testing.T) {
	s := newTestSession(t)

	v, err := s.Inspect(context.Background(), "reqeusts", "3.12", "version")
	if err != nil {
		t.Fatalf("Inspect(reqeusts) error: %v", err)
	}
	if v != "2.25.1" {
		t.Errorf("Inspect(reqeusts, version) = %v, want 2.25.1", v)
	}
}

func TestSessionInspectRemoteFallback(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	// Not installed anywhere, but the query is answerable from the catalog
	v, err := s.Inspect(ctx, "ghost", "3.12", "latest version")
	if err != nil {
		t.Fatalf("Inspect(ghost, latest version) error: %v", err)
	}
	if v != "2.0.0" {
		t.Errorf("Inspect(ghost, latest version) = %v, want 2.0.0", v)
	}

	// A local-only query still fails as not installed
	_, err = s.Inspect(ctx, "ghost", "3.12", "version")
	if pkgerrors.GetCode(err) != pkgerrors.ErrCodePackageNotFound {
		t.Errorf("Inspect(ghost, version) should fail PACKAGE_NOT_FOUND, got %v", err)
	}
}

func TestSessionInspectRemoteDirect(t *testing.T) {
	s := newTestSession(t)

	n, err := s.InspectRemote(context.Background(), "Ghost", "release count")
	if err != nil {
		t.Fatalf("InspectRemote error: %v", err)
	}
	if n != 2 {
		t.Errorf("InspectRemote(Ghost, release count) = %v, want 2", n)
	}
}

func TestSessionUpdatesDefaultCurrent(t *testing.T) {
	s := newTestSession(t)

	// Current defaults to the version under the newest runtime: 2.25.1
	updates, err := s.Updates(context.Background(), "requests", "")
	if err != nil {
		t.Fatalf("Updates() error: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("Updates() = %d records, want 1", len(updates))
	}
	if updates[0].VersionRaw != "2.26.0" {
		t.Errorf("Updates()[0] = %s, want 2.26.0", updates[0].VersionRaw)
	}
}

func TestSessionUpdatesExplicitCurrent(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	updates, err := s.Updates(ctx, "requests", "2.24.0")
	if err != nil {
		t.Fatalf("Updates(2.24.0) error: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("Updates(2.24.0) = %d records, want 2", len(updates))
	}

	// Already at the latest release: empty result, not an error
	updates, err = s.Updates(ctx, "requests", "2.26.0")
	if err != nil {
		t.Fatalf("Updates(2.26.0) error: %v", err)
	}
	if len(updates) != 0 {
		t.Errorf("Updates(2.26.0) = %d records, want 0", len(updates))
	}
}

func TestSessionCompareAcross(t *testing.T) {
	s := newTestSession(t)

	cmp, err := s.CompareAcross(context.Background(), "requests", "3.12", "3.8", "")
	if err != nil {
		t.Fatalf("CompareAcross error: %v", err)
	}
	if cmp.Field != "version" {
		t.Errorf("Field = %q, want version (the default)", cmp.Field)
	}
	if cmp.A.Runtime != "3.12" || cmp.A.Value != "2.25.1" {
		t.Errorf("A = %s %v, want 3.12 2.25.1", cmp.A.Runtime, cmp.A.Value)
	}
	if cmp.B.Runtime != "3.8" || cmp.B.Value != "2.24.0" {
		t.Errorf("B = %s %v, want 3.8 2.24.0", cmp.B.Runtime, cmp.B.Value)
	}
}

func TestSessionEvaluateAcross(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	newer, err := s.EvaluateAcross(ctx, "requests", "3.12", "3.8", "", release.OpGreater)
	if err != nil {
		t.Fatalf("EvaluateAcross error: %v", err)
	}
	if !newer {
		t.Error("2.25.1 under 3.12 should evaluate greater than 2.24.0 under 3.8")
	}

	older, err := s.EvaluateAcross(ctx, "requests", "3.12", "3.8", "", release.OpLess)
	if err != nil {
		t.Fatal(err)
	}
	if older {
		t.Error("2.25.1 under 3.12 should not evaluate less than 2.24.0 under 3.8")
	}
}

func TestSessionEvaluateAcrossNonVersionField(t *testing.T) {
	s := newTestSession(t)

	_, err := s.EvaluateAcross(context.Background(), "requests", "3.12", "3.8", "name", release.OpEqual)
	if pkgerrors.GetCode(err) != pkgerrors.ErrCodeInvalidArgument {
		t.Errorf("evaluating a non-version field should fail INVALID_ARGUMENT, got %v", err)
	}
}

func TestSessionCompareAcrossUnansweredField(t *testing.T) {
	s := newTestSession(t)

	_, err := s.CompareAcross(context.Background(), "requests", "3.12", "3.8", "no such field")
	if pkgerrors.GetCode(err) != pkgerrors.ErrCodeFieldNotFound {
		t.Fatalf("comparing an unanswered field should fail FIELD_NOT_FOUND, got %v", err)
	}
	if !strings.Contains(err.Error(), "closest match") {
		t.Errorf("error should suggest the closest field, got %q", err)
	}
}

func TestSessionNewFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Discovery.Root = t.TempDir()
	cfg.Cache.Backend = "none"
	cfg.Workers.Count = 2
	cfg.Network.UserAgent = "custom-agent/1.0"
	cfg.Network.RetryInitialMS = 5
	cfg.Network.IndexBase = "https://mirror.example.com"
	cfg.Cache.TTLHours = 6

	s, err := NewFromConfig(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig error: %v", err)
	}
	defer s.Close()

	if s.Workers != 2 {
		t.Errorf("Workers = %d, want 2", s.Workers)
	}
	if s.Catalog.UserAgent != "custom-agent/1.0" {
		t.Errorf("UserAgent = %q, want custom-agent/1.0", s.Catalog.UserAgent)
	}
	if s.Catalog.RetryDelay != 5*time.Millisecond {
		t.Errorf("RetryDelay = %v, want 5ms", s.Catalog.RetryDelay)
	}
	if s.Catalog.TTL != 6*time.Hour {
		t.Errorf("TTL = %v, want 6h", s.Catalog.TTL)
	}
	if s.Catalog.IndexBase != "https://mirror.example.com" {
		t.Errorf("IndexBase = %q, want the mirror", s.Catalog.IndexBase)
	}
}

func TestSessionClose(t *testing.T) {
	s := New(Options{Root: t.TempDir()})
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
}
