package pyenv

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
	"github.com/pyscope/pyscope/pkg/observability"
)

// newTestRoot builds a runtime root containing the given version
// directories, each with a nested empty site-packages directory.
func newTestRoot(t *testing.T, versions ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, v := range versions {
		site := filepath.Join(root, v, "lib", "python"+v, "site-packages")
		if err := os.MkdirAll(site, 0755); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// siteDir returns the site-packages directory for a version under root.
func siteDir(root, version string) string {
	return filepath.Join(root, version, "lib", "python"+version, "site-packages")
}

// installDescriptor creates a <name>-<ver>.dist-info descriptor directory
// with the given files.
func installDescriptor(t *testing.T, root, version, name, ver string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(siteDir(root, version), name+"-"+ver+".dist-info")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for fname, content := range files {
		if err := os.WriteFile(filepath.Join(dir, fname), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// installModule creates a bare <name>.py module file.
func installModule(t *testing.T, root, version, name, content string) string {
	t.Helper()
	path := filepath.Join(siteDir(root, version), name+".py")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDiscoveryRuntimes(t *testing.T) {
	root := newTestRoot(t, "3.8", "3.12")

	// Debian-style naming is recognized too
	if err := os.MkdirAll(filepath.Join(root, "python3.11", "site-packages"), 0755); err != nil {
		t.Fatal(err)
	}
	// Non-version entries are ignored
	if err := os.WriteFile(filepath.Join(root, "Current"), []byte(""), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "shared"), 0755); err != nil {
		t.Fatal(err)
	}

	d := NewDiscovery(root, nil)
	runtimes, err := d.Runtimes(context.Background())
	if err != nil {
		t.Fatalf("Runtimes error: %v", err)
	}

	var names []string
	for _, rt := range runtimes {
		names = append(names, rt.Name)
	}
	want := []string{"3.8", "3.11", "3.12"}
	if len(names) != len(want) {
		t.Fatalf("Runtimes = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Runtimes[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestDiscoveryRuntimesMissingRoot(t *testing.T) {
	d := NewDiscovery(filepath.Join(t.TempDir(), "absent"), nil)
	_, err := d.Runtimes(context.Background())
	if pkgerrors.GetCode(err) != pkgerrors.ErrCodeDiscovery {
		t.Errorf("Missing root should fail with DISCOVERY, got %v", err)
	}
}

func TestDiscoveryRuntimesEmptyRoot(t *testing.T) {
	d := NewDiscovery(t.TempDir(), nil)
	_, err := d.Runtimes(context.Background())
	if pkgerrors.GetCode(err) != pkgerrors.ErrCodeDiscovery {
		t.Errorf("Root without runtimes should fail with DISCOVERY, got %v", err)
	}
}

func TestDiscoveryPackages(t *testing.T) {
	root := newTestRoot(t, "3.12")
	installDescriptor(t, root, "3.12", "requests", "2.25.1", map[string]string{"METADATA": "Name: requests"})
	installModule(t, root, "3.12", "six", "")

	site := siteDir(root, "3.12")
	// Noise and non-package entries are skipped
	for _, dir := range []string{"__pycache__", "_distutils_hack", "__editable__.demo", "pyobjc_core-9.2.dist-info", "requests"} {
		if err := os.MkdirAll(filepath.Join(site, dir), 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(site, "README.txt"), []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	d := NewDiscovery(root, nil)
	runtimes, err := d.Runtimes(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	pkgs, err := d.Packages(context.Background(), runtimes[0])
	if err != nil {
		t.Fatalf("Packages error: %v", err)
	}
	if len(pkgs) != 2 {
		t.Fatalf("Packages = %v, want requests and six", pkgs)
	}

	if pkgs[0].Name != "requests" || !pkgs[0].IsDescriptor || pkgs[0].Version != "2.25.1" {
		t.Errorf("requests entry unexpected: %+v", pkgs[0])
	}
	if pkgs[1].Name != "six" || pkgs[1].IsDescriptor || pkgs[1].Version != "" {
		t.Errorf("six entry unexpected: %+v", pkgs[1])
	}
}

func TestDiscoveryPackagesDescriptorWins(t *testing.T) {
	root := newTestRoot(t, "3.12")
	installModule(t, root, "3.12", "six", "")
	installDescriptor(t, root, "3.12", "six", "1.16.0", nil)

	d := NewDiscovery(root, nil)
	runtimes, err := d.Runtimes(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	pkgs, err := d.Packages(context.Background(), runtimes[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs) != 1 {
		t.Fatalf("Packages = %v, want a single six entry", pkgs)
	}
	if !pkgs[0].IsDescriptor {
		t.Error("Descriptor directory should supersede the bare module")
	}
	if pkgs[0].Version != "1.16.0" {
		t.Errorf("Version = %s, want 1.16.0", pkgs[0].Version)
	}
}

func TestDiscoveryPackagesExcluded(t *testing.T) {
	root := newTestRoot(t, "3.12")
	installDescriptor(t, root, "3.12", "requests", "2.25.1", nil)
	installDescriptor(t, root, "3.12", "internal_tooling", "0.1.0", nil)

	d := NewDiscovery(root, nil)
	d.Exclude = []string{"Internal-Tooling"}
	runtimes, err := d.Runtimes(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	pkgs, err := d.Packages(context.Background(), runtimes[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs) != 1 || pkgs[0].Name != "requests" {
		t.Errorf("Packages = %v, want requests only", pkgs)
	}
}

func TestDiscoveryPackagesNoSiteDir(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "3.12", "lib"), 0755); err != nil {
		t.Fatal(err)
	}

	d := NewDiscovery(root, nil)
	runtimes, err := d.Runtimes(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	_, err = d.Packages(context.Background(), runtimes[0])
	if pkgerrors.GetCode(err) != pkgerrors.ErrCodeDiscovery {
		t.Errorf("Runtime without installation dir should fail with DISCOVERY, got %v", err)
	}
}

type countingScanHooks struct {
	observability.NoopScanHooks
	starts atomic.Int64
}

func (h *countingScanHooks) OnScanStart(ctx context.Context, runtime string) {
	h.starts.Add(1)
}

func TestDiscoveryPackagesMemoized(t *testing.T) {
	root := newTestRoot(t, "3.12")
	installDescriptor(t, root, "3.12", "requests", "2.25.1", nil)

	hooks := &countingScanHooks{}
	observability.SetScanHooks(hooks)
	defer observability.Reset()

	d := NewDiscovery(root, nil)
	runtimes, err := d.Runtimes(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	for range 3 {
		if _, err := d.Packages(context.Background(), runtimes[0]); err != nil {
			t.Fatal(err)
		}
	}
	if got := hooks.starts.Load(); got != 1 {
		t.Errorf("Repeated Packages calls walked %d times, want 1", got)
	}
}

func TestDiscoveryRuntimesCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	d := NewDiscovery(newTestRoot(t, "3.12"), nil)
	if _, err := d.Runtimes(ctx); err == nil {
		t.Error("Cancelled context should fail the scan")
	}
}
