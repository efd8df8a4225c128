// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mondoo.com/npmscan/registry"
)

func writePackage(t *testing.T, fs afero.Fs, dir string, name string, version string) {
	t.Helper()
	manifest := fmt.Sprintf(`{"name": %q, "version": %q, "description": "test fixture"}`, name, version)
	require.NoError(t, fs.MkdirAll(dir, 0o755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, "package.json"), []byte(manifest), 0o644))
}

func testRegistry() *registry.Registry {
	return registry.NewRegistry(
		registry.CompromisedRecord{Name: "left-pad", Version: "1.2.3", Advisory: "GHSA-aaaa"},
		registry.CompromisedRecord{Name: "evil-pkg", Version: "9.9.9", Advisory: "adv1"},
		registry.CompromisedRecord{Name: "@bad/actor", Version: "0.0.1", Advisory: "adv2"},
	)
}

func TestScanExactMatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePackage(t, fs, "/home/alice/app/node_modules/left-pad", "left-pad", "1.2.3")
	writePackage(t, fs, "/home/alice/app/node_modules/lodash", "lodash", "4.17.21")

	scanner := NewLocalScanner(WithFs(fs))
	res, err := scanner.Run(context.Background(), &Job{
		Registry: testRegistry(),
		Roots:    []string{"/home/alice"},
	})
	require.NoError(t, err)

	require.Len(t, res.Findings, 1)
	f := res.Findings[0]
	assert.Equal(t, "left-pad", f.Package.Name)
	assert.Equal(t, "1.2.3", f.Package.Version)
	assert.Equal(t, f.Package.Name, f.Record.Name)
	assert.Equal(t, f.Package.Version, f.Record.Version)
	assert.Equal(t, "/home/alice", f.Package.InstallRoot)
	assert.Equal(t, int64(2), res.Summary.ManifestsRead)
}

func TestScanVersionMismatchIsClean(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePackage(t, fs, "/srv/app/node_modules/left-pad", "left-pad", "1.2.4")

	scanner := NewLocalScanner(WithFs(fs))
	res, err := scanner.Run(context.Background(), &Job{Registry: testRegistry(), Roots: []string{"/srv"}})
	require.NoError(t, err)

	assert.Empty(t, res.Findings)
	assert.Equal(t, int64(1), res.Summary.ManifestsRead)
}

func TestScanScopedPackages(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePackage(t, fs, "/srv/app/node_modules/@bad/actor", "@bad/actor", "0.0.1")

	scanner := NewLocalScanner(WithFs(fs))
	res, err := scanner.Run(context.Background(), &Job{Registry: testRegistry(), Roots: []string{"/srv"}})
	require.NoError(t, err)

	require.Len(t, res.Findings, 1)
	assert.Equal(t, "@bad/actor", res.Findings[0].Package.Name)
}

func TestScanDuplicateInstallsAreDistinct(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePackage(t, fs, "/srv/one/node_modules/evil-pkg", "evil-pkg", "9.9.9")
	writePackage(t, fs, "/srv/two/node_modules/evil-pkg", "evil-pkg", "9.9.9")
	// nested install below another package is its own occurrence as well
	writePackage(t, fs, "/srv/one/node_modules/lodash/node_modules/evil-pkg", "evil-pkg", "9.9.9")

	scanner := NewLocalScanner(WithFs(fs))
	res, err := scanner.Run(context.Background(), &Job{Registry: testRegistry(), Roots: []string{"/srv"}})
	require.NoError(t, err)

	assert.Len(t, res.Findings, 3)
}

func TestScanCorruptManifestIsNotFatal(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePackage(t, fs, "/srv/app/node_modules/evil-pkg", "evil-pkg", "9.9.9")
	writePackage(t, fs, "/srv/app/node_modules/ok-pkg", "ok-pkg", "1.0.0")
	require.NoError(t, afero.WriteFile(fs, "/srv/app/node_modules/broken/package.json", []byte("{ not json"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/srv/app/node_modules/nameless/package.json", []byte(`{"version":"1.0.0"}`), 0o644))

	scanner := NewLocalScanner(WithFs(fs))
	res, err := scanner.Run(context.Background(), &Job{Registry: testRegistry(), Roots: []string{"/srv"}})
	require.NoError(t, err)

	assert.Len(t, res.Findings, 1)
	assert.Equal(t, int64(2), res.Summary.ManifestsRead)
	assert.Equal(t, int64(2), res.Summary.ManifestsSkipped)
}

// denyOpenFs fails Open for selected paths, which is as close to
// permission-denied directories as in-memory filesystems get.
type denyOpenFs struct {
	afero.Fs
	denied map[string]struct{}
}

func (d *denyOpenFs) Open(name string) (afero.File, error) {
	if _, ok := d.denied[name]; ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return d.Fs.Open(name)
}

func TestScanUnreadableDirIsSkipped(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePackage(t, fs, "/srv/app/node_modules/evil-pkg", "evil-pkg", "9.9.9")
	writePackage(t, fs, "/srv/locked/node_modules/evil-pkg", "evil-pkg", "9.9.9")
	denied := &denyOpenFs{Fs: fs, denied: map[string]struct{}{"/srv/locked": {}}}

	scanner := NewLocalScanner(WithFs(denied))
	res, err := scanner.Run(context.Background(), &Job{Registry: testRegistry(), Roots: []string{"/srv"}})
	require.NoError(t, err)

	// the sibling of the unreadable directory is still scanned
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "/srv/app/node_modules/evil-pkg/package.json", res.Findings[0].Package.ManifestPath)
	assert.Equal(t, int64(1), res.Summary.DirsSkipped)
	assert.Equal(t, int64(1), res.Summary.RootsScanned)
}

func TestScanUnreadableRootIsNotReachable(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePackage(t, fs, "/srv/app/node_modules/evil-pkg", "evil-pkg", "9.9.9")
	writePackage(t, fs, "/other/app/node_modules/left-pad", "left-pad", "1.2.3")
	denied := &denyOpenFs{Fs: fs, denied: map[string]struct{}{"/srv": {}}}

	// a root that exists but cannot be opened was never scanned
	scanner := NewLocalScanner(WithFs(denied))
	_, err := scanner.Run(context.Background(), &Job{Registry: testRegistry(), Roots: []string{"/srv"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoReachableRoots))

	// with a readable sibling root the run completes and counts the skip
	res, err := scanner.Run(context.Background(), &Job{
		Registry: testRegistry(),
		Roots:    []string{"/srv", "/other"},
	})
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "left-pad", res.Findings[0].Package.Name)
	assert.Equal(t, int64(1), res.Summary.RootsScanned)
	assert.Equal(t, int64(1), res.Summary.RootsSkipped)
	assert.Equal(t, int64(0), res.Summary.DirsSkipped)
}

func TestScanMissingRootTolerance(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePackage(t, fs, "/srv/app/node_modules/evil-pkg", "evil-pkg", "9.9.9")

	scanner := NewLocalScanner(WithFs(fs))
	res, err := scanner.Run(context.Background(), &Job{
		Registry: testRegistry(),
		Roots:    []string{"/does/not/exist", "/srv"},
	})
	require.NoError(t, err)

	assert.Len(t, res.Findings, 1)
	assert.Equal(t, int64(1), res.Summary.RootsScanned)
	assert.Equal(t, int64(1), res.Summary.RootsSkipped)
}

func TestScanNoReachableRoots(t *testing.T) {
	scanner := NewLocalScanner(WithFs(afero.NewMemMapFs()))

	_, err := scanner.Run(context.Background(), &Job{
		Registry: testRegistry(),
		Roots:    []string{"/nope", "/also/nope"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoReachableRoots))

	_, err = scanner.Run(context.Background(), &Job{Registry: testRegistry()})
	assert.True(t, errors.Is(err, ErrNoReachableRoots))
}

func TestScanOrderingIsDeterministic(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, root := range []string{"/srv/a", "/srv/b", "/srv/c"} {
		writePackage(t, fs, root+"/app/node_modules/evil-pkg", "evil-pkg", "9.9.9")
		writePackage(t, fs, root+"/app/node_modules/left-pad", "left-pad", "1.2.3")
	}

	job := &Job{
		Registry: testRegistry(),
		Roots:    []string{"/srv/a", "/srv/b", "/srv/c"},
	}

	scanner := NewLocalScanner(WithFs(fs), WithWorkers(3))
	first, err := scanner.Run(context.Background(), job)
	require.NoError(t, err)
	second, err := scanner.Run(context.Background(), job)
	require.NoError(t, err)

	require.Len(t, first.Findings, 6)
	assert.Equal(t, first.Findings, second.Findings)
	// sorted by install root, then manifest path
	assert.Equal(t, "/srv/a", first.Findings[0].Package.InstallRoot)
	assert.Equal(t, "evil-pkg", first.Findings[0].Package.Name)
}

func TestScanDepthLimit(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePackage(t, fs, "/srv/app/node_modules/evil-pkg", "evil-pkg", "9.9.9")
	writePackage(t, fs, "/srv/deep/a/b/c/d/e/f/node_modules/evil-pkg", "evil-pkg", "9.9.9")

	scanner := NewLocalScanner(WithFs(fs), WithMaxDepth(4))
	res, err := scanner.Run(context.Background(), &Job{Registry: testRegistry(), Roots: []string{"/srv"}})
	require.NoError(t, err)

	// only the shallow install is within reach
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "/srv/app/node_modules/evil-pkg/package.json", res.Findings[0].Package.ManifestPath)
}

func TestScanSymlinkCycleTerminates(t *testing.T) {
	dir := t.TempDir()

	pkgDir := filepath.Join(dir, "app", "node_modules", "evil-pkg")
	require.NoError(t, os.MkdirAll(pkgDir, 0o755))
	manifest := []byte(`{"name": "evil-pkg", "version": "9.9.9"}`)
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "package.json"), manifest, 0o644))

	// loop back up to the scan root
	require.NoError(t, os.Symlink(dir, filepath.Join(dir, "app", "loop")))

	scanner := NewLocalScanner(WithWorkers(1))
	res, err := scanner.Run(context.Background(), &Job{Registry: testRegistry(), Roots: []string{dir}})
	require.NoError(t, err)

	require.Len(t, res.Findings, 1)
	assert.Equal(t, "evil-pkg", res.Findings[0].Package.Name)
}

func TestIsPackageDir(t *testing.T) {
	assert.True(t, isPackageDir("/srv/app/node_modules/lodash"))
	assert.True(t, isPackageDir("/srv/app/node_modules/@scope/pkg"))
	assert.False(t, isPackageDir("/srv/app/node_modules/@scope"))
	assert.False(t, isPackageDir("/srv/app/node_modules/.bin"))
	assert.False(t, isPackageDir("/srv/app/src"))
	assert.False(t, isPackageDir("/srv/app"))
}
