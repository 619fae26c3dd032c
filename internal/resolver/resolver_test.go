package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Manpreet113/ax/internal/aur"
	"github.com/Manpreet113/ax/internal/srcinfo"
)

type fakeDB struct {
	repoPkgs  map[string]bool
	installed map[string]string
}

func (f *fakeDB) ExistsInRepo(name string) (bool, error) { return f.repoPkgs[name], nil }
func (f *fakeDB) InstalledVersion(name string) (string, error) {
	return f.installed[name], nil
}
func (f *fakeDB) VersionCompare(a, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

type fakeAUR struct {
	bases map[string]string // name -> pkgbase
}

func (f *fakeAUR) Info(_ context.Context, names []string) ([]aur.Package, error) {
	var out []aur.Package
	for _, n := range names {
		if base, ok := f.bases[n]; ok {
			out = append(out, aur.Package{Name: n, PackageBase: base})
		}
	}
	return out, nil
}

type fakeTree struct{}

func (fakeTree) EnsureCloned(pkgbase string) (string, error) { return pkgbase, nil }
func (fakeTree) HasUpstreamUpdate(string) (bool, error)      { return false, nil }

func fakeParseFor(metas map[string]*srcinfo.Metadata) ParseFunc {
	return func(dir string) (*srcinfo.Metadata, error) {
		if m, ok := metas[dir]; ok {
			return m, nil
		}
		return &srcinfo.Metadata{}, nil
	}
}

func noKeys(context.Context, []string) bool { return true }

func TestResolveSplitsRepoAndAURQueues(t *testing.T) {
	db := &fakeDB{repoPkgs: map[string]bool{"repodep": true}}
	aurClient := &fakeAUR{bases: map[string]string{
		"myaurpkg": "myaurpkg",
		"aurdep":   "aurdep",
	}}
	metas := map[string]*srcinfo.Metadata{
		"myaurpkg": {PkgBase: "myaurpkg", Depends: []string{"repodep", "aurdep"}},
		"aurdep":   {PkgBase: "aurdep"},
	}

	r := &Resolver{DB: db, AUR: aurClient, Tree: fakeTree{}, Parse: fakeParseFor(metas), EnsureKeys: noKeys}
	plan, err := r.Resolve(context.Background(), []string{"myaurpkg"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"repodep"}, plan.RepoQueue)
	assert.Equal(t, []string{"aurdep", "myaurpkg"}, plan.BuildQueue)
}

func TestResolveDisjointRepoAndBuildSets(t *testing.T) {
	db := &fakeDB{repoPkgs: map[string]bool{"repodep": true}}
	aurClient := &fakeAUR{bases: map[string]string{"myaurpkg": "myaurpkg"}}
	metas := map[string]*srcinfo.Metadata{
		"myaurpkg": {PkgBase: "myaurpkg", Depends: []string{"repodep"}},
	}

	r := &Resolver{DB: db, AUR: aurClient, Tree: fakeTree{}, Parse: fakeParseFor(metas), EnsureKeys: noKeys}
	plan, err := r.Resolve(context.Background(), []string{"myaurpkg"})
	require.NoError(t, err)

	repoSet := make(map[string]bool)
	for _, n := range plan.RepoQueue {
		repoSet[n] = true
	}
	for _, n := range plan.BuildQueue {
		assert.False(t, repoSet[n], "package %s present in both repo and build queues", n)
	}
}

func TestResolveUnknownPackageIsResolutionError(t *testing.T) {
	db := &fakeDB{repoPkgs: map[string]bool{}}
	aurClient := &fakeAUR{bases: map[string]string{}}

	r := &Resolver{DB: db, AUR: aurClient, Tree: fakeTree{}, Parse: fakeParseFor(nil), EnsureKeys: noKeys}
	_, err := r.Resolve(context.Background(), []string{"doesnotexist"})
	assert.Error(t, err)
}

func TestResolveTransitiveAURChain(t *testing.T) {
	db := &fakeDB{repoPkgs: map[string]bool{}}
	aurClient := &fakeAUR{bases: map[string]string{
		"top": "top", "mid": "mid", "leaf": "leaf",
	}}
	metas := map[string]*srcinfo.Metadata{
		"top":  {PkgBase: "top", Depends: []string{"mid"}},
		"mid":  {PkgBase: "mid", Depends: []string{"leaf"}},
		"leaf": {PkgBase: "leaf"},
	}

	r := &Resolver{DB: db, AUR: aurClient, Tree: fakeTree{}, Parse: fakeParseFor(metas), EnsureKeys: noKeys}
	plan, err := r.Resolve(context.Background(), []string{"top"})
	require.NoError(t, err)
	assert.Equal(t, []string{"leaf", "mid", "top"}, plan.BuildQueue)
}

func TestResolvePrunesAlreadyInstalledBase(t *testing.T) {
	db := &fakeDB{repoPkgs: map[string]bool{}, installed: map[string]string{"myaurpkg": "1.0-1"}}
	aurClient := &fakeAUR{bases: map[string]string{"myaurpkg": "myaurpkg"}}
	metas := map[string]*srcinfo.Metadata{
		"myaurpkg": {PkgBase: "myaurpkg", Version: "1.0-1"},
	}

	r := &Resolver{DB: db, AUR: aurClient, Tree: fakeTree{}, Parse: fakeParseFor(metas), EnsureKeys: noKeys}
	plan, err := r.Resolve(context.Background(), []string{"myaurpkg"})
	require.NoError(t, err)
	assert.Empty(t, plan.BuildQueue)
}

func TestResolveArchMismatchFails(t *testing.T) {
	db := &fakeDB{repoPkgs: map[string]bool{}}
	aurClient := &fakeAUR{bases: map[string]string{"myaurpkg": "myaurpkg"}}
	metas := map[string]*srcinfo.Metadata{
		"myaurpkg": {PkgBase: "myaurpkg", Arch: []string{"sparc64"}},
	}

	r := &Resolver{DB: db, AUR: aurClient, Tree: fakeTree{}, Parse: fakeParseFor(metas), EnsureKeys: noKeys}
	_, err := r.Resolve(context.Background(), []string{"myaurpkg"})
	assert.Error(t, err)
}

func TestResolveCyclicDependencyFallsBackToLexicographicOrder(t *testing.T) {
	db := &fakeDB{repoPkgs: map[string]bool{}}
	aurClient := &fakeAUR{bases: map[string]string{"top": "top", "mid": "mid"}}
	metas := map[string]*srcinfo.Metadata{
		"top": {PkgBase: "top", Depends: []string{"mid"}},
		"mid": {PkgBase: "mid", Depends: []string{"top"}},
	}

	r := &Resolver{DB: db, AUR: aurClient, Tree: fakeTree{}, Parse: fakeParseFor(metas), EnsureKeys: noKeys}
	plan, err := r.Resolve(context.Background(), []string{"top"})
	require.NoError(t, err)
	assert.Equal(t, []string{"mid", "top"}, plan.BuildQueue)
}
