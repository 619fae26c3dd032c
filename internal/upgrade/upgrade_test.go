package upgrade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Manpreet113/ax/internal/aur"
	"github.com/Manpreet113/ax/internal/pacmandb"
)

func TestIsVCSPackage(t *testing.T) {
	assert.True(t, IsVCSPackage("foo-git"))
	assert.True(t, IsVCSPackage("foo-hg"))
	assert.True(t, IsVCSPackage("foo-svn"))
	assert.False(t, IsVCSPackage("foo-bin"))
	assert.False(t, IsVCSPackage("foo-nightly"))
	assert.False(t, IsVCSPackage("foo-dev"))
	assert.False(t, IsVCSPackage("foo"))
}

type fakeForeign struct{ pkgs []pacmandb.ForeignPackage }

func (f fakeForeign) ForeignPackages() ([]pacmandb.ForeignPackage, error) { return f.pkgs, nil }

type fakeAURInfo struct{ infos []aur.Package }

func (f fakeAURInfo) Info(context.Context, []string) ([]aur.Package, error) { return f.infos, nil }

type fakeVCS struct{ behind map[string]bool }

func (f fakeVCS) HasUpstreamUpdate(pkgbase string) (bool, error) { return f.behind[pkgbase], nil }

func TestCheckUpdatesNormalPackage(t *testing.T) {
	db := fakeForeign{pkgs: []pacmandb.ForeignPackage{{Name: "foo", Version: "1.0-1"}}}
	client := fakeAURInfo{infos: []aur.Package{{Name: "foo", Version: "2.0-1"}}}

	records, err := CheckUpdates(context.Background(), db, client, fakeVCS{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "foo", records[0].Name)
	assert.False(t, records[0].VCS)
}

func TestCheckUpdatesUpToDateSkipped(t *testing.T) {
	db := fakeForeign{pkgs: []pacmandb.ForeignPackage{{Name: "foo", Version: "2.0-1"}}}
	client := fakeAURInfo{infos: []aur.Package{{Name: "foo", Version: "2.0-1"}}}

	records, err := CheckUpdates(context.Background(), db, client, fakeVCS{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCheckUpdatesVCSPackage(t *testing.T) {
	db := fakeForeign{pkgs: []pacmandb.ForeignPackage{{Name: "foo-git", Version: "1.0-1"}}}
	client := fakeAURInfo{}
	vcs := fakeVCS{behind: map[string]bool{"foo-git": true}}

	records, err := CheckUpdates(context.Background(), db, client, vcs)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].VCS)
}
