// Package pacmandb wraps the native ALPM library (via Jguer/go-alpm, the
// binding yay itself uses) to answer "is this installed", "is this in a
// sync repo", and "what's a user's foreign packages" without shelling out
// to pacman for every query.
package pacmandb

import (
	alpm "github.com/Jguer/go-alpm/v2"

	"github.com/Manpreet113/ax/internal/errdefs"
)

var syncRepos = []string{"core", "extra", "multilib"}

// DB wraps an open ALPM handle against the system root and pacman db.
type DB struct {
	h *alpm.Handle
}

// Open initializes ALPM against / and /var/lib/pacman, registering the
// standard sync databases. Failure (lock held, db missing) is an
// environment error, not a resolution error.
func Open() (*DB, error) {
	h, err := alpm.Initialize("/", "/var/lib/pacman")
	if err != nil {
		return nil, errdefs.Wrap(errdefs.ErrTypeEnv, "", err)
	}
	for _, name := range syncRepos {
		if _, err := h.RegisterSyncDB(name, alpm.SigUseDefault); err != nil {
			_ = h.Release()
			return nil, errdefs.Wrap(errdefs.ErrTypeEnv, name, err)
		}
	}
	return &DB{h: h}, nil
}

func (d *DB) Close() error {
	if d == nil || d.h == nil {
		return nil
	}
	return d.h.Release()
}

// InstalledVersion returns the installed version of name, or "" if it's
// not installed.
func (d *DB) InstalledVersion(name string) (string, error) {
	local, err := d.h.LocalDB()
	if err != nil {
		return "", err
	}
	pkg := local.Pkg(name)
	if pkg == nil {
		return "", nil
	}
	return pkg.Version(), nil
}

// ExistsInRepo reports whether dep is satisfied by some package provided
// by a registered sync database. dep is passed through unstripped (its
// <op><version> constraint intact, if any): ALPM's FindSatisfier
// understands both version constraints and virtual providers, so only the
// AUR RPC lookups get a cleaned, constraint-free name.
func (d *DB) ExistsInRepo(dep string) (bool, error) {
	dbs, err := d.h.SyncDBs()
	if err != nil {
		return false, err
	}
	found := false
	dbs.ForEach(func(db alpm.IDB) error {
		if _, serr := db.PkgCache().FindSatisfier(dep); serr == nil {
			found = true
		}
		return nil
	})
	return found, nil
}

// Search runs a sync-db name/description search for query across all
// registered repos.
func (d *DB) Search(query string) ([]string, error) {
	dbs, err := d.h.SyncDBs()
	if err != nil {
		return nil, err
	}
	var names []string
	dbs.ForEach(func(db alpm.IDB) error {
		matches, serr := db.Search([]string{query})
		if serr != nil {
			return nil
		}
		return matches.ForEach(func(pkg alpm.IPackage) error {
			names = append(names, pkg.Name())
			return nil
		})
	})
	return names, nil
}

// ForeignPackage is an installed package not provided by any sync db,
// i.e. an AUR-origin package (or a locally built one).
type ForeignPackage struct {
	Name    string
	Version string
}

// ForeignPackages lists all installed packages absent from every sync db.
func (d *DB) ForeignPackages() ([]ForeignPackage, error) {
	local, err := d.h.LocalDB()
	if err != nil {
		return nil, err
	}
	dbs, err := d.h.SyncDBs()
	if err != nil {
		return nil, err
	}

	var out []ForeignPackage
	_ = local.PkgCache().ForEach(func(pkg alpm.IPackage) error {
		foreign := true
		dbs.ForEach(func(db alpm.IDB) error {
			if db.Pkg(pkg.Name()) != nil {
				foreign = false
			}
			return nil
		})
		if foreign {
			out = append(out, ForeignPackage{Name: pkg.Name(), Version: pkg.Version()})
		}
		return nil
	})
	return out, nil
}

// Vercmp compares two version strings using ALPM's version-comparison
// rules (epoch/pkgver/pkgrel aware), matching pacman's own semantics.
func Vercmp(a, b string) int {
	return alpm.VerCmp(a, b)
}

// VersionCompare is the resolver-facing method form of Vercmp, used by the
// freshness prune to compare a parsed source version against what's
// installed.
func (d *DB) VersionCompare(a, b string) int {
	return Vercmp(a, b)
}
