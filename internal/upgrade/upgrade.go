// Package upgrade computes the set of foreign (AUR-origin) packages that
// have a newer version available, either via ordinary version comparison
// against the AUR or, for VCS packages, by checking whether the cloned
// source tree is behind its upstream.
package upgrade

import (
	"context"

	"github.com/Manpreet113/ax/internal/aur"
	"github.com/Manpreet113/ax/internal/errdefs"
	"github.com/Manpreet113/ax/internal/pacmandb"
)

// vcsSuffixes intentionally narrower than some legacy helper lists:
// "-nightly"/"-dev" are ordinary version-compared packages here, and
// "-bin" is never VCS regardless of its name.
var vcsSuffixes = []string{"-git", "-hg", "-svn", "-bzr", "-darcs", "-cvs"}

// IsVCSPackage reports whether name carries one of the recognized VCS
// suffixes.
func IsVCSPackage(name string) bool {
	for _, suf := range vcsSuffixes {
		if len(name) > len(suf) && name[len(name)-len(suf):] == suf {
			return true
		}
	}
	return false
}

// Record is one package with an upgrade available.
type Record struct {
	Name       string
	OldVersion string
	NewVersion string
	VCS        bool
}

// ForeignLister is the subset of pacmandb.DB the planner needs.
type ForeignLister interface {
	ForeignPackages() ([]pacmandb.ForeignPackage, error)
}

// AURInfo is the subset of aur.Client the planner needs.
type AURInfo interface {
	Info(ctx context.Context, names []string) ([]aur.Package, error)
}

// VCSChecker reports whether a VCS package base is behind its upstream,
// satisfied by internal/srctree.Cache.
type VCSChecker interface {
	HasUpstreamUpdate(pkgbase string) (bool, error)
}

// CheckUpdates returns upgrade records for every foreign package with a
// newer version, deduplicated by name, preserving first-seen order.
func CheckUpdates(ctx context.Context, db ForeignLister, client AURInfo, vcs VCSChecker) ([]Record, error) {
	foreign, err := db.ForeignPackages()
	if err != nil {
		return nil, errdefs.Wrap(errdefs.ErrTypeResolution, "", err)
	}

	var normal []pacmandb.ForeignPackage
	var vcsPkgs []pacmandb.ForeignPackage
	for _, p := range foreign {
		if IsVCSPackage(p.Name) {
			vcsPkgs = append(vcsPkgs, p)
		} else {
			normal = append(normal, p)
		}
	}

	var records []Record
	seen := make(map[string]bool)

	if len(normal) > 0 {
		names := make([]string, len(normal))
		byName := make(map[string]pacmandb.ForeignPackage, len(normal))
		for i, p := range normal {
			names[i] = p.Name
			byName[p.Name] = p
		}
		infos, err := client.Info(ctx, names)
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			local, ok := byName[info.Name]
			if !ok || seen[info.Name] {
				continue
			}
			if pacmandb.Vercmp(local.Version, info.Version) < 0 {
				seen[info.Name] = true
				records = append(records, Record{
					Name:       info.Name,
					OldVersion: local.Version,
					NewVersion: info.Version,
				})
			}
		}
	}

	for _, p := range vcsPkgs {
		if seen[p.Name] {
			continue
		}
		behind, err := vcs.HasUpstreamUpdate(p.Name)
		if err != nil {
			continue // freshness check best-effort: skip, don't fail the whole upgrade
		}
		if behind {
			seen[p.Name] = true
			records = append(records, Record{Name: p.Name, OldVersion: p.Version, NewVersion: "latest", VCS: true})
		}
	}

	return records, nil
}
