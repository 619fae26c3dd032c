// Package resolver is ax's dependency resolution engine: given a set of
// requested package names, it produces a repo-install batch (handed
// straight to pacman) and an AUR build queue in dependency-first order,
// by iteratively closing over dependencies the way
// JustTNE-repoctl's pacman/graph.Factory builds its graph — a worklist
// of unresolved names, classified batch by batch against the local repo
// database and, for whatever's left, the AUR.
package resolver

import (
	"context"

	"github.com/Manpreet113/ax/internal/aur"
	"github.com/Manpreet113/ax/internal/depgraph"
	"github.com/Manpreet113/ax/internal/errdefs"
	"github.com/Manpreet113/ax/internal/keys"
	"github.com/Manpreet113/ax/internal/log"
	"github.com/Manpreet113/ax/internal/srcinfo"
	"github.com/Manpreet113/ax/internal/upgrade"
)

// PackageDB is the subset of internal/pacmandb the resolver needs.
// Expressed as an interface so tests can supply a fake sync database.
type PackageDB interface {
	ExistsInRepo(dep string) (bool, error)
	InstalledVersion(name string) (string, error)
	VersionCompare(a, b string) int
}

// AURClient is the subset of internal/aur the resolver needs.
type AURClient interface {
	Info(ctx context.Context, names []string) ([]aur.Package, error)
}

// SourceTree is the subset of internal/srctree the resolver needs.
type SourceTree interface {
	EnsureCloned(pkgbase string) (string, error)
	HasUpstreamUpdate(pkgbase string) (bool, error)
}

// ParseFunc parses a cloned source tree's metadata; normally
// srcinfo.Parse, substituted in tests.
type ParseFunc func(dir string) (*srcinfo.Metadata, error)

// KeyEnsureFunc ensures a package's PGP keys are available; normally
// keys.EnsureKeys, substituted in tests.
type KeyEnsureFunc func(ctx context.Context, keyIDs []string) bool

// Plan is the resolver's output: packages pacman can install directly,
// and AUR package bases to build, in dependency-first order.
type Plan struct {
	RepoQueue  []string
	BuildQueue []string
	// Requested maps each build-queue pkgbase to the specific pkgnames
	// that were actually wanted (requested directly or pulled in as a
	// dependency), so split-package artifact installs can filter down to
	// just those rather than every name makepkg produced.
	Requested map[string][]string
	Graph     *depgraph.Graph
}

// Resolver ties the local package db, the AUR client, and the source
// tree cache together into the resolution algorithm.
type Resolver struct {
	DB         PackageDB
	AUR        AURClient
	Tree       SourceTree
	Parse      ParseFunc
	EnsureKeys KeyEnsureFunc
}

func New(db PackageDB, client AURClient, tree SourceTree) *Resolver {
	return &Resolver{
		DB:         db,
		AUR:        client,
		Tree:       tree,
		Parse:      srcinfo.Parse,
		EnsureKeys: keys.EnsureKeys,
	}
}

// candidate is a dependency string awaiting classification, tagged with
// the AUR base (if any) that introduced it, for graph-edge bookkeeping.
// raw keeps the original, unstripped dependency string (e.g. "foo>=1.2")
// since only the native repo database understands version constraints
// and providers; name is the CleanDependency'd form used as the AUR's
// and the resolver's own identity key.
type candidate struct {
	name     string
	raw      string
	fromBase string // "" for a top-level request
}

// Resolve computes a Plan for the given top-level package names.
func (r *Resolver) Resolve(ctx context.Context, names []string) (*Plan, error) {
	graph := depgraph.New()
	visited := make(map[string]bool)    // clean dependency names already classified
	repoSeen := make(map[string]bool)   // dedup repo queue
	baseCloned := make(map[string]bool) // AUR pkgbase already cloned+parsed
	baseVersion := make(map[string]string)
	baseOf := make(map[string]string) // AUR pkgname -> its pkgbase
	requested := make(map[string][]string)
	var repoQueue []string

	worklist := make([]candidate, 0, len(names))
	for _, n := range names {
		worklist = append(worklist, candidate{name: CleanDependency(n), raw: n})
	}

	for len(worklist) > 0 {
		var pending []candidate // names needing AUR lookup this round
		for _, c := range worklist {
			if visited[c.name] {
				continue
			}

			inRepo, err := r.DB.ExistsInRepo(c.raw)
			if err != nil {
				return nil, errdefs.Wrap(errdefs.ErrTypeResolution, c.name, err)
			}
			if inRepo {
				visited[c.name] = true
				if !repoSeen[c.name] {
					repoSeen[c.name] = true
					repoQueue = append(repoQueue, c.name)
				}
				continue
			}

			pending = append(pending, c)
		}

		if len(pending) == 0 {
			break
		}

		pendingNames := make([]string, len(pending))
		for i, c := range pending {
			pendingNames[i] = c.name
		}
		infos, err := r.AUR.Info(ctx, pendingNames)
		if err != nil {
			return nil, err
		}
		baseByName := make(map[string]string, len(infos))
		for _, info := range infos {
			baseByName[info.Name] = info.PackageBase
		}

		var next []candidate
		for _, c := range pending {
			base, ok := baseByName[c.name]
			if !ok {
				return nil, errdefs.Newf(errdefs.ErrTypeResolution, "package not found: %s", c.name)
			}
			visited[c.name] = true
			baseOf[c.name] = base
			graph.AddNode(base)
			if c.fromBase != "" {
				graph.AddEdge(c.fromBase, base)
			}
			requested[base] = append(requested[base], c.name)

			if baseCloned[base] {
				continue
			}
			baseCloned[base] = true

			dir, err := r.Tree.EnsureCloned(base)
			if err != nil {
				return nil, err
			}
			meta, err := r.Parse(dir)
			if err != nil {
				return nil, err
			}
			if !meta.SupportsArch() {
				return nil, errdefs.Newf(errdefs.ErrTypeResolution, "%s: unsupported on this architecture (arch=%v)", base, meta.Arch)
			}
			baseVersion[base] = meta.Version
			if len(meta.ValidPGPKeys) > 0 {
				if ok := r.EnsureKeys(ctx, meta.ValidPGPKeys); !ok {
					log.Warnf("%s: not all signing keys could be fetched, build may fail pgp check", base)
				}
			}

			for _, dep := range append(append([]string{}, meta.Depends...), meta.MakeDepends...) {
				clean := CleanDependency(dep)
				if visited[clean] {
					// Only AUR deps get an edge, and it points at their
					// pkgbase; repo deps never enter the build graph.
					if depBase, ok := baseOf[clean]; ok && depBase != base {
						graph.AddEdge(base, depBase)
					}
					continue
				}
				next = append(next, candidate{name: clean, raw: dep, fromBase: base})
			}
		}
		worklist = next
	}

	order := graph.TopologicalOrder()
	order = r.pruneUpToDate(order, baseVersion, requested)

	return &Plan{RepoQueue: repoQueue, BuildQueue: order, Requested: requested, Graph: graph}, nil
}

// pruneUpToDate drops bases from the build queue that are already
// satisfied: a non-VCS base already installed at its exact source
// version, or a VCS base whose cloned tree isn't behind its upstream.
func (r *Resolver) pruneUpToDate(order []string, baseVersion map[string]string, requested map[string][]string) []string {
	kept := make([]string, 0, len(order))
	for _, base := range order {
		if upgrade.IsVCSPackage(base) {
			behind, err := r.Tree.HasUpstreamUpdate(base)
			if err != nil {
				log.Warnf("%s: could not check upstream freshness, building anyway: %v", base, err)
				kept = append(kept, base)
				continue
			}
			if !behind {
				log.Infof(":: %s is up to date with upstream, skipping", base)
				continue
			}
			kept = append(kept, base)
			continue
		}

		version := baseVersion[base]
		names := requested[base]
		if version == "" || len(names) == 0 {
			kept = append(kept, base)
			continue
		}
		upToDate := true
		for _, name := range names {
			installed, err := r.DB.InstalledVersion(name)
			if err != nil || installed == "" || r.DB.VersionCompare(installed, version) != 0 {
				upToDate = false
				break
			}
		}
		if upToDate {
			log.Infof(":: %s is already installed at %s, skipping", base, version)
			continue
		}
		kept = append(kept, base)
	}
	return kept
}
