// Package srcinfo parses a package's .SRCINFO file into the metadata the
// resolver and builder need. It wraps Morganamilo/go-srcinfo (the parser
// yay itself uses) rather than hand-rolling a key=value scanner, then
// re-shapes the result and filters architecture-tagged dependency
// sections down to entries that apply on the running machine.
package srcinfo

import (
	"os"
	"path/filepath"
	"runtime"

	gosrcinfo "github.com/Morganamilo/go-srcinfo"

	"github.com/Manpreet113/ax/internal/errdefs"
	"github.com/Manpreet113/ax/internal/log"
)

// Metadata is ax's own shape for a parsed package: one pkgbase that may
// produce several pkgnames (split packages).
type Metadata struct {
	PkgBase      string
	PkgNames     []string
	Version      string
	Arch         []string
	Depends      []string
	MakeDepends  []string
	ValidPGPKeys []string
}

// SupportsArch reports whether this package can be built on the running
// architecture. An empty Arch list, or an explicit "any" entry, means
// every architecture.
func (m *Metadata) SupportsArch() bool {
	if len(m.Arch) == 0 {
		return true
	}
	for _, a := range m.Arch {
		if a == "any" || a == runningArch() {
			return true
		}
	}
	return false
}

var archAliases = map[string]string{
	"amd64": "x86_64",
	"arm64": "aarch64",
}

func runningArch() string {
	if a, ok := archAliases[runtime.GOARCH]; ok {
		return a
	}
	return runtime.GOARCH
}

// archMatches reports whether an arch-tagged field entry (tag may be
// empty for "all architectures") applies here.
func archMatches(tag string) bool {
	return tag == "" || tag == runningArch()
}

// Parse reads <dir>/.SRCINFO and returns ax's Metadata. If .SRCINFO is
// absent but a PKGBUILD exists, it logs a warning and returns a
// best-effort empty Metadata rather than failing outright; if neither
// file exists, it deletes dir and returns a ResolutionError.
func Parse(dir string) (*Metadata, error) {
	path := filepath.Join(dir, ".SRCINFO")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if _, perr := os.Stat(filepath.Join(dir, "PKGBUILD")); perr == nil {
				log.Warnf("no .SRCINFO in %s, continuing with empty metadata", dir)
				return &Metadata{}, nil
			}
			_ = os.RemoveAll(dir)
			return nil, errdefs.Newf(errdefs.ErrTypeResolution, "no .SRCINFO or PKGBUILD found in %s", dir)
		}
		return nil, errdefs.Wrap(errdefs.ErrTypeResolution, dir, err)
	}

	parsed, err := gosrcinfo.Parse(string(data))
	if err != nil {
		return nil, errdefs.Wrap(errdefs.ErrTypeResolution, dir, err)
	}

	md := &Metadata{
		PkgBase: parsed.Pkgbase,
		Version: fullVersion(parsed.Pkgver, parsed.Pkgrel, parsed.Epoch),
	}
	md.Arch = append(md.Arch, parsed.Arch...)
	for _, pkg := range parsed.Packages {
		md.PkgNames = append(md.PkgNames, pkg.Pkgname)
	}
	md.ValidPGPKeys = append(md.ValidPGPKeys, parsed.ValidPGPKeys...)
	md.Depends = filterArch(parsed.Depends)
	md.MakeDepends = filterArch(parsed.MakeDepends)

	return md, nil
}

func fullVersion(pkgver, pkgrel, epoch string) string {
	v := pkgver + "-" + pkgrel
	if epoch != "" && epoch != "0" {
		v = epoch + ":" + v
	}
	return v
}

func filterArch(entries []gosrcinfo.ArchString) []string {
	var out []string
	for _, e := range entries {
		if archMatches(e.Arch) {
			out = append(out, e.Value)
		}
	}
	return out
}
