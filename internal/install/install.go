// Package install drives pacman for both halves of a sync operation:
// the batched repo-dependency install, and the per-base
// build-then-install loop over the AUR queue, with a retry/skip/abort
// menu when an individual base fails.
package install

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Manpreet113/ax/internal/builder"
	"github.com/Manpreet113/ax/internal/errdefs"
	"github.com/Manpreet113/ax/internal/log"
	"github.com/Manpreet113/ax/internal/prompt"
)

// SourceTree resolves a package base to its cloned source directory.
type SourceTree interface {
	EnsureCloned(pkgbase string) (string, error)
}

// Driver orchestrates pacman/makepkg invocations for a resolved plan.
type Driver struct {
	Builder     *builder.Builder
	Tree        SourceTree
	ForwardArgs []string // extra flags the user passed through to pacman
}

func New(b *builder.Builder, tree SourceTree, forwardArgs []string) *Driver {
	return &Driver{Builder: b, Tree: tree, ForwardArgs: forwardArgs}
}

// InstallRepo installs plain repo dependencies via a single batched
// pacman -S --needed call. Empty input is a no-op.
func (d *Driver) InstallRepo(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	log.Infof(":: installing official dependencies: %v", names)

	args := append([]string{"pacman", "-S", "--needed"}, names...)
	args = append(args, d.ForwardArgs...)
	cmd := exec.CommandContext(ctx, "sudo", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errdefs.Wrap(errdefs.ErrTypeInstall, "", err)
	}
	return nil
}

// BuildAndInstall runs build-then-install for each base in the queue (in
// dependency order). Build failures and install failures are retried
// independently: a db-lock failure during the pacman -U step re-prompts
// around just the install, not a full makepkg rebuild. requested maps a
// base to the specific pkgnames actually wanted, for split-package
// artifact filtering; a missing or empty entry installs everything the
// base produces.
func (d *Driver) BuildAndInstall(ctx context.Context, buildQueue []string, requested map[string][]string, showDiff bool) error {
	for _, base := range buildQueue {
		dir, err := d.Tree.EnsureCloned(base)
		if err != nil {
			return err
		}

		artifacts, skipped, err := d.buildWithRetry(ctx, base, dir, showDiff)
		if err != nil {
			return err
		}
		if skipped {
			continue
		}

		artifacts = filterArtifacts(artifacts, requested[base])
		if err := d.installWithRetry(ctx, base, artifacts); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) buildWithRetry(ctx context.Context, base, dir string, showDiff bool) ([]string, bool, error) {
	for {
		artifacts, err := d.Builder.Build(ctx, base, dir, showDiff)
		if err == nil {
			return artifacts, false, nil
		}
		log.Errorf("%v", err)
		action, _ := prompt.PromptErrorAction(base)
		switch action {
		case prompt.ActionRetry:
			continue
		case prompt.ActionSkip:
			log.Warnf("skipping build of %s", base)
			return nil, true, nil
		default:
			return nil, false, errdefs.Wrap(errdefs.ErrTypeBuild, base, err)
		}
	}
}

func (d *Driver) installWithRetry(ctx context.Context, base string, artifacts []string) error {
	for {
		err := d.installArtifacts(ctx, artifacts)
		if err == nil {
			return nil
		}
		log.Errorf("%v", err)
		action, _ := prompt.PromptErrorAction(base)
		switch action {
		case prompt.ActionRetry:
			continue
		case prompt.ActionSkip:
			log.Warnf("skipping install of %s", base)
			return nil
		default:
			return errdefs.Wrap(errdefs.ErrTypeInstall, base, err)
		}
	}
}

// filterArtifacts narrows makepkg's full artifact list down to the files
// matching one of the requested pkgnames, for split packages where only
// some of a base's pkgnames were actually wanted. An empty want list
// installs everything the base produced.
func filterArtifacts(paths []string, want []string) []string {
	if len(want) == 0 {
		return paths
	}
	var out []string
	for _, p := range paths {
		// <pkgname>-<pkgver>-<pkgrel>-<arch>.pkg.tar.*: pkgver and pkgrel
		// contain no '-', so pkgname is all but the last three fields.
		fields := strings.Split(filepath.Base(p), "-")
		if len(fields) < 4 {
			continue
		}
		pkgname := strings.Join(fields[:len(fields)-3], "-")
		for _, name := range want {
			if pkgname == name {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func (d *Driver) installArtifacts(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"pacman", "-U"}, paths...)
	cmd := exec.CommandContext(ctx, "sudo", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errdefs.Wrap(errdefs.ErrTypeInstall, "", err)
	}
	return nil
}

// Remove forwards to pacman -R -s for the given package names.
func Remove(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	args := append([]string{"pacman", "-R", "-s"}, names...)
	cmd := exec.CommandContext(ctx, "sudo", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errdefs.Wrap(errdefs.ErrTypeInstall, "", err)
	}
	return nil
}
