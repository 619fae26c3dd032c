// Package builder drives makepkg for a single package base: optional
// diff review, optional PKGBUILD edit, exact artifact-list capture via
// makepkg --packagelist before building, optional clean rebuild, PGP key
// prefetch, and finally the build itself.
package builder

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Manpreet113/ax/internal/config"
	"github.com/Manpreet113/ax/internal/errdefs"
	"github.com/Manpreet113/ax/internal/keys"
	"github.com/Manpreet113/ax/internal/log"
	"github.com/Manpreet113/ax/internal/prompt"
	"github.com/Manpreet113/ax/internal/srcinfo"
)

// DiffSource supplies a package base's pending upstream diff, satisfied
// by internal/srctree.Cache.
type DiffSource interface {
	Diff(pkgbase string) (string, error)
}

// Builder runs the per-package build pipeline described in package docs.
type Builder struct {
	Cfg  *config.Config
	Tree DiffSource
}

func New(cfg *config.Config, tree DiffSource) *Builder {
	return &Builder{Cfg: cfg, Tree: tree}
}

// Build runs the full pipeline for pkgbase rooted at dir, returning the
// exact artifact paths makepkg will produce.
func (b *Builder) Build(ctx context.Context, pkgbase, dir string, showDiff bool) ([]string, error) {
	log.Infof(":: building %s", pkgbase)

	if showDiff && !prompt.NoConfirm {
		if ok, _ := prompt.PromptDiff(pkgbase); ok {
			b.showDiff(pkgbase)
		}
	}

	if !prompt.NoConfirm {
		if ok, _ := prompt.PromptReview(pkgbase); ok {
			if err := b.editPKGBUILD(ctx, dir); err != nil {
				return nil, errdefs.Wrap(errdefs.ErrTypeBuild, pkgbase, err)
			}
			if cont, _ := prompt.PromptContinue(); !cont {
				return nil, errdefs.New(errdefs.ErrTypeUserAbort, "build aborted by user")
			}
		}
	}

	artifacts, err := packageList(ctx, dir)
	if err != nil {
		return nil, errdefs.Wrap(errdefs.ErrTypeBuild, pkgbase, err)
	}
	if len(artifacts) == 0 {
		return nil, errdefs.Newf(errdefs.ErrTypeBuild, "%s: makepkg --packagelist returned no packages", pkgbase)
	}

	if b.Cfg.CleanBuild {
		log.Infof(":: cleaning build directory for %s", pkgbase)
		cmd := exec.CommandContext(ctx, "git", "clean", "-fdx")
		cmd.Dir = dir
		if err := cmd.Run(); err != nil {
			log.Warnf("%s: failed to clean build directory: %v", pkgbase, err)
		}
	}

	skipPGP := false
	if meta, err := srcinfo.Parse(dir); err == nil && len(meta.ValidPGPKeys) > 0 {
		if ok := keys.EnsureKeys(ctx, meta.ValidPGPKeys); !ok {
			log.Warnf("%s: gpg key fetch failed, falling back to --skippgpcheck", pkgbase)
			skipPGP = true
		}
	}

	args := []string{"-srf"}
	if skipPGP {
		args = append(args, "--skippgpcheck")
	}
	makepkg := exec.CommandContext(ctx, "makepkg", args...)
	makepkg.Dir = dir
	makepkg.Stdin = os.Stdin
	makepkg.Stdout = os.Stdout
	makepkg.Stderr = os.Stderr
	if err := makepkg.Run(); err != nil {
		return nil, errdefs.Wrap(errdefs.ErrTypeBuild, pkgbase, err)
	}

	log.Infof(":: %s built successfully", pkgbase)
	return artifacts, nil
}

func (b *Builder) showDiff(pkgbase string) {
	diff, err := b.Tree.Diff(pkgbase)
	if err != nil {
		log.Warnf("failed to get diff for %s: %v", pkgbase, err)
		return
	}
	if diff == "" {
		log.Infof(":: no upstream changes found")
		return
	}
	pager := exec.Command("less", "-R")
	pager.Stdin = strings.NewReader(diff)
	pager.Stdout = os.Stdout
	pager.Stderr = os.Stderr
	if err := pager.Run(); err != nil {
		log.Infof(":: (pager unavailable, showing raw diff)")
		os.Stdout.WriteString(diff)
	}
}

func (b *Builder) editPKGBUILD(ctx context.Context, dir string) error {
	editor := b.Cfg.EditorCommand()
	pkgbuild := filepath.Join(dir, "PKGBUILD")

	// sh -c with the path as a positional argument keeps multi-word
	// editors (e.g. "code --wait") working without shell-injecting the
	// file path itself.
	cmd := exec.CommandContext(ctx, "sh", "-c", editor+` "$1"`, "--", pkgbuild)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func packageList(ctx context.Context, dir string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "makepkg", "--packagelist")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}
