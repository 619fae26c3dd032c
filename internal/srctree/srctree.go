// Package srctree manages ax's per-package source tree cache: shallow
// clones of AUR git repositories, kept up to date with fetch+pull, with
// diff and ahead/behind helpers used by the builder and the upgrade
// planner. It uses go-git rather than shelling out to git, exercising the
// same go-git/go-billy/go-git-gcfg stack the rest of the ecosystem here
// already depends on.
package srctree

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"

	"github.com/Manpreet113/ax/internal/errdefs"
	"github.com/Manpreet113/ax/internal/log"
)

const aurGitBase = "https://aur.archlinux.org/"

var (
	diffAddStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	diffDropStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	diffHunkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// colorizeDiff applies the same green/red/cyan convention as git's own
// colored diff to a unified patch, line by line.
func colorizeDiff(patch string) string {
	lines := strings.Split(patch, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---"):
			// file headers: leave unstyled
		case strings.HasPrefix(line, "+"):
			lines[i] = diffAddStyle.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = diffDropStyle.Render(line)
		case strings.HasPrefix(line, "@@"):
			lines[i] = diffHunkStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// Cache manages source trees rooted at a single cache directory.
type Cache struct {
	root string
}

func New(root string) *Cache {
	return &Cache{root: root}
}

// Dir returns the on-disk directory for a package base, whether or not
// it has been cloned yet.
func (c *Cache) Dir(pkgbase string) string {
	return filepath.Join(c.root, pkgbase)
}

// EnsureCloned clones pkgbase's AUR git repo if absent, or pulls it
// (fast-forward only) if already present. Pull failures are logged and
// swallowed: the cached tree is used as-is rather than aborting the
// whole resolution.
func (c *Cache) EnsureCloned(pkgbase string) (string, error) {
	dir := c.Dir(pkgbase)
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		if err := c.pull(dir); err != nil {
			log.Warnf("failed to update %s, using cached tree: %v", pkgbase, err)
		}
		return dir, nil
	}

	url := aurGitBase + pkgbase + ".git"
	_, err := git.PlainClone(dir, &git.CloneOptions{
		URL:   url,
		Depth: 1,
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", errdefs.Wrap(errdefs.ErrTypeNetwork, pkgbase, err)
	}
	return dir, nil
}

func (c *Cache) pull(dir string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	err = wt.Pull(&git.PullOptions{RemoteName: "origin"})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return err
	}
	return nil
}

// Diff fetches the remote and returns a unified diff of HEAD..FETCH_HEAD,
// or an empty string if there are no upstream changes.
func (c *Cache) Diff(pkgbase string) (string, error) {
	dir := c.Dir(pkgbase)
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return "", errdefs.Wrap(errdefs.ErrTypeNetwork, pkgbase, err)
	}

	remoteRef, err := fetchRemoteHead(repo)
	if err != nil {
		return "", errdefs.Wrap(errdefs.ErrTypeNetwork, pkgbase, err)
	}

	headRef, err := repo.Head()
	if err != nil {
		return "", err
	}
	if headRef.Hash() == remoteRef {
		return "", nil
	}

	headCommit, err := repo.CommitObject(headRef.Hash())
	if err != nil {
		return "", err
	}
	remoteCommit, err := repo.CommitObject(remoteRef)
	if err != nil {
		return "", err
	}

	patch, err := headCommit.Patch(remoteCommit)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := patch.Encode(&buf); err != nil {
		return "", err
	}
	return colorizeDiff(buf.String()), nil
}

// HasUpstreamUpdate fetches the remote and reports whether HEAD is behind
// it, used by the upgrade planner's VCS-package freshness pass.
func (c *Cache) HasUpstreamUpdate(pkgbase string) (bool, error) {
	dir := c.Dir(pkgbase)
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return false, errdefs.Wrap(errdefs.ErrTypeNetwork, pkgbase, err)
	}

	remoteRef, err := fetchRemoteHead(repo)
	if err != nil {
		return false, errdefs.Wrap(errdefs.ErrTypeNetwork, pkgbase, err)
	}
	headRef, err := repo.Head()
	if err != nil {
		return false, err
	}
	if headRef.Hash() == remoteRef {
		return false, nil
	}

	behind, err := isAncestor(repo, headRef.Hash(), remoteRef)
	if err != nil {
		return false, err
	}
	return behind, nil
}

func fetchRemoteHead(repo *git.Repository) (plumbing.Hash, error) {
	remote, err := repo.Remote("origin")
	if err != nil {
		return plumbing.ZeroHash, err
	}
	// Download the remote's commits so the returned hash can be resolved
	// to a commit object locally.
	if err := remote.Fetch(&git.FetchOptions{RemoteName: "origin"}); err != nil && err != git.NoErrAlreadyUpToDate {
		return plumbing.ZeroHash, err
	}
	refs, err := remote.List(&git.ListOptions{})
	if err != nil {
		return plumbing.ZeroHash, err
	}
	for _, ref := range refs {
		if ref.Name() == plumbing.HEAD {
			resolved := ref.Target()
			for _, r := range refs {
				if r.Name() == resolved {
					return r.Hash(), nil
				}
			}
		}
		if ref.Name() == "refs/heads/master" || ref.Name() == "refs/heads/main" {
			return ref.Hash(), nil
		}
	}
	return plumbing.ZeroHash, fmt.Errorf("could not resolve remote HEAD")
}

// isAncestor reports whether `head` is a strict ancestor of `target`,
// i.e. local is behind remote.
func isAncestor(repo *git.Repository, head, target plumbing.Hash) (bool, error) {
	if head == target {
		return false, nil
	}
	commit, err := repo.CommitObject(target)
	if err != nil {
		return false, err
	}
	iter := object.NewCommitPreorderIter(commit, nil, nil)
	found := false
	err = iter.ForEach(func(c *object.Commit) error {
		if c.Hash == head {
			found = true
			return storerErrStop
		}
		return nil
	})
	if err != nil && err != storerErrStop {
		return false, err
	}
	return found, nil
}

var storerErrStop = fmt.Errorf("stop")
