package main

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Manpreet113/ax/internal/aur"
	"github.com/Manpreet113/ax/internal/builder"
	"github.com/Manpreet113/ax/internal/config"
	"github.com/Manpreet113/ax/internal/errdefs"
	"github.com/Manpreet113/ax/internal/install"
	"github.com/Manpreet113/ax/internal/log"
	"github.com/Manpreet113/ax/internal/news"
	"github.com/Manpreet113/ax/internal/pacmandb"
	"github.com/Manpreet113/ax/internal/prompt"
	"github.com/Manpreet113/ax/internal/resolver"
	"github.com/Manpreet113/ax/internal/srctree"
	"github.com/Manpreet113/ax/internal/upgrade"
)

var requiredTools = []string{"pacman", "makepkg", "sudo", "gpg", "sh"}

// toolPackage names the Arch package that provides each required tool.
var toolPackage = map[string]string{"pacman": "pacman", "makepkg": "pacman", "sudo": "sudo", "gpg": "gnupg", "sh": "bash"}

func checkEnvironment() error {
	for _, tool := range requiredTools {
		if _, err := exec.LookPath(tool); err != nil {
			return errdefs.Newf(errdefs.ErrTypeEnv, "required tool %q not found in PATH; install it with: pacman -S %s", tool, toolPackage[tool])
		}
	}
	return nil
}

var syncCmd = &cobra.Command{
	Use:     "sync",
	Aliases: []string{"S"},
	Short:   "Install or upgrade packages, resolving AUR dependencies as needed",
	Args:    cobra.ArbitraryArgs,
	// Unknown dash-prefixed flags (e.g. pacman-only switches ax doesn't
	// itself register) fall through into args instead of failing cobra's
	// parse, so they can be forwarded verbatim to pacman.
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, err := setupCommon(cmd)
		if err != nil {
			return err
		}
		defer l.Release()

		if cfg.ShowNews {
			printNews(cmd.Context())
		}

		refresh, _ := cmd.Flags().GetBool("refresh")
		if refresh {
			if err := refreshDatabases(cmd.Context()); err != nil {
				return err
			}
		}

		sysupgrade, _ := cmd.Flags().GetBool("sysupgrade")
		cleanbuild, _ := cmd.Flags().GetBool("cleanbuild")
		if cleanbuild {
			cfg.CleanBuild = true
		}

		if sysupgrade {
			return runSysupgrade(cmd.Context(), cfg)
		}

		pkgNames, forwardArgs := splitForwardedArgs(args)
		// --noconfirm is registered by ax itself, so cobra consumes it;
		// pass it on to pacman as well.
		if noConfirm, _ := cmd.Flags().GetBool("noconfirm"); noConfirm {
			forwardArgs = append(forwardArgs, "--noconfirm")
		}
		if len(pkgNames) == 0 {
			return errdefs.New(errdefs.ErrTypeGeneric, "sync requires at least one package name, or pass --sysupgrade")
		}
		return runSync(cmd.Context(), cfg, pkgNames, forwardArgs)
	},
}

// splitForwardedArgs separates plain package names from dash-prefixed
// flags destined for the underlying pacman invocation.
func splitForwardedArgs(args []string) (pkgNames, forwardArgs []string) {
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			forwardArgs = append(forwardArgs, a)
			continue
		}
		pkgNames = append(pkgNames, a)
	}
	return pkgNames, forwardArgs
}

// refreshDatabases runs pacman -Sy, matching -y/--refresh semantics.
func refreshDatabases(ctx context.Context) error {
	log.Infof(":: refreshing package databases")
	cmd := exec.CommandContext(ctx, "sudo", "pacman", "-Sy")
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errdefs.Wrap(errdefs.ErrTypeEnv, "", err)
	}
	return nil
}

var removeCmd = &cobra.Command{
	Use:     "remove",
	Aliases: []string{"R"},
	Short:   "Remove installed packages",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, l, err := setupCommon(cmd); err != nil {
			return err
		} else {
			defer l.Release()
		}
		return install.Remove(cmd.Context(), args)
	},
}

// searchResult is one hit from either the native repos or the AUR,
// tagged so the display and the eventual install call know which.
type searchResult struct {
	name        string
	version     string
	description string
	repo        bool
}

func (r searchResult) label() string {
	if r.repo {
		return "repo"
	}
	return "aur"
}

func runSearchInstall(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		_ = cmd.Help()
		return
	}
	cfg, l, err := setupCommon(cmd)
	if err != nil {
		handleFatal(err)
	}
	defer l.Release()
	// handleFatal exits without running deferred calls, so release first.
	fatal := func(err error) {
		_ = l.Release()
		handleFatal(err)
	}

	var results []searchResult

	if db, err := pacmandb.Open(); err != nil {
		log.Debugf("repo search unavailable: %v", err)
	} else {
		names, serr := db.Search(args[0])
		if serr != nil {
			log.Debugf("repo search failed: %v", serr)
		}
		for _, n := range names {
			results = append(results, searchResult{name: n, repo: true})
		}
		db.Close()
	}

	client := aur.NewClient()
	aurResults, err := client.Search(cmd.Context(), args[0])
	if err != nil {
		fatal(err)
	}
	for _, r := range aurResults {
		results = append(results, searchResult{name: r.Name, version: r.Version, description: r.Description})
	}

	if len(results) == 0 {
		log.Infof("no results for %q", args[0])
		return
	}
	for i, r := range results {
		log.Infof("%d) [%s] %s %s - %s", i+1, r.label(), r.name, r.version, r.description)
	}

	selection := prompt.ParseSelection(readSelectionLine(), len(results))
	if len(selection) == 0 {
		return
	}
	var chosen []string
	for _, idx := range selection {
		chosen = append(chosen, results[idx-1].name)
	}
	if err := runSync(cmd.Context(), cfg, chosen, nil); err != nil {
		fatal(err)
	}
}

func readSelectionLine() string {
	log.Infof("enter numbers to install (e.g. 1 3 5-7):")
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(line)
}

func runSync(ctx context.Context, cfg *config.Config, names []string, forwardArgs []string) error {
	db, err := pacmandb.Open()
	if err != nil {
		return err
	}
	defer db.Close()

	cacheDir, err := cfg.CacheDir()
	if err != nil {
		return err
	}
	tree := srctree.New(cacheDir)
	client := aur.NewClient()

	res := resolver.New(db, client, tree)
	plan, err := res.Resolve(ctx, names)
	if err != nil {
		return err
	}

	b := builder.New(cfg, tree)
	driver := install.New(b, tree, forwardArgs)

	if err := driver.InstallRepo(ctx, plan.RepoQueue); err != nil {
		return err
	}
	return driver.BuildAndInstall(ctx, plan.BuildQueue, plan.Requested, cfg.DiffViewer)
}

func runSysupgrade(ctx context.Context, cfg *config.Config) error {
	db, err := pacmandb.Open()
	if err != nil {
		return err
	}
	defer db.Close()

	cacheDir, err := cfg.CacheDir()
	if err != nil {
		return err
	}
	tree := srctree.New(cacheDir)
	client := aur.NewClient()

	records, err := upgrade.CheckUpdates(ctx, db, client, tree)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		log.Infof(":: no AUR upgrades available")
		return nil
	}

	var names []string
	for _, r := range records {
		log.Infof(":: %s %s -> %s", r.Name, r.OldVersion, r.NewVersion)
		names = append(names, r.Name)
	}
	if !prompt.NoConfirm {
		if ok, _ := prompt.Confirm(":: Proceed with upgrade?", true); !ok {
			return errdefs.New(errdefs.ErrTypeUserAbort, "upgrade aborted by user")
		}
	}
	return runSync(ctx, cfg, names, nil)
}

func printNews(ctx context.Context) {
	titles, err := news.CheckNews(ctx, 3)
	if err != nil {
		log.Debugf("news check failed: %v", err)
		return
	}
	for _, t := range titles {
		log.Infof(":: news: %s", t)
	}
}
