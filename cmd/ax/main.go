package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Manpreet113/ax/internal/config"
	"github.com/Manpreet113/ax/internal/errdefs"
	"github.com/Manpreet113/ax/internal/lock"
	"github.com/Manpreet113/ax/internal/log"
	"github.com/Manpreet113/ax/internal/prompt"
)

var Version = "dev"

var debug bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("noconfirm", false, "never prompt for confirmation")

	syncCmd.Flags().BoolP("refresh", "y", false, "refresh package databases before syncing")
	syncCmd.Flags().BoolP("sysupgrade", "u", false, "also upgrade out-of-date foreign packages")
	syncCmd.Flags().Bool("cleanbuild", false, "remove untracked build files before building")

	rootCmd.AddCommand(versionCmd, syncCmd, removeCmd)
}

var rootCmd = &cobra.Command{
	Use:   "ax",
	Short: "ax manages AUR and repo packages together",
	Long:  "ax extends pacman with AUR dependency resolution, source builds, and upgrades.",
	Run:   runSearchInstall,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("ax v%s\n", Version)
	},
}

func main() {
	if os.Geteuid() == 0 {
		log.Fatal("ax should not be run as root; it will invoke sudo for pacman/makepkg as needed")
	}

	// pacman-style "-S"/"-R" as the first argument select sync/remove.
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "-S":
			os.Args[1] = "sync"
		case "-R":
			os.Args[1] = "remove"
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		handleFatal(err)
	}
}

func handleFatal(err error) {
	log.Error(err)
	os.Exit(errdefs.ExitCode(err))
}

func setupCommon(cmd *cobra.Command) (*config.Config, *lock.Lock, error) {
	if debug {
		log.SetDebug()
	}
	if noConfirm, _ := cmd.Flags().GetBool("noconfirm"); noConfirm {
		prompt.NoConfirm = true
	} else {
		prompt.DetectInteractive()
	}

	if err := checkEnvironment(); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, errdefs.Wrap(errdefs.ErrTypeEnv, "", err)
	}

	cacheDir, err := cfg.CacheDir()
	if err != nil {
		return nil, nil, errdefs.Wrap(errdefs.ErrTypeEnv, "", err)
	}
	l, err := lock.Acquire(cacheDir)
	if err != nil {
		return nil, nil, err
	}

	return cfg, l, nil
}
