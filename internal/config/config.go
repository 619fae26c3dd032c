// Package config loads and saves ax's TOML configuration file, mirroring
// the shape of the original raur Config: a build/cache directory override,
// an editor override, and a handful of behavior toggles.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"github.com/Manpreet113/ax/internal/log"
)

const appName = "ax"

// fs is the filesystem config reads and writes through. It is a package
// variable rather than a parameter so Load/Save keep their existing
// signatures; tests may swap in afero.NewMemMapFs() to avoid touching the
// real disk.
var fs afero.Fs = afero.NewOsFs()

// Config is the on-disk TOML shape. Pointer fields are nil when unset;
// CacheDir and EditorCommand treat an unset or empty value alike and fall
// through to the environment/default.
type Config struct {
	BuildDir   *string `toml:"build_dir"`
	Editor     *string `toml:"editor"`
	CleanBuild bool    `toml:"clean_build"`
	ShowNews   bool    `toml:"show_news"`
	DiffViewer bool    `toml:"diff_viewer"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		CleanBuild: false,
		ShowNews:   true,
		DiffViewer: true,
	}
}

// Path returns the XDG-aware config file path, creating no directories.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, "config.toml"), nil
}

func legacyPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the config file, migrating the legacy pre-XDG path if found,
// and falls back to Default() when no file exists at all.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	if _, statErr := fs.Stat(path); os.IsNotExist(statErr) {
		if migrated, migrateErr := migrateLegacy(path); migrateErr == nil && migrated {
			log.Debugf("migrated legacy config to %s", path)
		} else {
			return Default(), nil
		}
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	cfg := Default()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func migrateLegacy(dest string) (bool, error) {
	legacy, err := legacyPath()
	if err != nil {
		return false, err
	}
	data, err := afero.ReadFile(fs, legacy)
	if err != nil {
		return false, err
	}
	if err := fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, err
	}
	if err := afero.WriteFile(fs, dest, data, 0o644); err != nil {
		return false, err
	}
	_ = fs.Remove(legacy)
	return true, nil
}

// Save writes the config back to its canonical path.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}

// CacheDir resolves the precedence config.build_dir > os.UserCacheDir()/ax >
// $HOME/.cache/ax > ./.cache/ax, each tier falling through only when the
// one before it is unavailable.
func (c *Config) CacheDir() (string, error) {
	if c.BuildDir != nil && *c.BuildDir != "" {
		return *c.BuildDir, nil
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, appName), nil
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", appName), nil
	}
	return filepath.Join(".cache", appName), nil
}

// EditorCommand resolves config > $EDITOR > nano.
func (c *Config) EditorCommand() string {
	if c.Editor != nil && *c.Editor != "" {
		return *c.Editor
	}
	if env := os.Getenv("EDITOR"); env != "" {
		return env
	}
	return "nano"
}
