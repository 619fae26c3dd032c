package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.ShowNews)
	assert.True(t, cfg.DiffViewer)
	assert.False(t, cfg.CleanBuild)
}

func TestEditorCommandPrecedence(t *testing.T) {
	cfg := Default()
	t.Setenv("EDITOR", "vim")
	assert.Equal(t, "vim", cfg.EditorCommand())

	editor := "emacs"
	cfg.Editor = &editor
	assert.Equal(t, "emacs", cfg.EditorCommand())
}

func TestEditorCommandDefaultsToNano(t *testing.T) {
	cfg := Default()
	t.Setenv("EDITOR", "")
	assert.Equal(t, "nano", cfg.EditorCommand())
}

func TestCacheDirPrefersExplicitBuildDir(t *testing.T) {
	cfg := Default()
	dir := "/tmp/some-build-dir"
	cfg.BuildDir = &dir
	got, err := cfg.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	editor := "vim"
	cfg := &Config{Editor: &editor, CleanBuild: true, ShowNews: false, DiffViewer: true}
	require.NoError(t, cfg.Save())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "vim", *loaded.Editor)
	assert.True(t, loaded.CleanBuild)
	assert.False(t, loaded.ShowNews)
}

func TestLoadMissingReturnsDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config-empty"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestMigrateLegacyConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	xdgConfig := filepath.Join(home, ".config-xdg")
	t.Setenv("XDG_CONFIG_HOME", xdgConfig)

	legacyDir := filepath.Join(home, ".config", appName)
	require.NoError(t, os.MkdirAll(legacyDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(legacyDir, "config.toml"), []byte(`clean_build = true
show_news = true
diff_viewer = true
`), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.CleanBuild)
	assert.NoFileExists(t, filepath.Join(legacyDir, "config.toml"))
}

func TestCacheDirFallsBackToRelativeDotCache(t *testing.T) {
	cfg := Default()
	t.Setenv("HOME", "")
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "")
	got, err := cfg.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(".cache", appName), got)
}

func TestSaveAndLoadRoundTripInMemoryFS(t *testing.T) {
	real := fs
	fs = afero.NewMemMapFs()
	defer func() { fs = real }()

	home := "/home/tester"
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	editor := "helix"
	cfg := &Config{Editor: &editor, CleanBuild: true, ShowNews: false, DiffViewer: true}
	require.NoError(t, cfg.Save())

	path, err := Path()
	require.NoError(t, err)
	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "helix", *loaded.Editor)
	assert.True(t, loaded.CleanBuild)
}
