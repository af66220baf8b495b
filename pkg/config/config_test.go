package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFillsEverySubstruct(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg.Logging)
	require.NotNil(t, cfg.Resources)
	require.NotNil(t, cfg.Autosave)
	require.NotNil(t, cfg.Debug)
	assert.Equal(t, ".", cfg.Resources.Directory)
	assert.False(t, cfg.Autosave.Enabled)
}

func TestLoadOverlaysYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := "version: \"2\"\nresources:\n  directory: ./games\nautosave:\n  enabled: true\n  path: save.glksave\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "2", cfg.Version)
	assert.Equal(t, "./games", cfg.Resources.Directory)
	assert.True(t, cfg.Autosave.Enabled)
	assert.Equal(t, "save.glksave", cfg.Autosave.Path)
	require.NotNil(t, cfg.Logging, "Load must still fill the logging default when the file omits it")
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestResolveResourcePathRejectsEscape(t *testing.T) {
	cfg := &Config{Resources: &ResourceConfig{Directory: "./data"}}
	_, err := cfg.ResolveResourcePath("../../etc/passwd")
	assert.Error(t, err)
}

func TestResolveResourcePathJoinsDirectory(t *testing.T) {
	cfg := &Config{Resources: &ResourceConfig{Directory: "./data"}}
	full, err := cfg.ResolveResourcePath("story.glkdata")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "story.glkdata"), full)
}
