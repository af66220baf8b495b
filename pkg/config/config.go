// Package config loads the library's YAML configuration file and
// resolves the resource-directory/fileref path mapping a hosting
// program needs, in the shape the teacher's pkg/config layer uses
// (a pointer-tree of sub-structs with yaml tags, loaded with
// gopkg.in/yaml.v3 and layered with CLI-flag overrides).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rglk/remglk/pkg/logging"
)

// Config is the library's full on-disk configuration.
type Config struct {
	Version   string          `yaml:"version"`
	Logging   *logging.Config `yaml:"logging"`
	Resources *ResourceConfig `yaml:"resources"`
	Autosave  *AutosaveConfig `yaml:"autosave"`
	Debug     *DebugConfig    `yaml:"debug"`
}

// ResourceConfig maps the -resourcedir flag (and its YAML equivalent)
// to the directory a Blorb file or loose resource files are read from,
// per main.c's -resourcedir handling.
type ResourceConfig struct {
	Directory  string `yaml:"directory"`
	BlorbFile  string `yaml:"blorb_file,omitempty"`
}

// AutosaveConfig holds the autosave section of the config file (whether
// autosave is enabled and its path). Nothing in this module reads it;
// autosave documents are written only by explicit Library.Autosave calls.
type AutosaveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DebugConfig holds the debug section of the config file. Nothing in
// this module reads it; cmd/remglk-demo enables the debug console hook
// from its -D flag only.
type DebugConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the library's out-of-the-box configuration when no
// file is present.
func Default() *Config {
	def := logging.DefaultConfig()
	return &Config{
		Version:   "1",
		Logging:   &def,
		Resources: &ResourceConfig{Directory: "."},
		Autosave:  &AutosaveConfig{Enabled: false},
		Debug:     &DebugConfig{Enabled: false},
	}
}

// Load reads and parses a YAML config file, filling any missing
// sub-structs from Default() so callers never need nil checks.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if cfg.Logging == nil {
		def := logging.DefaultConfig()
		cfg.Logging = &def
	}
	if cfg.Resources == nil {
		cfg.Resources = &ResourceConfig{Directory: "."}
	}
	if cfg.Autosave == nil {
		cfg.Autosave = &AutosaveConfig{}
	}
	if cfg.Debug == nil {
		cfg.Debug = &DebugConfig{}
	}
	return cfg, nil
}

// ResolveResourcePath joins the configured resource directory with a
// relative path requested by a fileref, rejecting any attempt to escape
// the directory.
func (c *Config) ResolveResourcePath(name string) (string, error) {
	dir := "."
	if c.Resources != nil && c.Resources.Directory != "" {
		dir = c.Resources.Directory
	}
	full := filepath.Join(dir, name)
	rel, err := filepath.Rel(dir, full)
	if err != nil || len(rel) >= 2 && rel[:2] == ".." {
		return "", fmt.Errorf("config: resource path %q escapes resource directory", name)
	}
	return full, nil
}
