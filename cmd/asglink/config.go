package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"asglink/internal/filter"
)

const configFileName = "asglink.toml"

type fileConfig struct {
	Link   linkConfig    `toml:"link"`
	Filter filter.Config `toml:"filter"`

	// dir is where the file was found; relative paths resolve against it.
	dir string
}

type linkConfig struct {
	Inputs          []string `toml:"inputs"`
	Output          string   `toml:"output"`
	Base            string   `toml:"base"`
	Changeset       string   `toml:"changeset"`
	StrictPositions bool     `toml:"strict_positions"`
	Dump            string   `toml:"dump"`
	DumpFormat      string   `toml:"dump_format"`
	UI              string   `toml:"ui"`
}

func findConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadConfig decodes path and rejects unknown keys.
func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fileConfig{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// resolveConfig loads --config, or the nearest asglink.toml. A missing file
// yields the zero config.
func resolveConfig(cmd *cobra.Command) (fileConfig, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return fileConfig{}, err
	}
	if path == "" {
		found, ok, err := findConfig(".")
		if err != nil || !ok {
			return fileConfig{}, err
		}
		path = found
	}
	return loadConfig(path)
}

// path resolves a path from the file against the file's directory.
func (c fileConfig) path(p string) string {
	if p == "" || c.dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.dir, p)
}

func (c fileConfig) paths(ps []string) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = c.path(p)
	}
	return out
}
