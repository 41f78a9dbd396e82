// Package config handles dispatch.toml engine configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/multimethods/dispatch"
)

// Config tunes the dispatch engine. Every field has a working default,
// so hosts without a dispatch.toml never need this package.
type Config struct {
	Hash  Hash  `toml:"hash"`
	Trace Trace `toml:"trace"`

	// Dir is the directory containing the dispatch.toml file (set at
	// load time).
	Dir string `toml:"-"`
}

// Hash tunes the perfect-hash multiplier search.
type Hash struct {
	// Attempts bounds the random multipliers tried per table size.
	Attempts int `toml:"attempts"`

	// MinRoom and MaxRoom bound the table-size ladder: room r means a
	// table of r*N/2 entries.
	MinRoom int `toml:"min-room"`
	MaxRoom int `toml:"max-room"`
}

// Trace configures the optional diagnostic surface.
type Trace struct {
	// Verbose raises the update pass's log verbosity.
	Verbose bool `toml:"verbose"`

	// Snapshot, when set, is where table snapshots are written.
	Snapshot string `toml:"snapshot"`
}

// Default returns the standard configuration, mirroring
// dispatch.DefaultOptions.
func Default() *Config {
	return &Config{
		Hash: Hash{
			Attempts: 100000,
			MinRoom:  2,
			MaxRoom:  6,
		},
	}
}

// Load parses a dispatch.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "dispatch.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if c.Hash.Attempts <= 0 {
		c.Hash.Attempts = 100000
	}
	if c.Hash.MinRoom < 2 {
		c.Hash.MinRoom = 2
	}
	if c.Hash.MaxRoom < c.Hash.MinRoom {
		c.Hash.MaxRoom = c.Hash.MinRoom
	}

	return c, nil
}

// FindAndLoad walks up from startDir to find a dispatch.toml file, then
// loads and returns the configuration. Returns nil if none is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "dispatch.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// SnapshotPath returns the absolute snapshot destination, or "" if
// snapshots are not configured.
func (c *Config) SnapshotPath() string {
	if c.Trace.Snapshot == "" {
		return ""
	}
	if filepath.IsAbs(c.Trace.Snapshot) || c.Dir == "" {
		return c.Trace.Snapshot
	}
	return filepath.Join(c.Dir, c.Trace.Snapshot)
}

// Options converts the configuration into engine tuning.
func (c *Config) Options() dispatch.Options {
	return dispatch.Options{
		HashAttempts: c.Hash.Attempts,
		HashMinRoom:  c.Hash.MinRoom,
		HashMaxRoom:  c.Hash.MaxRoom,
	}
}
