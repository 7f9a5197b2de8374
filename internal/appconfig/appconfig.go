// Package appconfig holds CLI-wide operator defaults that are not election
// data: a default tie-break seed, default verbosity, default output
// directory, and an optional Prometheus listen address. The file is
// created with documented default values on first run; Load never rewrites a
// file that already exists.
package appconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the operator-wide default set read from ~/.concretestv.toml.
type Config struct {
	DefaultSeed      int64  `toml:"DefaultSeed"`
	DefaultVerbosity string `toml:"DefaultVerbosity"`
	OutputDir        string `toml:"OutputDir"`
	MetricsAddr      string `toml:"MetricsAddr"`
}

// DefaultPath returns ~/.concretestv.toml, the conventional location Load
// falls back to when no explicit path is given.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("appconfig: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".concretestv.toml"), nil
}

// Load reads the configuration at path, creating a default file there if
// none exists yet. Pass an empty path to use DefaultPath().
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	} else if err != nil {
		return nil, fmt.Errorf("appconfig: stat %s: %w", path, err)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("appconfig: decode %s: %w", path, err)
	}
	return cfg, nil
}

// createDefault writes the documented default configuration to path and
// returns it.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		DefaultSeed:      0,
		DefaultVerbosity: "info",
		OutputDir:        "",
		MetricsAddr:      "",
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("appconfig: create %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, fmt.Errorf("appconfig: encode default config: %w", err)
	}
	return cfg, nil
}
