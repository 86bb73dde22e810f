package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirName is the per-project state directory
	DirName = ".phishdrill"

	// ConfigFileName is the config file inside the home directory
	ConfigFileName = "config.yaml"

	// HomeEnv overrides home discovery
	HomeEnv = "PHISHDRILL_HOME"
)

// Home returns the phishdrill home directory
// Priority order:
//  1. PHISHDRILL_HOME environment variable (if set)
//  2. Nearest ancestor of the working directory containing .phishdrill
//  3. .phishdrill in the current working directory (fallback)
//
// The directory is not created; writers create what they need.
func Home() (string, error) {
	if home := os.Getenv(HomeEnv); home != "" {
		return home, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	if root, ok := findHomeRoot(cwd); ok {
		return filepath.Join(root, DirName), nil
	}
	return filepath.Join(cwd, DirName), nil
}

// findHomeRoot walks up from start looking for a .phishdrill directory
func findHomeRoot(start string) (string, bool) {
	current := start
	for {
		info, err := os.Stat(filepath.Join(current, DirName))
		if err == nil && info.IsDir() {
			return current, true
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root
			return "", false
		}
		current = parent
	}
}

// Load reads the config file at path, or the home config when path is empty
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadConfig(path)
	}
	home, err := Home()
	if err != nil {
		return nil, err
	}
	return LoadConfigFromHome(home)
}
