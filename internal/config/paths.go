package config

import (
	"os"
	"path/filepath"
)

// Environment variables read by the resolver.
const (
	EnvConfig        = "BPMIGRATE_CONFIG"
	EnvWorkspace     = "BPMIGRATE_WORKSPACE"
	EnvNativeCatalog = "BPMIGRATE_NATIVE_CATALOG"
	EnvSnapshot      = "BPMIGRATE_SNAPSHOT"
)

// Paths contains standard filesystem paths for bpmigrate.
type Paths struct {
	// ConfigFile is the path to the config file (~/.bpmigrate/config.yaml).
	ConfigFile string

	// HomeDir is the bpmigrate home directory (~/.bpmigrate).
	HomeDir string
}

// DefaultPaths returns the default paths for bpmigrate.
func DefaultPaths() (*Paths, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	home := filepath.Join(homeDir, ".bpmigrate")

	return &Paths{
		ConfigFile: filepath.Join(home, "config.yaml"),
		HomeDir:    home,
	}, nil
}

// ConfigFileExists checks if the config file exists.
func ConfigFileExists(configFile string) (bool, error) {
	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(expandedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) == 0 {
		return path, nil
	}

	if path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if len(path) == 1 {
		return homeDir, nil
	}

	// Handle ~/path/to/something
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:]), nil
	}

	// Handle ~username (not supported, return as-is)
	return path, nil
}
