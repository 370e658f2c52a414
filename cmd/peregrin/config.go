// Config loading for the peregrin CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// Config keys.
	cfgKeyDataDir     = "data_dir"
	cfgKeyThrottle    = "throttle"
	cfgKeyAnchorURI   = "anchor_uri"
	cfgKeyFolderPaths = "folder_paths"
)

// defaultAnchorURI names the FileScanner anchor item when config.yaml does
// not override it.
const defaultAnchorURI = "peregrin://filescanner"

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# Peregrin CLI configuration

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

# Politeness delay between processed items (1-10s random sleep)
throttle: false

# Folder roots seeded into the FileScanner anchor item on first run
# folder_paths:
#   - /home/user/documents
`

// settings is the loaded configuration, set by the root command before any
// subcommand runs.
var settings *viper.Viper

// loadConfig reads config.yaml from the resolved config directory using
// Viper. It creates the config directory and a default config.yaml on
// first run. A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyThrottle, false)
	v.SetDefault(cfgKeyAnchorURI, defaultAnchorURI)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does
// not exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
