package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stackingturtles/peregrin/pkg/types"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	DataDir     string   `yaml:"data_dir,omitempty"`
	Throttle    bool     `yaml:"throttle"`
	AnchorURI   string   `yaml:"anchor_uri,omitempty"`
	FolderPaths []string `yaml:"folder_paths,omitempty"`
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize peregrin storage",
	Long:  "Create configuration and data directories, initialize the database schema,\nand start the run queue.",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	// An explicit --data-dir is persisted so later invocations find the
	// same database without the flag.
	if flagDataDir != "" {
		if err := persistDataDir(); err != nil {
			return err
		}
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	// First init starts the run queue; later inits leave the flag alone.
	if _, err := store.Config(types.ConfigRunQueue); errors.Is(err, types.ErrNotFound) {
		engineID, err := cliEngineID(store)
		if err != nil {
			return err
		}
		if err := store.SetConfig(engineID, types.ConfigRunQueue, types.RunQueueRunning); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	dataDir, err := resolveDataDir()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Peregrin initialized in %s\n", dataDir)
	return nil
}

// persistDataDir rewrites config.yaml carrying the current settings plus
// the data directory given on the command line.
func persistDataDir() error {
	configDir, err := resolveConfigDir()
	if err != nil {
		return err
	}
	dataDir, err := filepath.Abs(flagDataDir)
	if err != nil {
		return err
	}

	cfg := configFile{
		DataDir:     dataDir,
		Throttle:    settings.GetBool(cfgKeyThrottle),
		AnchorURI:   settings.GetString(cfgKeyAnchorURI),
		FolderPaths: settings.GetStringSlice(cfgKeyFolderPaths),
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	path := filepath.Join(configDir, configFileExt)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	configDataDir = dataDir
	return nil
}
