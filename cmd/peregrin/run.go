package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stackingturtles/peregrin/internal/driver"
	"github.com/stackingturtles/peregrin/internal/filescan"
	"github.com/stackingturtles/peregrin/pkg/types"
)

var flagThrottle bool

var runCmd = &cobra.Command{
	Use:   "run <engine>",
	Short: "Register an engine and run its actions once",
	Long:  "Register the named engine, then run its action table: self-starting\nactions first, then the pending work queue in commit batches.",
	Args:  cobra.ExactArgs(1),
	RunE:  runEngine,
}

func init() {
	runCmd.Flags().BoolVar(&flagThrottle, "throttle", false, "sleep 1-10s between processed items")
}

func runEngine(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	logger := newLogger()
	engine, err := buildEngine(args[0], store, logger)
	if err != nil {
		return err
	}

	runner := driver.New(store, engine, logger)
	runner.Throttle = settings.GetBool(cfgKeyThrottle)
	if cmd.Flags().Changed("throttle") {
		runner.Throttle = flagThrottle
	}

	return runner.Run()
}

// buildEngine constructs the named engine against the open store.
func buildEngine(name string, store types.Store, logger *slog.Logger) (driver.Engine, error) {
	switch strings.ToLower(name) {
	case "filescanner":
		return filescan.New(store, logger,
			settings.GetString(cfgKeyAnchorURI),
			settings.GetStringSlice(cfgKeyFolderPaths)), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (available: filescanner)", name)
	}
}
