// Shared helpers for peregrin CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/stackingturtles/peregrin/pkg/sqlite"
	"github.com/stackingturtles/peregrin/pkg/types"
)

// openStore resolves the data directory and opens the store. Callers own
// the Close.
func openStore() (types.Store, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	store, err := sqlite.Open(types.Config{DataDir: dataDir})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

// cliEngineID registers (or resolves) the CLI's own engine row, used to
// attribute config changes and manually added items.
func cliEngineID(store types.Store) (string, error) {
	return store.AddEngine("CLI", version, "peregrin command line")
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
