// Package sqlite provides the public API for the SQLite Peregrin store.
// It exposes the factory function while keeping the implementation
// internal.
package sqlite

import (
	"github.com/stackingturtles/peregrin/internal/sqlite"
	"github.com/stackingturtles/peregrin/pkg/types"
)

// Open creates or opens the store in config.DataDir.
//
// Example:
//
//	store, err := sqlite.Open(types.Config{DataDir: ".peregrin"})
//	if err != nil { ... }
//	defer store.Close()
func Open(config types.Config) (types.Store, error) {
	return sqlite.Open(config)
}
