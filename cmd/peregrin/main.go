// Package main provides the peregrin CLI: storage initialization, engine
// runs, and inspection of the item/event graph store.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}
