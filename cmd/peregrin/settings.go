// The config command reads and writes the store's key-value config table,
// distinct from the CLI's own config.yaml.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stackingturtles/peregrin/pkg/types"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write stored configuration values",
}

var configGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print one stored config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		value, err := store.Config(args[0])
		if errors.Is(err, types.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "config %q not set\n", args[0])
			os.Exit(exitUserError)
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Insert or update one stored config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		engineID, err := cliEngineID(store)
		if err != nil {
			return err
		}
		if err := store.SetConfig(engineID, args[0], args[1]); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
