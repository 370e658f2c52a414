package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var engineCmd = &cobra.Command{
	Use:   "engine",
	Short: "Inspect and gate registered engines",
}

var engineDisableCmd = &cobra.Command{
	Use:   "disable <engine-id>",
	Short: "Disable an engine so the driver skips its runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEngineGate(cmd, args[0], true)
	},
}

var engineEnableCmd = &cobra.Command{
	Use:   "enable <engine-id>",
	Short: "Re-enable a disabled engine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEngineGate(cmd, args[0], false)
	},
}

var engineActionsCmd = &cobra.Command{
	Use:   "actions <engine-id>",
	Short: "List the engine's enabled actions that still have pending work",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		actions, err := store.EngineActions(args[0])
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd.OutOrStdout(), actions)
		}
		for _, a := range actions {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", a.ActionName, a.Handler)
		}
		return nil
	},
}

func init() {
	engineCmd.AddCommand(engineDisableCmd)
	engineCmd.AddCommand(engineEnableCmd)
	engineCmd.AddCommand(engineActionsCmd)
}

func setEngineGate(cmd *cobra.Command, engineID string, disabled bool) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SetEngineDisabled(engineID, disabled); err != nil {
		return err
	}

	state := "enabled"
	if disabled {
		state = "disabled"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "engine %s: %s\n", engineID, state)
	return nil
}
