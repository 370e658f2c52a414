package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackingturtles/peregrin/pkg/types"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Control the run queue pause flag",
}

var queueStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Ask running batches to halt at their next commit point",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRunQueue(cmd, types.RunQueueStopped, "stopped")
	},
}

var queueStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Let batches proceed again",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRunQueue(cmd, types.RunQueueRunning, "running")
	},
}

var queueShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the run queue state",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		value, err := store.Config(types.ConfigRunQueue)
		if errors.Is(err, types.ErrNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "run queue: running (flag unset)")
			return nil
		}
		if err != nil {
			return err
		}

		state := "running"
		if value == types.RunQueueStopped {
			state = "stopped"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "run queue: %s\n", state)
		return nil
	},
}

func init() {
	queueCmd.AddCommand(queueStopCmd)
	queueCmd.AddCommand(queueStartCmd)
	queueCmd.AddCommand(queueShowCmd)
}

func setRunQueue(cmd *cobra.Command, value, label string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	engineID, err := cliEngineID(store)
	if err != nil {
		return err
	}
	if err := store.SetConfig(engineID, types.ConfigRunQueue, value); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "run queue: %s\n", label)
	return nil
}
