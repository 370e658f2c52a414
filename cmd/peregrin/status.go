package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagStatusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent audit-trail lines, newest first",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&flagStatusLimit, "limit", 20, "maximum number of lines")
}

func runStatus(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	lines, err := store.RecentStatus(flagStatusLimit)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), lines)
	}
	for _, line := range lines {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n",
			line.CreatedAt.Format("2006-01-02 15:04:05"), line.Message)
	}
	return nil
}
