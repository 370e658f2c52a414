package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stackingturtles/peregrin/pkg/types"
)

var (
	flagItemTags     []string
	flagChildrenLink string
	flagListOthers   bool
	flagListMonths   int
)

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Add and inspect items in the graph store",
}

var itemAddCmd = &cobra.Command{
	Use:   "add <uri>",
	Short: "Get or create an item by URI, scheduling work for any tags",
	Args:  cobra.ExactArgs(1),
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

		var groups [][]string
		if len(flagItemTags) > 0 {
			groups = append(groups, flagItemTags)
		}
		itemID, err := store.AddItem(engineID, args[0], time.Now(), groups...)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), itemID)
		return nil
	},
}

var itemDataCmd = &cobra.Command{
	Use:   "data <item-id>",
	Short: "List an item's attributes in insertion order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		data, err := store.ItemDataAll(args[0])
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd.OutOrStdout(), data)
		}
		for _, d := range data {
			fmt.Fprintf(cmd.OutOrStdout(), "%s[%d] = %s\n", d.Key, d.Seq, d.Value)
		}
		return nil
	},
}

var itemValuesCmd = &cobra.Command{
	Use:   "values <data-key>",
	Short: "List the distinct values of a data key across all items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		values, err := store.ItemDataValues(args[0])
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd.OutOrStdout(), values)
		}
		for _, v := range values {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
		return nil
	},
}

var itemListCmd = &cobra.Command{
	Use:   "list <engine-id> <action>",
	Short: "List pending work for an engine and action",
	Long:  "List items holding pending events for the engine/action pair.\nWith --others, list items any engine scheduled for the action that this\nengine has not completed yet.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		items, err := store.PendingItems(args[0], args[1], flagListOthers, flagListMonths)
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd.OutOrStdout(), items)
		}
		for _, w := range items {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", w.ItemID, w.URI)
		}
		return nil
	},
}

var itemTreeCmd = &cobra.Command{
	Use:   "tree <item-id>",
	Short: "Show every item reachable from the given root via links",
	Args:  cobra.ExactArgs(1),
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
		tree, err := store.ItemTree(engineID, args[0])
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd.OutOrStdout(), tree)
		}
		for uri, node := range tree {
			name := ""
			if node.Name != nil {
				name = *node.Name
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", uri, name)
		}
		return nil
	},
}

var itemChildrenCmd = &cobra.Command{
	Use:   "children <item-id> <data-key>",
	Short: "List values of a data key not yet linked under the given item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		values, err := store.ItemChildren(args[0], args[1], flagChildrenLink)
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd.OutOrStdout(), values)
		}
		for _, v := range values {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
		return nil
	},
}

func init() {
	itemAddCmd.Flags().StringArrayVar(&flagItemTags, "tag", nil, "action tag to schedule for the item (repeatable)")
	itemChildrenCmd.Flags().StringVar(&flagChildrenLink, "link", types.LinkTypeContains, "link type to check against")
	itemListCmd.Flags().BoolVar(&flagListOthers, "others", false, "include items scheduled by other engines")
	itemListCmd.Flags().IntVar(&flagListMonths, "months", -3, "trailing event window in months (negative)")

	itemCmd.AddCommand(itemAddCmd)
	itemCmd.AddCommand(itemDataCmd)
	itemCmd.AddCommand(itemValuesCmd)
	itemCmd.AddCommand(itemListCmd)
	itemCmd.AddCommand(itemTreeCmd)
	itemCmd.AddCommand(itemChildrenCmd)
}
