package main

import (
	"github.com/spf13/cobra"

	"github.com/jacentio/dynabatch/display"
	"github.com/jacentio/dynabatch/store"
)

var getCmd = &cobra.Command{
	Use:   "get <pk> [sk]",
	Short: "Print one item as JSON",
	Long: `Fetch one item by its key and print it as indented JSON.

Key values are typed with the table's key schema, so numeric and binary
(base64) keys are given as plain text.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		table, err := requireTable()
		if err != nil {
			return err
		}
		s, err := openStore(ctx)
		if err != nil {
			return err
		}

		schema, err := s.DescribeKeys(ctx, table)
		if err != nil {
			return err
		}
		key, err := store.KeyFromArgs(schema, args...)
		if err != nil {
			return err
		}

		item, err := s.Get(ctx, table, key)
		if err != nil {
			return err
		}
		return display.WriteItem(cmd.OutOrStdout(), item)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
