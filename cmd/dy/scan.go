package main

import (
	"github.com/spf13/cobra"

	"github.com/jacentio/dynabatch/display"
)

var scanLimit int

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List the items of a table",
	Long: `Scan a table and print one row per item: the key attributes, then
the remaining attributes as compact JSON.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
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

		t := display.NewTable(cmd.OutOrStdout(), schema.Names())
		if err := s.Scan(ctx, table, scanLimit, t.Row); err != nil {
			return err
		}
		return t.Flush()
	},
}

func init() {
	scanCmd.Flags().IntVar(&scanLimit, "limit", 0, "stop after this many items (0 for all)")
	rootCmd.AddCommand(scanCmd)
}
