// Package cmd provides command-line interface for file table inspection.
// This file contains commands that dump the DMA file table and the
// compression index of a ROM image.
package cmd

import (
	"fmt"

	"github.com/hansbonini/z64tools/pkg"
	"github.com/hansbonini/z64tools/pkg/common"
	"github.com/spf13/cobra"
)

// tableCmd represents the parent command for file table operations
var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Inspect the file table of a ROM image",
	Long: `Inspect the DMA file table of a ROM image.

Commands:
  dump      Write the file table to YAML or CSV
  index     Write the compression flags of every entry

Examples:
  z64tools table dump oot.z64 table.yaml
  z64tools table index oot.z64 table.txt`,
}

// tableDumpCmd exports the file table
var tableDumpCmd = &cobra.Command{
	Use:   "dump [input_file] [output_file]",
	Short: "Write the file table to YAML or CSV",
	Long: `Write every entry of the file table with its virtual and physical
range, size and compression state. An output name ending in .csv selects CSV,
anything else YAML.

Example:
  z64tools table dump oot.z64 table.csv`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		processor := pkg.NewROMProcessor(pkg.DefaultOptions())
		if err := processor.ExportTable(args[0], args[1]); err != nil {
			return fmt.Errorf("failed to dump table: %w", err)
		}
		return nil
	},
}

// tableIndexCmd exports the compression index as a flag file
var tableIndexCmd = &cobra.Command{
	Use:   "index [input_file] [flag_file]",
	Short: "Write the compression flags of every entry",
	Long: `Write one '0' or '1' per table entry, '1' marking a compressed file.
Works on retail images and on images produced by 'decompress'. The result can
be passed to 'compress --index-file'.

When the flag file is omitted, 'table.txt' next to the input is used.

Example:
  z64tools table index oot.z64 table.txt`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		flagFile := common.SiblingPath(args[0], "table.txt")
		if len(args) > 1 {
			flagFile = args[1]
		}

		processor := pkg.NewROMProcessor(pkg.DefaultOptions())
		if err := processor.ExportIndex(args[0], flagFile); err != nil {
			return fmt.Errorf("failed to write compression index: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tableCmd)
	tableCmd.AddCommand(tableDumpCmd)
	tableCmd.AddCommand(tableIndexCmd)
}
