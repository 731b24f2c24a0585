package cmd

import (
	"fmt"

	"github.com/hansbonini/z64tools/pkg/common"
	"github.com/spf13/cobra"
)

// decompressCmd expands every compressed file of a retail image
var decompressCmd = &cobra.Command{
	Use:   "decompress [input_file] [output_file]",
	Short: "Decompress every file of a retail ROM image",
	Long: `Decompress every Yaz0 file of a retail ROM image.

Each file is placed at its virtual address in a 64 MiB image and the table is
rewritten to point at it. The image also records which files were compressed,
so that 'compress' can restore the original layout later.

When the output file is omitted, '-decomp' is appended to the input name.

Example:
  z64tools decompress oot.z64
  z64tools decompress -j 4 oot.z64 oot-decomp.z64`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile := args[0]
		outputFile := common.DeriveOutputName(inputFile, "-decomp", ".z64")
		if len(args) > 1 {
			outputFile = args[1]
		}

		processor, err := newProcessor(cmd)
		if err != nil {
			return err
		}

		if err := processor.DecompressROM(inputFile, outputFile); err != nil {
			return fmt.Errorf("failed to decompress ROM: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decompressCmd)
	addWorkerFlag(decompressCmd)
}
