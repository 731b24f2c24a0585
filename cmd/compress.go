package cmd

import (
	"fmt"

	"github.com/hansbonini/z64tools/pkg/common"
	"github.com/spf13/cobra"
)

// compressCmd packs a decompressed image back into the retail layout
var compressCmd = &cobra.Command{
	Use:   "compress [input_file] [output_file]",
	Short: "Compress a decompressed ROM image",
	Long: `Compress a ROM image produced by 'decompress'.

Files that were compressed in the retail image are compressed again and every
file is packed back to back into a 32 MiB image. The compression index stored
by 'decompress' decides which files get compressed. Images without one need
--index-file, a file of '0'/'1' flags as written by 'table index'.

When the output file is omitted, '-comp' is appended to the input name.

Example:
  z64tools compress oot-decomp.z64
  z64tools compress --index-file table.txt oot-mod.z64 oot-mod-comp.z64`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile := args[0]
		outputFile := common.DeriveOutputName(inputFile, "-comp", ".z64")
		if len(args) > 1 {
			outputFile = args[1]
		}

		processor, err := newProcessor(cmd)
		if err != nil {
			return err
		}

		if err := processor.CompressROM(inputFile, outputFile); err != nil {
			return fmt.Errorf("failed to compress ROM: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compressCmd)
	addWorkerFlag(compressCmd)
	compressCmd.Flags().String("index-file", "", "Compression flag file used when the image carries no index")
}
