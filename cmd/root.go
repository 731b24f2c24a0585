// Package cmd provides command-line interface functionality for Z64Tools.
// Z64Tools rebuilds Nintendo 64 ROM images whose files are stored as Yaz0
// compressed entries of a DMA file table.
package cmd

import (
	"os"

	"github.com/hansbonini/z64tools/pkg"
	"github.com/hansbonini/z64tools/pkg/common"
	"github.com/hansbonini/z64tools/pkg/pool"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
// It provides the main entry point for the Z64Tools application.
var rootCmd = &cobra.Command{
	Use:   "z64tools",
	Short: "Tools for rebuilding compressed Nintendo 64 ROM images",
	Long: `Z64Tools - Decompress and recompress Nintendo 64 ROM images that
store their files as Yaz0 entries of a DMA file table.

Currently supports:
  - Decompressing a 32 MiB retail image into a 64 MiB image
  - Recompressing a decompressed image into the retail layout
  - Dumping the file table and the compression index

Examples:
  z64tools decompress oot.z64
  z64tools compress oot-decomp.z64 oot-mod.z64
  z64tools table dump oot.z64 table.yaml
  z64tools table index oot.z64 table.txt

Use 'z64tools [command] --help' for more information about a command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return err
		}
		common.SetVerboseMode(verbose)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main() and serves as the entry point for command execution.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// newProcessor builds a ROM processor from the flags shared by compress
// and decompress
func newProcessor(cmd *cobra.Command) (*pkg.ROMProcessor, error) {
	opts := pkg.DefaultOptions()

	workers, err := cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}
	if workers > 0 {
		opts.Workers = workers
	}
	common.LogInfo(common.InfoUsingWorkers, opts.Workers)

	if cmd.Flags().Lookup("index-file") != nil {
		opts.IndexFile, err = cmd.Flags().GetString("index-file")
		if err != nil {
			return nil, err
		}
	}

	return pkg.NewROMProcessor(opts), nil
}

// addWorkerFlag registers the worker count flag on cmd
func addWorkerFlag(cmd *cobra.Command) {
	cmd.Flags().IntP("workers", "j", pool.DefaultSize(), "Number of concurrent compression jobs")
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output (show debug messages)")
}
