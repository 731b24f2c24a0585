package pkg

import (
	"errors"
	"io"

	"github.com/hansbonini/z64tools/pkg/pool"
	"github.com/hansbonini/z64tools/pkg/rom"
)

var (
	ErrMissingCompressionIndex = errors.New("compression index missing")
	ErrOutputOverflow          = errors.New("packed files do not fit in the output image")
	// ErrCompressedInput is returned when Compress is given an image whose
	// files are still compressed.
	ErrCompressedInput = errors.New("input image is not decompressed")
)

// Options configures a ROMProcessor
type Options struct {
	// Layout holds the expected image sizes. Zero selects rom.N64Layout.
	Layout rom.Layout
	// Workers bounds the number of concurrent codec jobs. Zero or less
	// selects pool.DefaultSize.
	Workers int
	// IndexFile is a flag file used by Compress when the image carries no
	// embedded compression index.
	IndexFile string
	// Checksum repairs the boot checksum before saving. Nil skips it.
	Checksum rom.Checksummer
	// Progress is called after each codec job.
	Progress pool.ProgressFunc
}

// DefaultOptions returns options for retail Ocarina of Time images
func DefaultOptions() Options {
	return Options{
		Layout:   rom.N64Layout,
		Workers:  pool.DefaultSize(),
		Checksum: rom.N64Checksum{},
	}
}

// ROMCompressor packs a decompressed image back into a retail layout
type ROMCompressor interface {
	Compress(c *rom.Container) error
	CompressROM(inputFile, outputFile string) error
}

// ROMDecompressor expands every compressed file of an image into a fresh
// output image
type ROMDecompressor interface {
	Decompress(c *rom.Container) error
	DecompressROM(inputFile, outputFile string) error
}

// TableExporter writes a file table in a human-readable format
type TableExporter interface {
	ExportYAML(table *rom.Table, writer io.Writer) error
	ExportCSV(table *rom.Table, writer io.Writer) error
}

var (
	_ ROMCompressor   = (*ROMProcessor)(nil)
	_ ROMDecompressor = (*ROMProcessor)(nil)
	_ TableExporter   = (*TableFileExporter)(nil)
)
