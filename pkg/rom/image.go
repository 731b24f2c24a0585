// Package rom models a Nintendo 64 ROM image that carries a DMA file table:
// loading and byte-order normalization, locating and reading the table, and
// the input/output buffer pair the compression pipeline works on.
package rom

import (
	"errors"
	"fmt"
	"os"

	"github.com/hansbonini/z64tools/pkg/common"
)

const (
	// CompressedSize is the size of a retail (compressed) image.
	CompressedSize = 0x2000000
	// DecompressedSize is the size of a fully decompressed image.
	DecompressedSize = 0x4000000

	// byteSwappedMagic is the first byte of a .v64 image, whose 16-bit
	// words are stored with their bytes swapped.
	byteSwappedMagic = 0x37
)

var (
	ErrInputSizeMismatch = errors.New("input image has the wrong size")
	ErrIOFailure         = errors.New("i/o failure")
)

// Layout holds the fixed image sizes of both sides of the pipeline
type Layout struct {
	CompressedSize   int
	DecompressedSize int
}

// N64Layout is the layout of retail Ocarina of Time images
var N64Layout = Layout{
	CompressedSize:   CompressedSize,
	DecompressedSize: DecompressedSize,
}

// LoadImage reads a ROM image from path, checks that it is exactly
// expectedSize bytes long and normalizes it to big-endian byte order.
// An expectedSize of zero accepts any size.
func LoadImage(path string, expectedSize int) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if expectedSize > 0 && len(data) != expectedSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, expected %d",
			ErrInputSizeMismatch, path, len(data), expectedSize)
	}

	if NormalizeByteOrder(data) {
		common.LogDebug(common.DebugByteSwapped)
	}
	return data, nil
}

// NormalizeByteOrder swaps every 16-bit word of a .v64 image in place so
// that it becomes big-endian. It reports whether the image was swapped.
func NormalizeByteOrder(data []byte) bool {
	if len(data) == 0 || data[0] != byteSwappedMagic {
		return false
	}
	for i := 0; i+1 < len(data); i += 2 {
		data[i], data[i+1] = data[i+1], data[i]
	}
	return true
}
