package pkg

import (
	"bytes"
	"fmt"
	"os"

	"github.com/boljen/go-bitmap"
	"github.com/hansbonini/z64tools/pkg/common"
	"github.com/hansbonini/z64tools/pkg/rom"
	"github.com/noxer/bytewriter"
)

// CompressionIndex records, per table entry, whether the file was stored
// compressed in the original image. Decompress embeds it in the expanded
// image so that Compress can restore the same choice for every file.
type CompressionIndex struct {
	flags bitmap.Bitmap
	count int
}

// NewCompressionIndex returns an index of count entries, all uncompressed
func NewCompressionIndex(count int) *CompressionIndex {
	return &CompressionIndex{
		flags: bitmap.New(count),
		count: count,
	}
}

// ParseCompressionIndex reads an index stored as one byte per entry. Any
// nonzero byte marks a compressed entry.
func ParseCompressionIndex(data []byte) *CompressionIndex {
	index := NewCompressionIndex(len(data))
	for i, b := range data {
		index.Set(i, b != 0)
	}
	return index
}

// ExtractCompressionFlags builds the index of a compressed image straight
// from its table
func ExtractCompressionFlags(table *rom.Table) *CompressionIndex {
	index := NewCompressionIndex(len(table.Entries))
	for i, entry := range table.Entries {
		index.Set(i, entry.IsCompressed())
	}
	return index
}

// EmbeddedIndex returns the index a decompressed image carries at the
// physical start of its last table entry. It reports false when the image
// has none.
func EmbeddedIndex(image []byte, table *rom.Table) (*CompressionIndex, bool, error) {
	count := len(table.Entries)
	reserved := table.Entries[count-1]
	if reserved.StartP == 0 {
		return nil, false, nil
	}

	start := int64(reserved.StartP)
	if start+int64(count) > int64(len(image)) {
		return nil, false, fmt.Errorf("%w: compression index at 0x%08X outside the image",
			rom.ErrCorruptTable, reserved.StartP)
	}
	common.LogDebug(common.DebugIndexLoaded, reserved.StartP, count)
	return ParseCompressionIndex(image[start : start+int64(count)]), true, nil
}

// IndexFromImage returns the compression index of any image: the embedded
// one of a decompressed image, or the flags implied by the table of a
// compressed one.
func IndexFromImage(image []byte, table *rom.Table) (*CompressionIndex, error) {
	index, ok, err := EmbeddedIndex(image, table)
	if err != nil {
		return nil, err
	}
	if ok {
		return index, nil
	}
	return ExtractCompressionFlags(table), nil
}

// Len returns the number of entries in the index
func (x *CompressionIndex) Len() int {
	return x.count
}

// IsCompressed reports whether entry i is flagged compressed. Entries past
// the end of the index are reported uncompressed.
func (x *CompressionIndex) IsCompressed(i int) bool {
	if i < 0 || i >= x.count {
		return false
	}
	return x.flags.Get(i)
}

// Set flags entry i
func (x *CompressionIndex) Set(i int, compressed bool) {
	x.flags.Set(i, compressed)
}

// Compressed returns the number of entries flagged compressed
func (x *CompressionIndex) Compressed() int {
	n := 0
	for i := 0; i < x.count; i++ {
		if x.flags.Get(i) {
			n++
		}
	}
	return n
}

// Bytes returns the index as one 0/1 byte per entry, the form stored in
// decompressed images
func (x *CompressionIndex) Bytes() []byte {
	out := make([]byte, x.count)
	for i := range out {
		if x.flags.Get(i) {
			out[i] = 1
		}
	}
	return out
}

// Embed writes the index into image at pos
func (x *CompressionIndex) Embed(image []byte, pos int) error {
	if pos < 0 || pos+x.count > len(image) {
		return fmt.Errorf("%w: %d index bytes at 0x%X", ErrOutputOverflow, x.count, pos)
	}
	if _, err := bytewriter.New(image[pos:]).Write(x.Bytes()); err != nil {
		return common.FormatError(common.ErrFailedToWriteIndex, err)
	}
	return nil
}

// WriteFlagFile stores the index as an ASCII string of '0' and '1', one
// character per entry
func (x *CompressionIndex) WriteFlagFile(path string) error {
	text := make([]byte, x.count)
	for i := range text {
		text[i] = '0'
		if x.flags.Get(i) {
			text[i] = '1'
		}
	}
	if err := os.WriteFile(path, text, 0644); err != nil {
		return fmt.Errorf("%w: %w", rom.ErrIOFailure, err)
	}
	return nil
}

// ReadFlagFile loads an index written by WriteFlagFile. Raw 0x00/0x01
// bytes are accepted as well.
func ReadFlagFile(path string) (*CompressionIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", rom.ErrIOFailure, err)
	}
	data = bytes.TrimRight(data, "\r\n")

	index := NewCompressionIndex(len(data))
	for i, b := range data {
		switch b {
		case '0', 0x00:
		case '1', 0x01:
			index.Set(i, true)
		default:
			return nil, common.FormatErrorString(common.ErrFailedToReadIndex,
				"invalid flag 0x%02X at %d in %s", b, i, path)
		}
	}
	return index, nil
}
