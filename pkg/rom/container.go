package rom

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hansbonini/z64tools/pkg/common"
	"github.com/xaionaro-go/bytesextra"
)

// Checksummer repairs the boot checksum of a finished image
type Checksummer interface {
	Fix(image []byte) error
}

// Container holds an input image with its file table and the output image
// being built from it. The input and its table are never modified; the
// output buffer and output table start as copies.
type Container struct {
	in    []byte
	out   []byte
	table *Table

	outEntries []Entry

	// Checksum is applied to the output by Save. Nil skips the repair.
	Checksum Checksummer
}

// NewContainer reads the file table of image and prepares an output buffer
// of outSize bytes holding a copy of the input.
func NewContainer(image []byte, outSize int) (*Container, error) {
	table, err := ReadTable(image)
	if err != nil {
		return nil, err
	}

	c := &Container{
		in:         image,
		table:      table,
		outEntries: make([]Entry, len(table.Entries)),
		Checksum:   N64Checksum{},
	}
	copy(c.outEntries, table.Entries)
	c.out = make([]byte, outSize)
	copy(c.out, image)

	return c, nil
}

// EntryCount returns the number of table entries
func (c *Container) EntryCount() int {
	return len(c.table.Entries)
}

// TableOffset returns the byte offset of the file table
func (c *Container) TableOffset() int {
	return c.table.Offset
}

// Table returns the file table read from the input image
func (c *Container) Table() *Table {
	return c.table
}

// InputEntry returns entry i as read from the input image
func (c *Container) InputEntry(i int) Entry {
	return c.table.Entries[i]
}

// OutputEntry returns entry i of the output table for modification
func (c *Container) OutputEntry(i int) *Entry {
	return &c.outEntries[i]
}

// Input returns the input image
func (c *Container) Input() []byte {
	return c.in
}

// Output returns the output image
func (c *Container) Output() []byte {
	return c.out
}

// ResizeOutput truncates or zero-extends the output image to n bytes
func (c *Container) ResizeOutput(n int) {
	if n <= len(c.out) {
		c.out = c.out[:n:n]
		return
	}
	out := make([]byte, n)
	copy(out, c.out)
	c.out = out
}

// EntryData returns the physical bytes of input entry i: the Yaz0 buffer of
// a compressed entry, or the raw file of an uncompressed one.
func (c *Container) EntryData(i int) ([]byte, error) {
	entry := c.InputEntry(i)

	start := int64(entry.StartP)
	end := start + int64(entry.Size())
	if entry.IsCompressed() {
		end = int64(entry.EndP)
	}
	if end < start || end > int64(len(c.in)) {
		return nil, fmt.Errorf("%w: entry %d P[0x%08X-0x%08X] outside the %d byte image",
			ErrCorruptTable, i, start, end, len(c.in))
	}
	return c.in[start:end], nil
}

// SerializeTable writes every output entry into the output image at the
// table offset.
func (c *Container) SerializeTable() error {
	stream := bytesextra.NewReadWriteSeeker(c.out)
	if _, err := stream.Seek(int64(c.table.Offset), io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek to table: %v", ErrCorruptTable, err)
	}
	if err := binary.Write(stream, binary.BigEndian, c.outEntries); err != nil {
		return fmt.Errorf("%w: write table: %v", ErrCorruptTable, err)
	}

	common.LogDebug(common.DebugSerializedEntries, len(c.outEntries), c.table.Offset)
	return nil
}

// Save serializes the output table, repairs the boot checksum and writes
// the output image to path.
func (c *Container) Save(path string) error {
	if err := c.SerializeTable(); err != nil {
		return err
	}
	if c.Checksum != nil {
		if err := c.Checksum.Fix(c.out); err != nil {
			return common.FormatError(common.ErrFailedToFixChecksum, err)
		}
	}

	if err := os.WriteFile(path, c.out, 0644); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}
