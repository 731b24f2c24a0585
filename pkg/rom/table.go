package rom

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hansbonini/z64tools/pkg/common"
)

const (
	// EntrySize is the size in bytes of one serialized Entry.
	EntrySize = 16

	// FirstContentEntry is the index of the first regular file. Entry 0 is
	// the boot segment, 1 and 2 hold metadata (2 is the table itself).
	FirstContentEntry = 3
	tableSelfEntry    = 2
)

var ErrCorruptTable = errors.New("corrupt file table")

// Entry is one row of the file table. Virtual addresses locate the file in
// the decompressed address space, physical addresses locate it in the image.
// EndP is zero when the file is stored uncompressed.
type Entry struct {
	StartV uint32 // Start virtual address
	EndV   uint32 // End virtual address
	StartP uint32 // Start physical address
	EndP   uint32 // End physical address, 0 if stored uncompressed
}

// Size returns the decompressed size of the file
func (e Entry) Size() uint32 {
	return e.EndV - e.StartV
}

// IsCompressed reports whether the file is stored Yaz0-compressed
func (e Entry) IsCompressed() bool {
	return e.EndP != 0
}

// IsDummy reports whether the entry is an unused slot
func (e Entry) IsDummy() bool {
	return e.StartV == e.EndV
}

// Table is the file table of an image
type Table struct {
	Offset  int
	Entries []Entry
}

// ReadTable locates the file table in image and reads its entries
func ReadTable(image []byte) (*Table, error) {
	offset, err := Locate(image)
	if err != nil {
		return nil, err
	}

	self, err := readEntry(image, offset+tableSelfEntry*EntrySize)
	if err != nil {
		return nil, err
	}
	if self.EndV < self.StartV {
		return nil, fmt.Errorf("%w: table entry ends before it starts", ErrCorruptTable)
	}

	count := int(self.Size() / EntrySize)
	if count <= FirstContentEntry {
		return nil, fmt.Errorf("%w: %d entries", ErrCorruptTable, count)
	}
	if offset+count*EntrySize > len(image) {
		return nil, fmt.Errorf("%w: %d entries at 0x%X run past the end of the image",
			ErrCorruptTable, count, offset)
	}

	table := &Table{
		Offset:  offset,
		Entries: make([]Entry, count),
	}
	for i := range table.Entries {
		entry, err := readEntry(image, offset+i*EntrySize)
		if err != nil {
			return nil, err
		}
		if entry.EndV < entry.StartV {
			return nil, fmt.Errorf("%w: entry %d ends before it starts", ErrCorruptTable, i)
		}
		common.LogDebug(common.DebugTableEntryRead, i, entry.StartV, entry.EndV, entry.StartP, entry.EndP)
		table.Entries[i] = entry
	}

	return table, nil
}

func readEntry(image []byte, pos int) (Entry, error) {
	var entry Entry
	if pos < 0 || pos+EntrySize > len(image) {
		return entry, fmt.Errorf("%w: entry at 0x%X outside the image", ErrCorruptTable, pos)
	}
	if err := binary.Read(bytes.NewReader(image[pos:pos+EntrySize]), binary.BigEndian, &entry); err != nil {
		return entry, fmt.Errorf("%w: %v", ErrCorruptTable, err)
	}
	return entry, nil
}
