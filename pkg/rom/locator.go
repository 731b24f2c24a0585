package rom

import (
	"bytes"
	"errors"
)

// rowSize is the size of one table entry, and the stride of the table scan.
const rowSize = 16

var (
	// TableSignature is the build string the linker places shortly before
	// the file table.
	TableSignature = []byte("zelda@srd")
	// TableTerminator is the end address of the boot segment, the second
	// word of the first table entry.
	TableTerminator = []byte{0x00, 0x00, 0x10, 0x60}

	ErrTableNotFound = errors.New("couldn't find file table")
)

// Locate returns the byte offset of the file table inside image.
//
// The table follows the build signature: the scan starts 32 bytes past the
// signature and walks forward one row at a time until a row holds the
// terminator. The table starts 4 bytes before the terminator.
func Locate(image []byte) (int, error) {
	sig := bytes.Index(image, TableSignature)
	if sig < 0 {
		return 0, ErrTableNotFound
	}

	for row := sig + 32; row < len(image); row += rowSize {
		// Terminators may straddle the row boundary.
		end := row + rowSize + len(TableTerminator) - 1
		if end > len(image) {
			end = len(image)
		}
		if i := bytes.Index(image[row:end], TableTerminator); i >= 0 {
			return row + i - 4, nil
		}
	}
	return 0, ErrTableNotFound
}
