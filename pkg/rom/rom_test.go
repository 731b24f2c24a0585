package rom

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSignatureOffset = 0x100

// buildImage returns an image of size bytes holding the build signature at
// testSignatureOffset and a file table made of the boot entry, two metadata
// entries, content and a trailing reserved entry.
func buildImage(t *testing.T, size int, content ...Entry) ([]byte, int) {
	t.Helper()

	image := make([]byte, size)
	copy(image[testSignatureOffset:], TableSignature)
	offset := testSignatureOffset + 0x30

	count := FirstContentEntry + len(content) + 1
	entries := make([]Entry, 0, count)
	entries = append(entries,
		Entry{StartV: 0, EndV: 0x1060, StartP: 0, EndP: 0},
		Entry{StartV: 0x1060, EndV: 0x1070, StartP: 0x1060, EndP: 0},
		Entry{
			StartV: uint32(offset),
			EndV:   uint32(offset + count*EntrySize),
			StartP: uint32(offset),
		},
	)
	entries = append(entries, content...)
	entries = append(entries, Entry{})

	for i, entry := range entries {
		writeEntry(image, offset+i*EntrySize, entry)
	}
	return image, offset
}

func writeEntry(image []byte, pos int, entry Entry) {
	binary.BigEndian.PutUint32(image[pos:], entry.StartV)
	binary.BigEndian.PutUint32(image[pos+4:], entry.EndV)
	binary.BigEndian.PutUint32(image[pos+8:], entry.StartP)
	binary.BigEndian.PutUint32(image[pos+12:], entry.EndP)
}

func TestLocate(t *testing.T) {
	image, offset := buildImage(t, 0x2000)

	found, err := Locate(image)
	require.NoError(t, err)
	assert.Equal(t, offset, found)
}

func TestLocate_UnalignedTable(t *testing.T) {
	image := make([]byte, 0x400)
	copy(image[0x10:], TableSignature)
	copy(image[0x10+32+7:], TableTerminator)

	found, err := Locate(image)
	require.NoError(t, err)
	assert.Equal(t, 0x10+32+7-4, found)
}

func TestLocate_IgnoresTerminatorBeforeScanStart(t *testing.T) {
	image, offset := buildImage(t, 0x2000)
	copy(image[testSignatureOffset+12:], TableTerminator)

	found, err := Locate(image)
	require.NoError(t, err)
	assert.Equal(t, offset, found)
}

func TestLocate_NotFound(t *testing.T) {
	testCases := []struct {
		name  string
		image []byte
	}{
		{"empty", nil},
		{"no signature", append(make([]byte, 64), TableTerminator...)},
		{"no terminator", append(append(make([]byte, 16), TableSignature...), make([]byte, 256)...)},
		{"terminator too close", append(append([]byte{}, TableSignature...), TableTerminator...)},
		{"partial signature", []byte("zelda@sr")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Locate(tc.image)
			assert.ErrorIs(t, err, ErrTableNotFound)
		})
	}
}

func TestReadTable(t *testing.T) {
	content := []Entry{
		{StartV: 0x2000, EndV: 0x2100, StartP: 0x2000, EndP: 0x2080},
		{StartV: 0x2100, EndV: 0x2100},
		{StartV: 0x2100, EndV: 0x2180, StartP: 0x2080},
	}
	image, offset := buildImage(t, 0x4000, content...)

	table, err := ReadTable(image)
	require.NoError(t, err)
	assert.Equal(t, offset, table.Offset)
	require.Len(t, table.Entries, FirstContentEntry+len(content)+1)

	assert.Equal(t, uint32(0x1060), table.Entries[0].EndV)
	assert.Equal(t, content, table.Entries[FirstContentEntry:FirstContentEntry+len(content)])

	assert.True(t, table.Entries[3].IsCompressed())
	assert.Equal(t, uint32(0x100), table.Entries[3].Size())
	assert.True(t, table.Entries[4].IsDummy())
	assert.False(t, table.Entries[5].IsCompressed())
}

func TestReadTable_Corrupt(t *testing.T) {
	image, offset := buildImage(t, 0x1000, Entry{StartV: 0x2000, EndV: 0x2100})

	t.Run("table past end", func(t *testing.T) {
		broken := append([]byte{}, image...)
		writeEntry(broken, offset+2*EntrySize, Entry{StartV: 0, EndV: 0x10000})
		_, err := ReadTable(broken)
		assert.ErrorIs(t, err, ErrCorruptTable)
	})

	t.Run("too few entries", func(t *testing.T) {
		broken := append([]byte{}, image...)
		writeEntry(broken, offset+2*EntrySize, Entry{StartV: 0, EndV: 3 * EntrySize})
		_, err := ReadTable(broken)
		assert.ErrorIs(t, err, ErrCorruptTable)
	})

	t.Run("entry ends before start", func(t *testing.T) {
		broken := append([]byte{}, image...)
		writeEntry(broken, offset+3*EntrySize, Entry{StartV: 0x2100, EndV: 0x2000})
		_, err := ReadTable(broken)
		assert.ErrorIs(t, err, ErrCorruptTable)
	})
}

func TestContainer(t *testing.T) {
	image, offset := buildImage(t, 0x3000,
		Entry{StartV: 0x2000, EndV: 0x2100, StartP: 0x2000, EndP: 0x2040},
		Entry{StartV: 0x2100, EndV: 0x2180, StartP: 0x2040},
	)
	c, err := NewContainer(image, 0x4000)
	require.NoError(t, err)

	assert.Equal(t, 6, c.EntryCount())
	assert.Equal(t, offset, c.TableOffset())
	assert.Len(t, c.Output(), 0x4000)
	assert.Equal(t, image, c.Output()[:len(image)])

	c.Output()[0] = 0xFF
	assert.Zero(t, c.Input()[0], "output must not alias the input")

	out := c.OutputEntry(3)
	out.StartP = 0x1234
	assert.Equal(t, uint32(0x2000), c.InputEntry(3).StartP, "output table must not alias the input table")

	data, err := c.EntryData(3)
	require.NoError(t, err)
	assert.Len(t, data, 0x40)

	data, err = c.EntryData(4)
	require.NoError(t, err)
	assert.Len(t, data, 0x80)
}

func TestContainer_EntryDataOutOfRange(t *testing.T) {
	image, _ := buildImage(t, 0x3000,
		Entry{StartV: 0x2000, EndV: 0x2100, StartP: 0x2F00, EndP: 0x3100},
		Entry{StartV: 0x2100, EndV: 0x4000, StartP: 0x2000},
	)
	c, err := NewContainer(image, len(image))
	require.NoError(t, err)

	_, err = c.EntryData(3)
	assert.ErrorIs(t, err, ErrCorruptTable)
	_, err = c.EntryData(4)
	assert.ErrorIs(t, err, ErrCorruptTable)
}

func TestContainer_ResizeOutput(t *testing.T) {
	image, _ := buildImage(t, 0x2000)
	for i := 0x1800; i < len(image); i++ {
		image[i] = 0xEE
	}
	c, err := NewContainer(image, len(image))
	require.NoError(t, err)

	c.ResizeOutput(0x1000)
	assert.Len(t, c.Output(), 0x1000)

	c.ResizeOutput(0x2000)
	assert.Len(t, c.Output(), 0x2000)
	assert.Equal(t, make([]byte, 0x1000), c.Output()[0x1000:], "grown bytes must be zero")
	assert.Equal(t, byte(0xEE), c.Input()[0x1800])
}

func TestContainer_SerializeTable(t *testing.T) {
	image, offset := buildImage(t, 0x3000, Entry{StartV: 0x2000, EndV: 0x2100, StartP: 0x2000})
	c, err := NewContainer(image, len(image))
	require.NoError(t, err)

	*c.OutputEntry(3) = Entry{StartV: 0x2000, EndV: 0x2100, StartP: 0x1800, EndP: 0x1850}
	c.OutputEntry(4).StartP = 0xCAFE
	require.NoError(t, c.SerializeTable())

	out := c.Output()
	pos := offset + 3*EntrySize
	assert.Equal(t, []byte{
		0x00, 0x00, 0x20, 0x00,
		0x00, 0x00, 0x21, 0x00,
		0x00, 0x00, 0x18, 0x00,
		0x00, 0x00, 0x18, 0x50,
	}, out[pos:pos+EntrySize])
	assert.Equal(t, uint32(0xCAFE), binary.BigEndian.Uint32(out[pos+EntrySize+8:]))

	reread, err := ReadTable(out)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1850), reread.Entries[3].EndP)
}

type recordingChecksum struct {
	called bool
}

func (r *recordingChecksum) Fix(image []byte) error {
	r.called = true
	image[crc1Offset] = 0xAB
	return nil
}

func TestContainer_Save(t *testing.T) {
	image, _ := buildImage(t, 0x2000, Entry{StartV: 0x1800, EndV: 0x1900, StartP: 0x1800})
	c, err := NewContainer(image, len(image))
	require.NoError(t, err)

	checksum := &recordingChecksum{}
	c.Checksum = checksum
	c.OutputEntry(3).StartP = 0x1900

	path := filepath.Join(t.TempDir(), "out.z64")
	require.NoError(t, c.Save(path))
	assert.True(t, checksum.called)

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte(0xAB), saved[crc1Offset])

	table, err := ReadTable(saved)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1900), table.Entries[3].StartP)

	err = c.Save(filepath.Join(t.TempDir(), "missing", "out.z64"))
	assert.ErrorIs(t, err, ErrIOFailure)
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()

	image, _ := buildImage(t, 0x2000)
	image[0] = 0x80
	image[1] = 0x37
	path := filepath.Join(dir, "rom.z64")
	require.NoError(t, os.WriteFile(path, image, 0644))

	loaded, err := LoadImage(path, len(image))
	require.NoError(t, err)
	assert.Equal(t, image, loaded)

	_, err = LoadImage(path, len(image)*2)
	assert.ErrorIs(t, err, ErrInputSizeMismatch)

	_, err = LoadImage(filepath.Join(dir, "missing.z64"), len(image))
	assert.ErrorIs(t, err, ErrIOFailure)
}

func TestLoadImage_ByteSwapped(t *testing.T) {
	image, _ := buildImage(t, 0x2000)
	image[0] = 0x80
	image[1] = 0x37

	swapped := make([]byte, len(image))
	for i := 0; i < len(image); i += 2 {
		swapped[i], swapped[i+1] = image[i+1], image[i]
	}
	path := filepath.Join(t.TempDir(), "rom.v64")
	require.NoError(t, os.WriteFile(path, swapped, 0644))

	loaded, err := LoadImage(path, len(image))
	require.NoError(t, err)
	assert.Equal(t, image, loaded)

	_, err = ReadTable(loaded)
	assert.NoError(t, err)
}

func TestNormalizeByteOrder(t *testing.T) {
	data := []byte{0x37, 0x80, 0x40, 0x12}
	assert.True(t, NormalizeByteOrder(data))
	assert.Equal(t, []byte{0x80, 0x37, 0x12, 0x40}, data)

	assert.False(t, NormalizeByteOrder(data))
	assert.False(t, NormalizeByteOrder(nil))
}
