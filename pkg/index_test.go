package pkg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hansbonini/z64tools/pkg/rom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressionIndex(t *testing.T) {
	index := NewCompressionIndex(6)
	assert.Equal(t, 6, index.Len())
	assert.Zero(t, index.Compressed())

	index.Set(2, true)
	index.Set(5, true)
	index.Set(5, false)
	index.Set(3, true)

	assert.Equal(t, []byte{0, 0, 1, 1, 0, 0}, index.Bytes())
	assert.Equal(t, 2, index.Compressed())
	assert.True(t, index.IsCompressed(3))
	assert.False(t, index.IsCompressed(-1))
	assert.False(t, index.IsCompressed(6))
}

func TestParseCompressionIndex(t *testing.T) {
	index := ParseCompressionIndex([]byte{0, 1, 0, 0xFF})
	assert.Equal(t, []byte{0, 1, 0, 1}, index.Bytes())
}

func TestCompressionIndex_Embed(t *testing.T) {
	index := ParseCompressionIndex([]byte{1, 0, 1})

	image := make([]byte, 8)
	require.NoError(t, index.Embed(image, 5))
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 1, 0, 1}, image)

	assert.ErrorIs(t, index.Embed(image, 6), ErrOutputOverflow)
	assert.ErrorIs(t, index.Embed(image, -1), ErrOutputOverflow)
}

func TestFlagFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.txt")
	index := ParseCompressionIndex([]byte{0, 0, 0, 1, 1, 0, 1})
	require.NoError(t, index.WriteFlagFile(path))

	text, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0001101", string(text))

	loaded, err := ReadFlagFile(path)
	require.NoError(t, err)
	assert.Equal(t, index.Bytes(), loaded.Bytes())
}

func TestReadFlagFile(t *testing.T) {
	testCases := []struct {
		name     string
		content  []byte
		expected []byte
	}{
		{"ascii", []byte("0110"), []byte{0, 1, 1, 0}},
		{"trailing newline", []byte("01\n"), []byte{0, 1}},
		{"crlf", []byte("10\r\n"), []byte{1, 0}},
		{"raw bytes", []byte{0x00, 0x01, 0x01}, []byte{0, 1, 1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "table.txt")
			require.NoError(t, os.WriteFile(path, tc.content, 0644))

			index, err := ReadFlagFile(path)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, index.Bytes())
		})
	}
}

func TestReadFlagFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadFlagFile(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, rom.ErrIOFailure)

	path := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("01x0"), 0644))
	_, err = ReadFlagFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid flag 0x78 at 2")
}

func TestExtractCompressionFlags(t *testing.T) {
	retail, _ := buildRetailROM(t)
	table, err := rom.ReadTable(retail)
	require.NoError(t, err)

	index := ExtractCompressionFlags(table)
	assert.Equal(t, []byte{0, 0, 0, 1, 0, 0, 1, 0}, index.Bytes())
}

func TestIndexFromImage(t *testing.T) {
	retail, _ := buildRetailROM(t)
	decompressed := decompressImage(t, retail, testOptions())

	for name, image := range map[string][]byte{"retail": retail, "decompressed": decompressed} {
		t.Run(name, func(t *testing.T) {
			table, err := rom.ReadTable(image)
			require.NoError(t, err)

			index, err := IndexFromImage(image, table)
			require.NoError(t, err)
			assert.Equal(t, []byte{0, 0, 0, 1, 0, 0, 1, 0}, index.Bytes())
		})
	}
}

func TestEmbeddedIndex_OutsideImage(t *testing.T) {
	retail, _ := buildRetailROM(t)
	putEntry(retail, testEntryCount-1, rom.Entry{StartP: uint32(len(retail) - 2)})

	table, err := rom.ReadTable(retail)
	require.NoError(t, err)
	_, _, err = EmbeddedIndex(retail, table)
	assert.ErrorIs(t, err, rom.ErrCorruptTable)
}
