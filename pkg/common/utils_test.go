// Package common provides tests for utility functions
package common

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveOutputName(t *testing.T) {
	testCases := []struct {
		input, suffix, ext, expected string
	}{
		{"oot.z64", "-comp", ".z64", "oot-comp.z64"},
		{"roms/oot.v64", "-decomp", ".z64", "roms/oot-decomp.z64"},
		{"roms/oot", "-decomp", ".z64", "roms/oot-decomp.z64"},
		{"a.b/oot.rom.n64", "-comp", ".z64", "a.b/oot.rom-comp.z64"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, DeriveOutputName(tc.input, tc.suffix, tc.ext))
		})
	}
}

func TestSafeIntToUint32(t *testing.T) {
	v, err := SafeIntToUint32(0x4000000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x4000000), v)

	_, err = SafeIntToUint32(-1)
	assert.Error(t, err)

	_, err = SafeInt64ToUint32(1 << 33)
	assert.Error(t, err)

	v, err = SafeInt64ToUint32(16)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), v)
}

func TestSiblingPath(t *testing.T) {
	assert.Equal(t, filepath.Join("roms", "table.txt"), SiblingPath(filepath.Join("roms", "oot.z64"), "table.txt"))
	assert.Equal(t, "table.txt", SiblingPath("oot.z64", "table.txt"))
}
