package common

import (
	"path/filepath"
	"strings"
)

// DeriveOutputName builds the default output path for a ROM by inserting
// suffix before the extension and replacing the extension with ext.
// "roms/oot.z64" with "-comp" and ".z64" becomes "roms/oot-comp.z64".
func DeriveOutputName(input, suffix, ext string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + suffix + ext
}

// SiblingPath returns name placed in the directory of path
func SiblingPath(path, name string) string {
	return filepath.Join(filepath.Dir(path), name)
}
