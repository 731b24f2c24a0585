package common

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Global variable to control debug output
var VerboseMode bool = false

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	logrus.SetLevel(logrus.InfoLevel)
}

// SetVerboseMode enables or disables verbose/debug output
func SetVerboseMode(verbose bool) {
	VerboseMode = verbose
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// Error messages
const (
	ErrFailedToLoadROM          = "failed to load ROM"
	ErrFailedToReadTable        = "failed to read file table"
	ErrFailedToCompressEntry    = "failed to compress entry"
	ErrFailedToDecompressEntry  = "failed to decompress entry"
	ErrFailedToWriteIndex       = "failed to write compression index"
	ErrFailedToReadIndex        = "failed to read compression index"
	ErrFailedToSaveROM          = "failed to save ROM"
	ErrFailedToFixChecksum      = "failed to fix boot checksum"
	ErrFailedToCreateOutputFile = "failed to create output file"
	ErrFailedToExportTable      = "failed to export file table"
	ErrMissingIndexHint         = "compression index missing, decompress the ROM with this tool first"
)

// Info messages
const (
	InfoLoadedROM           = "Loaded ROM %s (%s)"
	InfoTableFound          = "File table found at 0x%08X with %d entries"
	InfoUsingWorkers        = "Using %d workers"
	InfoCompressingEntries  = "Compressing %d files"
	InfoDecompressedEntries = "Decompressed %d files (%d compressed, %d raw, %d dummy)"
	InfoCompressedEntries   = "Packed %d files (%d compressed, %d raw, %d dummy)"
	InfoIndexWritten        = "Compression index written at 0x%08X"
	InfoIndexFromFlagFile   = "Using compression flags from %s"
	InfoImageSizes          = "Payload size: %s -> %s"
	InfoROMSaved            = "ROM saved: %s"
	InfoFlagFileWritten     = "Compression flags written to %s (%d entries)"
	InfoTableExported       = "Exported %d table entries to %s"
)

// Debug messages
const (
	DebugEntryCompressed   = "Entry %d: V[0x%08X-0x%08X] compressed %d -> %d bytes"
	DebugEntryDecoded      = "Entry %d: P[0x%08X-0x%08X] decoded to V[0x%08X-0x%08X]"
	DebugEntryCopied       = "Entry %d: copied %d raw bytes to 0x%08X"
	DebugEntryDummy        = "Entry %d: dummy entry skipped"
	DebugEntryPlaced       = "Entry %d: P[0x%08X-0x%08X]"
	DebugProgress          = "~%d jobs remaining"
	DebugByteSwapped       = "Input is byte-swapped (.v64), normalizing to big-endian"
	DebugChecksumBootcode  = "Boot code identified as CIC-%d"
	DebugChecksumUpdated   = "Boot checksum updated: CRC1=0x%08X CRC2=0x%08X"
	DebugTableEntryRead    = "Table entry %d: V[0x%08X-0x%08X] P[0x%08X-0x%08X]"
	DebugIndexLoaded       = "Compression index loaded from 0x%08X (%d entries)"
	DebugPoolJobFailed     = "Job %s failed: %v"
	DebugSerializedEntries = "Serialized %d table entries at 0x%08X"
)

// Warning messages
const (
	WarnUnknownBootcode    = "Unknown boot code (CRC32 0x%08X), boot checksum left untouched"
	WarnFlagFileIgnored    = "Embedded compression index found, ignoring flag file %s"
	WarnIndexLengthDiffers = "Flag file has %d entries, table has %d"
)

// LogInfo logs an informational message
func LogInfo(message string, args ...interface{}) {
	if len(args) > 0 {
		logrus.Infof(message, args...)
	} else {
		logrus.Info(message)
	}
}

// LogWarn logs a warning message
func LogWarn(message string, args ...interface{}) {
	if len(args) > 0 {
		logrus.Warnf(message, args...)
	} else {
		logrus.Warn(message)
	}
}

// LogError logs an error message
func LogError(message string, args ...interface{}) {
	if len(args) > 0 {
		logrus.Errorf(message, args...)
	} else {
		logrus.Error(message)
	}
}

// LogDebug logs a debug message (only if VerboseMode is enabled)
func LogDebug(message string, args ...interface{}) {
	if !VerboseMode {
		return
	}
	if len(args) > 0 {
		logrus.Debugf(message, args...)
	} else {
		logrus.Debug(message)
	}
}

// FormatError creates a formatted error with additional context
func FormatError(baseMessage string, details interface{}) error {
	if err, ok := details.(error); ok {
		return fmt.Errorf("%s: %w", baseMessage, err)
	}
	return fmt.Errorf("%s: %v", baseMessage, details)
}

// FormatErrorString creates a formatted error with string details
func FormatErrorString(baseMessage, details string, args ...interface{}) error {
	if len(args) > 0 {
		return fmt.Errorf("%s: "+details, append([]interface{}{baseMessage}, args...)...)
	}
	return fmt.Errorf("%s: %s", baseMessage, details)
}
