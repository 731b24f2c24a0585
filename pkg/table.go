package pkg

import (
	"github.com/hansbonini/z64tools/pkg/common"
	"github.com/hansbonini/z64tools/pkg/rom"
)

// readImageTable loads an image of any size and reads its file table
func readImageTable(inputFile string) ([]byte, *rom.Table, error) {
	image, err := rom.LoadImage(inputFile, 0)
	if err != nil {
		return nil, nil, common.FormatError(common.ErrFailedToLoadROM, err)
	}
	table, err := rom.ReadTable(image)
	if err != nil {
		return nil, nil, common.FormatError(common.ErrFailedToReadTable, err)
	}
	common.LogInfo(common.InfoTableFound, table.Offset, len(table.Entries))
	return image, table, nil
}

// ExportTable dumps the file table of inputFile to outputFile as YAML, or
// as CSV when outputFile ends in .csv
func (p *ROMProcessor) ExportTable(inputFile, outputFile string) error {
	_, table, err := readImageTable(inputFile)
	if err != nil {
		return err
	}
	return NewTableExporter().ExportFile(table, outputFile)
}

// ExportIndex writes the compression index of inputFile to flagFile. A
// decompressed image yields its embedded index, a compressed one the flags
// implied by its table.
func (p *ROMProcessor) ExportIndex(inputFile, flagFile string) error {
	image, table, err := readImageTable(inputFile)
	if err != nil {
		return err
	}

	index, err := IndexFromImage(image, table)
	if err != nil {
		return common.FormatError(common.ErrFailedToReadIndex, err)
	}
	if err := index.WriteFlagFile(flagFile); err != nil {
		return common.FormatError(common.ErrFailedToCreateOutputFile, err)
	}

	common.LogInfo(common.InfoFlagFileWritten, flagFile, index.Len())
	return nil
}
