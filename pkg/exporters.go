// Package pkg provides the compression pipeline for Nintendo 64 ROM images.
// This file contains exporters that dump a file table to YAML or CSV.
package pkg

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/hansbonini/z64tools/pkg/common"
	"github.com/hansbonini/z64tools/pkg/rom"
	"gopkg.in/yaml.v3"
)

// TableRow is the exported form of one table entry
type TableRow struct {
	Index      int    `yaml:"index" csv:"index"`
	StartV     string `yaml:"start_v" csv:"start_v"`
	EndV       string `yaml:"end_v" csv:"end_v"`
	StartP     string `yaml:"start_p" csv:"start_p"`
	EndP       string `yaml:"end_p" csv:"end_p"`
	Size       uint32 `yaml:"size" csv:"size"`
	Compressed bool   `yaml:"compressed" csv:"compressed"`
	Dummy      bool   `yaml:"dummy" csv:"dummy"`
}

// TableYAML is the document written by ExportYAML
type TableYAML struct {
	Offset  string     `yaml:"offset"`
	Count   int        `yaml:"count"`
	Entries []TableRow `yaml:"entries"`
}

// TableFileExporter implements the TableExporter interface
type TableFileExporter struct{}

// NewTableExporter creates a new table exporter instance
func NewTableExporter() *TableFileExporter {
	return &TableFileExporter{}
}

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}

// tableRows converts every entry of table, the reserved ones included
func tableRows(table *rom.Table) []TableRow {
	rows := make([]TableRow, 0, len(table.Entries))
	for i, entry := range table.Entries {
		rows = append(rows, TableRow{
			Index:      i,
			StartV:     hex32(entry.StartV),
			EndV:       hex32(entry.EndV),
			StartP:     hex32(entry.StartP),
			EndP:       hex32(entry.EndP),
			Size:       entry.Size(),
			Compressed: entry.IsCompressed(),
			Dummy:      entry.IsDummy(),
		})
	}
	return rows
}

// ExportYAML writes table as a YAML document
func (e *TableFileExporter) ExportYAML(table *rom.Table, writer io.Writer) error {
	offset, err := common.SafeIntToUint32(table.Offset)
	if err != nil {
		return err
	}
	doc := TableYAML{
		Offset:  hex32(offset),
		Count:   len(table.Entries),
		Entries: tableRows(table),
	}

	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// ExportCSV writes table as CSV with a header row
func (e *TableFileExporter) ExportCSV(table *rom.Table, writer io.Writer) error {
	rows := tableRows(table)
	if err := gocsv.Marshal(&rows, writer); err != nil {
		return fmt.Errorf("failed to encode CSV: %w", err)
	}
	return nil
}

// ExportFile picks the format from the extension of outputFile: .csv
// selects CSV, anything else YAML.
func (e *TableFileExporter) ExportFile(table *rom.Table, outputFile string) error {
	out, err := os.Create(outputFile)
	if err != nil {
		return common.FormatError(common.ErrFailedToCreateOutputFile, err)
	}

	if strings.EqualFold(filepath.Ext(outputFile), ".csv") {
		err = e.ExportCSV(table, out)
	} else {
		err = e.ExportYAML(table, out)
	}
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return common.FormatError(common.ErrFailedToExportTable, err)
	}

	common.LogInfo(common.InfoTableExported, len(table.Entries), outputFile)
	return nil
}
