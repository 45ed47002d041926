package core

// export.go renders a record window as an xlsx workbook for direct
// download. The workbook is streamed to the writer without touching disk.

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook writes columns and records as a single-sheet xlsx
// workbook to w. Cell values keep their normalized scalar types, so
// numbers stay numbers and nulls become empty cells.
func WriteWorkbook(w io.Writer, columns []string, records []Record) error {
	wb := excelize.NewFile()
	defer wb.Close()

	const sheet = "Sheet1"
	sw, err := wb.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("export: create stream writer: %w", err)
	}

	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	for i, rec := range records {
		row := make([]any, len(columns))
		for j, col := range columns {
			row[j] = rec[col]
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("export: write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("export: flush rows: %w", err)
	}

	if _, err := wb.WriteTo(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}
