package storage

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Sheet1"

// XLSXWriter writes a Table as a single-sheet Excel workbook. Numbers are
// stored as numeric cells and nulls as blank cells.
type XLSXWriter struct{}

func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{}
}

func (x *XLSXWriter) Extension() string { return "xlsx" }

func (x *XLSXWriter) WriteTable(path string, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("xlsx: write header: %w", err)
	}

	for r, row := range t.Rows {
		values := make([]interface{}, len(row))
		for i, cell := range row {
			if !cell.Null {
				values[i] = cell.Value
			}
		}
		addr, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("xlsx: row %d: %w", r+1, err)
		}
		if err := f.SetSheetRow(sheetName, addr, &values); err != nil {
			return fmt.Errorf("xlsx: write row %d: %w", r+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", path, err)
	}
	return nil
}
