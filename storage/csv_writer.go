package storage

import (
	"encoding/csv"
	"fmt"
	"os"
)

// CSVWriter writes a Table as a CSV file with a header row.
type CSVWriter struct{}

func NewCSVWriter() *CSVWriter {
	return &CSVWriter{}
}

func (c *CSVWriter) Extension() string { return "csv" }

// WriteTable creates (or truncates) the file at path.
func (c *CSVWriter) WriteTable(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, cell := range row {
			record[i] = cell.String()
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	return f.Close()
}
