package storage

import (
	"context"

	"gmaps-scraper/models"
)

// Sink receives each search term's finished collection exactly once.
type Sink interface {
	Name() string
	Export(ctx context.Context, c *models.RecordCollection) error
}

// TableWriter persists a flattened table in one file format.
type TableWriter interface {
	// Extension is the file extension without the dot, e.g. "csv".
	Extension() string
	WriteTable(path string, t *Table) error
}
