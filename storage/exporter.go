package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gmaps-scraper/models"
	"gmaps-scraper/utils"
)

const filePrefix = "google_maps_data_"

var unsafeChars = strings.NewReplacer(" ", "_", "/", "_", `\`, "_")

// FileName derives the filesystem-safe base name for a search term.
func FileName(term string) string {
	return unsafeChars.Replace(filePrefix + term)
}

// Exporter writes every collection once per configured format into dir.
type Exporter struct {
	dir     string
	writers []TableWriter
	logger  *utils.Logger
}

func NewExporter(dir string, logger *utils.Logger, writers ...TableWriter) *Exporter {
	return &Exporter{dir: dir, writers: writers, logger: logger}
}

func (e *Exporter) Name() string { return "files" }

// Export flattens c and writes <dir>/<FileName(term)>.<ext> for each writer,
// creating dir if needed.
func (e *Exporter) Export(_ context.Context, c *models.RecordCollection) error {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return fmt.Errorf("export: create output dir: %w", err)
	}

	table := Flatten(c.Records())
	base := FileName(c.Term)

	var errs []error
	for _, w := range e.writers {
		path := filepath.Join(e.dir, base+"."+w.Extension())
		if err := w.WriteTable(path, table); err != nil {
			errs = append(errs, err)
			continue
		}
		e.logger.Info("[export] %d rows saved to %s", len(table.Rows), path)
	}
	return errors.Join(errs...)
}

// Fanout hands each collection to several sinks in order. A failing sink
// does not stop the ones after it.
type Fanout struct {
	sinks  []Sink
	logger *utils.Logger
}

func NewFanout(logger *utils.Logger, sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks, logger: logger}
}

func (f *Fanout) Name() string { return "fanout" }

func (f *Fanout) Export(ctx context.Context, c *models.RecordCollection) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Export(ctx, c); err != nil {
			f.logger.Error("[export] %s sink failed for %q: %v", s.Name(), c.Term, err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
