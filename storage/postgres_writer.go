package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"gmaps-scraper/models"
)

const placeColumns = 11

// PostgresWriter mirrors every exported collection into the places table,
// tagged with the run id and search term.
type PostgresWriter struct {
	db    *sql.DB
	runID string
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn, runID string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 5; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db, runID: runID}
	if err := pw.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS places (
			id              SERIAL PRIMARY KEY,
			run_id          UUID             NOT NULL,
			search_term     TEXT             NOT NULL,
			position        INTEGER          NOT NULL,
			name            TEXT,
			address         TEXT,
			website         TEXT,
			phone_number    TEXT,
			reviews_count   INTEGER,
			reviews_average DOUBLE PRECISION,
			latitude        DOUBLE PRECISION,
			longitude       DOUBLE PRECISION,
			created_at      TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
			UNIQUE (run_id, search_term, position)
		);

		CREATE INDEX IF NOT EXISTS idx_places_search_term ON places(search_term);
		CREATE INDEX IF NOT EXISTS idx_places_run_id      ON places(run_id);
	`)
	return err
}

func (pw *PostgresWriter) Name() string { return "postgres" }

// Export inserts the collection in one transaction.
func (pw *PostgresWriter) Export(ctx context.Context, c *models.RecordCollection) error {
	records := c.Records()
	if len(records) == 0 {
		return nil
	}

	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}

		args := make([]interface{}, 0, (end-i)*placeColumns)
		for pos := i; pos < end; pos++ {
			args = append(args, placeArgs(pw.runID, c.Term, pos+1, records[pos])...)
		}
		if _, err := tx.ExecContext(ctx, insertPlacesQuery(end-i), args...); err != nil {
			return fmt.Errorf("postgres: insert batch at %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

func insertPlacesQuery(rows int) string {
	valueStrings := make([]string, 0, rows)
	for r := 0; r < rows; r++ {
		placeholders := make([]string, placeColumns)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", r*placeColumns+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
	}

	return fmt.Sprintf(`
		INSERT INTO places (run_id, search_term, position, name, address, website, phone_number,
			reviews_count, reviews_average, latitude, longitude)
		VALUES %s
		ON CONFLICT (run_id, search_term, position) DO NOTHING
	`, strings.Join(valueStrings, ","))
}

func placeArgs(runID, term string, position int, r *models.Record) []interface{} {
	return []interface{}{
		runID, term, position,
		nullString(r.Name), nullString(r.Address), nullString(r.Website), nullString(r.PhoneNumber),
		nullInt(r.ReviewsCount), nullFloat64(r.ReviewsAverage),
		nullFloat64(r.Latitude), nullFloat64(r.Longitude),
	}
}

func nullString(o models.Optional[string]) sql.NullString {
	v, ok := o.Get()
	return sql.NullString{String: v, Valid: ok}
}

func nullInt(o models.Optional[int]) sql.NullInt64 {
	v, ok := o.Get()
	return sql.NullInt64{Int64: int64(v), Valid: ok}
}

func nullFloat64(o models.Optional[float64]) sql.NullFloat64 {
	v, ok := o.Get()
	return sql.NullFloat64{Float64: v, Valid: ok}
}
