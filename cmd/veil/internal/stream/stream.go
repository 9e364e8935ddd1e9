// Package stream implements the row export pipeline: it reads every row of
// the configured table from the row source and emits one key=value formatted
// line per row through the redacting logger. The loop is strictly sequential,
// one row in and one line out, with throughput bounded by the row source.
package stream

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/thalib/veil/cmd/veil/internal/constants"
	"github.com/thalib/veil/cmd/veil/internal/database"
	"github.com/thalib/veil/cmd/veil/internal/logging"
)

// Config holds export pipeline configuration.
type Config struct {
	// Table is the table streamed by the exporter.
	Table string

	// QueryTimeout bounds the export query and row iteration.
	QueryTimeout time.Duration
}

// Streamer streams table rows into the logging pipeline.
type Streamer struct {
	driver database.Driver
	logger *logging.Logger
	table  string

	timeout time.Duration
}

// New creates a Streamer over the given row source and logger.
func New(driver database.Driver, logger *logging.Logger, cfg Config) *Streamer {
	if cfg.Table == "" {
		cfg.Table = constants.DefaultExportTable
	}
	if cfg.QueryTimeout == 0 {
		cfg.QueryTimeout = constants.QueryTimeout
	}

	return &Streamer{
		driver:  driver,
		logger:  logger,
		table:   cfg.Table,
		timeout: cfg.QueryTimeout,
	}
}

// Run streams every row of the table, logging each as a key=value line at
// info level. Redaction happens in the logger's formatting stage, so the
// lines emitted here may still carry PII; nothing past the logger does.
// Returns the number of rows exported. Cancelling ctx stops the run between
// rows.
func (s *Streamer) Run(ctx context.Context) (int, error) {
	runID := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	log := s.logger.WithContext(logging.SetRunID(ctx, runID))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := "SELECT * FROM " + s.table

	start := time.Now()
	rows, err := s.driver.Query(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to query %s: %w", s.table, err)
	}
	defer rows.Close()
	s.logger.LogSlowQuery(query, time.Since(start))

	columns, err := rows.Columns()
	if err != nil {
		return 0, fmt.Errorf("failed to read columns: %w", err)
	}

	// Every column is scanned as a nullable string; the line format does
	// not distinguish value types.
	values := make([]sql.NullString, len(columns))
	scanArgs := make([]any, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	count := 0
	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return count, fmt.Errorf("failed to scan row: %w", err)
		}

		log.Info(renderRow(columns, values))
		count++
	}

	if err := rows.Err(); err != nil {
		return count, fmt.Errorf("error iterating rows: %w", err)
	}

	log.Infof("Exported %d rows from %s", count, s.table)
	return count, nil
}

// renderRow formats a scanned row as "col=value col=value " in column order,
// each segment terminated by the field separator.
func renderRow(columns []string, values []sql.NullString) string {
	var b strings.Builder
	for i, column := range columns {
		b.WriteString(column)
		b.WriteByte('=')
		if values[i].Valid {
			b.WriteString(values[i].String)
		} else {
			b.WriteString("NULL")
		}
		b.WriteString(constants.FieldSeparator)
	}
	return b.String()
}
