package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glenmo/lorawan-water-tank-monitor/internal/telemetry"
)

//go:embed sql/insert-sample.sql
var insertSampleSQL string

//go:embed sql/list-samples.sql
var listSamplesSQL string

//go:embed sql/count-samples.sql
var countSamplesSQL string

// tsLayout is fixed width so that text comparison orders timestamps.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// StoredSample is a sample log row.
type StoredSample struct {
	DevEUI string
	telemetry.Sample
}

// ListFilter narrows ListSamples. Zero values match everything.
type ListFilter struct {
	DevEUI string
	Since  time.Time
	Limit  int
}

// SampleRepository is the append-only SQLite sample log. The server only
// writes to it; ListSamples and CountSamples serve tankmonctl export.
type SampleRepository interface {
	Record(ctx context.Context, devEUI string, s telemetry.Sample) error
	ListSamples(ctx context.Context, filter ListFilter) ([]StoredSample, error)
	CountSamples(ctx context.Context) (int, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) SampleRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Record(ctx context.Context, devEUI string, s telemetry.Sample) error {
	_, err := r.db.ExecContext(ctx, insertSampleSQL,
		strings.ToLower(devEUI),
		s.Timestamp.UTC().Format(tsLayout),
		s.Level,
		s.Voltage,
		s.RSSI,
		s.SNR,
		int64(s.FrameCount),
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

func (r *repositoryImpl) ListSamples(ctx context.Context, filter ListFilter) ([]StoredSample, error) {
	devEUI := strings.ToLower(filter.DevEUI)
	since := ""
	if !filter.Since.IsZero() {
		since = filter.Since.UTC().Format(tsLayout)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = -1 // no limit in SQLite
	}

	rows, err := r.db.QueryContext(ctx, listSamplesSQL, devEUI, devEUI, since, since, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close samples rows", "error", err)
		}
	}()

	var out []StoredSample
	for rows.Next() {
		var (
			rec StoredSample
			ts  string
		)
		if err := rows.Scan(&rec.DevEUI, &ts, &rec.Level, &rec.Voltage, &rec.RSSI, &rec.SNR, &rec.FrameCount); err != nil {
			return nil, err
		}
		rec.Timestamp, err = time.Parse(tsLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) CountSamples(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countSamplesSQL).Scan(&n)
	return n, err
}
