package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/poamaps/incident-etl/internal/domain"
)

// Timestamps are stored as Unix nanoseconds so before/after comparisons are
// exact integer comparisons, immune to string-format precision quirks.
const schema = `
CREATE TABLE IF NOT EXISTS incidents (
	external_id TEXT PRIMARY KEY,
	text        TEXT NOT NULL,
	created_at  INTEGER NOT NULL,
	type_code   TEXT NOT NULL,
	lat         TEXT NOT NULL,
	lon         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_incidents_location ON incidents (lat, lon);
CREATE INDEX IF NOT EXISTS idx_incidents_created_at ON incidents (created_at);

CREATE TABLE IF NOT EXISTS incident_metrics (
	external_id  TEXT PRIMARY KEY,
	created_at   INTEGER NOT NULL,
	type         INTEGER NOT NULL,
	has_address  INTEGER NOT NULL,
	is_localized INTEGER NOT NULL
);
`

// SQLite implements IncidentStore and MetricStore on a single SQLite file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema. Pass ":memory:" for an ephemeral database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// The driver serializes access itself, but a single connection keeps
	// in-memory databases from seeing separate empty copies.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) FindAll(ctx context.Context) ([]domain.Incident, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT external_id, text, created_at, type_code, lat, lon
		 FROM incidents ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query incidents: %w", err)
	}
	defer rows.Close()
	return scanIncidents(rows)
}

func (s *SQLite) ExistsByLocation(ctx context.Context, lat, lon string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM incidents WHERE lat = ? AND lon = ?`, lat, lon).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query incident by location: %w", err)
	}
	return n > 0, nil
}

func (s *SQLite) Upsert(ctx context.Context, inc domain.Incident) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO incidents (external_id, text, created_at, type_code, lat, lon)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(external_id) DO UPDATE SET
			text = excluded.text,
			created_at = excluded.created_at,
			type_code = excluded.type_code,
			lat = excluded.lat,
			lon = excluded.lon`,
		inc.ExternalID, inc.Text, inc.CreatedAt.UnixNano(), inc.TypeCode, inc.Lat, inc.Lon)
	if err != nil {
		return fmt.Errorf("upsert incident %s: %w", inc.ExternalID, err)
	}
	return nil
}

func (s *SQLite) DeleteByExternalID(ctx context.Context, externalID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM incidents WHERE external_id = ?`, externalID)
	if err != nil {
		return false, fmt.Errorf("delete incident %s: %w", externalID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete incident %s: %w", externalID, err)
	}
	return n > 0, nil
}

func (s *SQLite) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Incident, error) {
	rows, err := s.db.QueryContext(ctx,
		`DELETE FROM incidents WHERE created_at < ?
		 RETURNING external_id, text, created_at, type_code, lat, lon`,
		cutoff.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("delete stale incidents: %w", err)
	}
	defer rows.Close()
	return scanIncidents(rows)
}

func (s *SQLite) DeleteByTypeOlderThan(ctx context.Context, typeCode string, cutoff time.Time) ([]domain.Incident, error) {
	rows, err := s.db.QueryContext(ctx,
		`DELETE FROM incidents WHERE type_code = ? AND created_at < ?
		 RETURNING external_id, text, created_at, type_code, lat, lon`,
		typeCode, cutoff.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("delete %s incidents: %w", typeCode, err)
	}
	defer rows.Close()
	return scanIncidents(rows)
}

func (s *SQLite) MetricExists(ctx context.Context, externalID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM incident_metrics WHERE external_id = ?`, externalID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query metric %s: %w", externalID, err)
	}
	return n > 0, nil
}

func (s *SQLite) CreateMetric(ctx context.Context, m domain.IncidentMetric) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO incident_metrics (external_id, created_at, type, has_address, is_localized)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(external_id) DO NOTHING`,
		m.ExternalID, m.CreatedAt.UnixNano(), int(m.Type), m.HasAddress, m.IsLocalized)
	if err != nil {
		return fmt.Errorf("create metric %s: %w", m.ExternalID, err)
	}
	return nil
}

func (s *SQLite) ListMetrics(ctx context.Context) ([]domain.IncidentMetric, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT external_id, created_at, type, has_address, is_localized
		 FROM incident_metrics ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var metrics []domain.IncidentMetric
	for rows.Next() {
		var m domain.IncidentMetric
		var createdAt int64
		var typ int
		if err := rows.Scan(&m.ExternalID, &createdAt, &typ, &m.HasAddress, &m.IsLocalized); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		m.CreatedAt = time.Unix(0, createdAt).UTC()
		m.Type = domain.IncidentType(typ)
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

func scanIncidents(rows *sql.Rows) ([]domain.Incident, error) {
	var incidents []domain.Incident
	for rows.Next() {
		var inc domain.Incident
		var createdAt int64
		if err := rows.Scan(&inc.ExternalID, &inc.Text, &createdAt, &inc.TypeCode, &inc.Lat, &inc.Lon); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		inc.CreatedAt = time.Unix(0, createdAt).UTC()
		incidents = append(incidents, inc)
	}
	return incidents, rows.Err()
}
