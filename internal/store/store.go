// Package store persists incidents and their per-report funnel metrics.
package store

import (
	"context"
	"time"

	"github.com/poamaps/incident-etl/internal/domain"
)

// IncidentStore is the persistence surface the pipelines and the HTTP API
// depend on for incident records.
type IncidentStore interface {
	// FindAll returns every active incident, newest first.
	FindAll(ctx context.Context) ([]domain.Incident, error)

	// ExistsByLocation reports whether an active incident already sits at
	// exactly these coordinates. Comparison is on the stored decimal
	// strings, byte for byte.
	ExistsByLocation(ctx context.Context, lat, lon string) (bool, error)

	// Upsert inserts the incident, or replaces the existing row with the
	// same external ID. Re-processing a report is a no-op by construction.
	Upsert(ctx context.Context, inc domain.Incident) error

	// DeleteByExternalID removes one incident and reports whether a row
	// existed.
	DeleteByExternalID(ctx context.Context, externalID string) (bool, error)

	// DeleteOlderThan removes every incident created strictly before the
	// cutoff and returns the removed rows. An incident created exactly at
	// the cutoff survives.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Incident, error)

	// DeleteByTypeOlderThan is DeleteOlderThan restricted to one incident
	// type code.
	DeleteByTypeOlderThan(ctx context.Context, typeCode string, cutoff time.Time) ([]domain.Incident, error)
}

// MetricStore records the once-per-report funnel metrics.
type MetricStore interface {
	// MetricExists reports whether a funnel record was already written for
	// this report.
	MetricExists(ctx context.Context, externalID string) (bool, error)

	// CreateMetric writes the funnel record. The first write for an
	// external ID wins; later writes are silently dropped.
	CreateMetric(ctx context.Context, m domain.IncidentMetric) error

	// ListMetrics returns every funnel record, newest first.
	ListMetrics(ctx context.Context) ([]domain.IncidentMetric, error)
}
