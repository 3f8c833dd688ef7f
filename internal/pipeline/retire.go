package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poamaps/incident-etl/internal/domain"
	"github.com/poamaps/incident-etl/internal/observability"
	"github.com/poamaps/incident-etl/internal/store"
)

// Retirement removes incidents that are over: announced resolved by the
// source account, older than the stale window, or short-lived by nature.
type Retirement struct {
	replies   *ReplyResolver
	incidents store.IncidentStore
	publisher EventPublisher
	obs       *observability.Metrics
	logger    *slog.Logger
}

// NewRetirement wires the retirement pipeline.
func NewRetirement(
	replies *ReplyResolver,
	incidents store.IncidentStore,
	publisher EventPublisher,
	obs *observability.Metrics,
	logger *slog.Logger,
) *Retirement {
	return &Retirement{
		replies:   replies,
		incidents: incidents,
		publisher: publisher,
		obs:       obs,
		logger:    logger,
	}
}

// RemoveResolved deletes every stored incident whose conversation now
// contains a resolution reply, publishing a "resolved" event per removal.
// Returns the number of incidents removed.
func (p *Retirement) RemoveResolved(ctx context.Context) (int, error) {
	incidents, err := p.incidents.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list incidents: %w", err)
	}
	if len(incidents) == 0 {
		return 0, nil
	}

	ids := make([]string, len(incidents))
	for i, inc := range incidents {
		ids[i] = inc.ExternalID
	}
	resolved, err := p.replies.Resolved(ctx, ids)
	if err != nil {
		return 0, err
	}

	removed := 0
	for i, inc := range incidents {
		if !resolved[i] {
			continue
		}
		existed, err := p.incidents.DeleteByExternalID(ctx, inc.ExternalID)
		if err != nil {
			return removed, err
		}
		if !existed {
			// Lost a race with another remover; nothing to announce.
			continue
		}
		removed++
		p.obs.IncidentsRemoved.WithLabelValues("resolved").Inc()
		p.logger.Info("incident resolved", "id", inc.ExternalID)
		if err := p.publisher.IncidentResolved(ctx, inc); err != nil {
			return removed, fmt.Errorf("publish resolved event for %s: %w", inc.ExternalID, err)
		}
	}
	return removed, nil
}

// RemoveStale bulk-deletes incidents created strictly before cutoff. Stale
// removal is housekeeping, so no per-incident events are published.
func (p *Retirement) RemoveStale(ctx context.Context, cutoff time.Time) (int64, error) {
	removed, err := p.incidents.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	for _, inc := range removed {
		p.obs.IncidentsRemoved.WithLabelValues("stale").Inc()
		p.logger.Debug("incident stale", "id", inc.ExternalID, "created_at", inc.CreatedAt)
	}
	return int64(len(removed)), nil
}

// RemoveBridgeLifts bulk-deletes bridge-lift incidents created strictly
// before cutoff. Lifts block traffic for minutes, not hours, so they expire
// on a much shorter window than the general stale sweep.
func (p *Retirement) RemoveBridgeLifts(ctx context.Context, cutoff time.Time) (int64, error) {
	removed, err := p.incidents.DeleteByTypeOlderThan(ctx, domain.EmojiBridgeLift, cutoff)
	if err != nil {
		return 0, err
	}
	for _, inc := range removed {
		p.obs.IncidentsRemoved.WithLabelValues("bridge_lift").Inc()
		p.logger.Debug("bridge lift expired", "id", inc.ExternalID, "created_at", inc.CreatedAt)
	}
	return int64(len(removed)), nil
}
