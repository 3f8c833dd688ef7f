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

// RunStats summarizes one ingestion run's funnel.
type RunStats struct {
	Found          int
	WithReply      int
	WithoutAddress int
	WithAddress    int
	Added          int
}

// Ingestion turns fresh source reports into localized incidents.
type Ingestion struct {
	searcher  IncidentSearcher
	replies   *ReplyResolver
	geocoder  domain.Geocoder
	incidents store.IncidentStore
	metrics   store.MetricStore
	publisher EventPublisher
	obs       *observability.Metrics
	logger    *slog.Logger
}

// NewIngestion wires the ingestion pipeline.
func NewIngestion(
	searcher IncidentSearcher,
	replies *ReplyResolver,
	geocoder domain.Geocoder,
	incidents store.IncidentStore,
	metrics store.MetricStore,
	publisher EventPublisher,
	obs *observability.Metrics,
	logger *slog.Logger,
) *Ingestion {
	return &Ingestion{
		searcher:  searcher,
		replies:   replies,
		geocoder:  geocoder,
		incidents: incidents,
		metrics:   metrics,
		publisher: publisher,
		obs:       obs,
		logger:    logger,
	}
}

// Run fetches reports posted at or after since and processes each one through
// extraction, geocoding, deduplication, and persistence. Reports whose
// conversation already carries a resolution reply are dropped up front: the
// incident was over before we saw it.
//
// Run is idempotent. Re-processing a report upserts the same row and leaves
// its first-written funnel metric untouched.
func (p *Ingestion) Run(ctx context.Context, since time.Time) (RunStats, error) {
	var stats RunStats

	reports, err := p.searcher.SearchIncidents(ctx, since)
	if err != nil {
		return stats, fmt.Errorf("search incidents: %w", err)
	}
	stats.Found = len(reports)
	p.obs.ReportsFound.Add(float64(len(reports)))
	if len(reports) == 0 {
		return stats, nil
	}

	ids := make([]string, len(reports))
	for i, r := range reports {
		// A root post's conversation ID is its own ID.
		ids[i] = r.ExternalID
	}
	resolved, err := p.replies.Resolved(ctx, ids)
	if err != nil {
		return stats, err
	}

	for i, report := range reports {
		if resolved[i] {
			stats.WithReply++
			p.obs.ReportsResolved.Inc()
			p.logger.Debug("report already resolved", "id", report.ExternalID)
			continue
		}
		if err := p.process(ctx, report, &stats); err != nil {
			return stats, err
		}
	}

	p.logger.Info("ingestion run complete",
		"found", stats.Found,
		"with_reply", stats.WithReply,
		"without_address", stats.WithoutAddress,
		"with_address", stats.WithAddress,
		"added", stats.Added,
	)
	return stats, nil
}

func (p *Ingestion) process(ctx context.Context, report domain.Report, stats *RunStats) error {
	addresses := domain.ExtractAddresses(report.Text)
	if len(addresses) == 0 {
		stats.WithoutAddress++
		p.obs.ReportsWithoutAddress.Inc()
		return p.recordMetric(ctx, report, false, false)
	}

	stats.WithAddress++
	p.obs.ReportsWithAddress.Inc()

	coords, located, err := p.locate(ctx, addresses)
	if err != nil {
		return err
	}
	if !located {
		return p.recordMetric(ctx, report, true, false)
	}

	dup, err := p.incidents.ExistsByLocation(ctx, coords.Lat, coords.Lon)
	if err != nil {
		return fmt.Errorf("check duplicate for %s: %w", report.ExternalID, err)
	}
	if dup {
		p.logger.Debug("duplicate location", "id", report.ExternalID, "lat", coords.Lat, "lon", coords.Lon)
		return p.recordMetric(ctx, report, true, true)
	}

	inc := domain.NewIncident(report, coords)
	if err := p.incidents.Upsert(ctx, inc); err != nil {
		return err
	}
	stats.Added++
	p.obs.IncidentsAdded.Inc()

	if err := p.publisher.IncidentCreated(ctx, inc); err != nil {
		return fmt.Errorf("publish created event for %s: %w", inc.ExternalID, err)
	}
	return p.recordMetric(ctx, report, true, true)
}

// locate geocodes each candidate address in order and returns the first hit.
func (p *Ingestion) locate(ctx context.Context, addresses []string) (domain.Coordinates, bool, error) {
	for _, addr := range addresses {
		coords, found, err := p.geocoder.Resolve(ctx, addr)
		if err != nil {
			return domain.Coordinates{}, false, fmt.Errorf("geocode %q: %w", addr, err)
		}
		if found {
			return coords, true, nil
		}
	}
	return domain.Coordinates{}, false, nil
}

// recordMetric writes the funnel record once per report; the first write
// wins, so a retried run cannot rewrite history.
func (p *Ingestion) recordMetric(ctx context.Context, report domain.Report, hasAddress, isLocalized bool) error {
	exists, err := p.metrics.MetricExists(ctx, report.ExternalID)
	if err != nil {
		return fmt.Errorf("check metric for %s: %w", report.ExternalID, err)
	}
	if exists {
		return nil
	}
	if err := p.metrics.CreateMetric(ctx, domain.NewIncidentMetric(report, hasAddress, isLocalized)); err != nil {
		return err
	}
	return nil
}
