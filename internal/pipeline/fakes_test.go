package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/poamaps/incident-etl/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory IncidentStore + MetricStore for pipeline tests.
type memStore struct {
	mu        sync.Mutex
	incidents map[string]domain.Incident
	metrics   map[string]domain.IncidentMetric
}

func newMemStore() *memStore {
	return &memStore{
		incidents: make(map[string]domain.Incident),
		metrics:   make(map[string]domain.IncidentMetric),
	}
}

func (s *memStore) FindAll(context.Context) ([]domain.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]domain.Incident, 0, len(s.incidents))
	for _, inc := range s.incidents {
		all = append(all, inc)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all, nil
}

func (s *memStore) ExistsByLocation(_ context.Context, lat, lon string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inc := range s.incidents {
		if inc.Lat == lat && inc.Lon == lon {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) Upsert(_ context.Context, inc domain.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incidents[inc.ExternalID] = inc
	return nil
}

func (s *memStore) DeleteByExternalID(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.incidents[id]
	delete(s.incidents, id)
	return ok, nil
}

func (s *memStore) DeleteOlderThan(_ context.Context, cutoff time.Time) ([]domain.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []domain.Incident
	for id, inc := range s.incidents {
		if inc.CreatedAt.Before(cutoff) {
			removed = append(removed, inc)
			delete(s.incidents, id)
		}
	}
	return removed, nil
}

func (s *memStore) DeleteByTypeOlderThan(_ context.Context, typeCode string, cutoff time.Time) ([]domain.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []domain.Incident
	for id, inc := range s.incidents {
		if inc.TypeCode == typeCode && inc.CreatedAt.Before(cutoff) {
			removed = append(removed, inc)
			delete(s.incidents, id)
		}
	}
	return removed, nil
}

func (s *memStore) MetricExists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.metrics[id]
	return ok, nil
}

func (s *memStore) CreateMetric(_ context.Context, m domain.IncidentMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.metrics[m.ExternalID]; !ok {
		s.metrics[m.ExternalID] = m
	}
	return nil
}

func (s *memStore) ListMetrics(context.Context) ([]domain.IncidentMetric, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]domain.IncidentMetric, 0, len(s.metrics))
	for _, m := range s.metrics {
		all = append(all, m)
	}
	return all, nil
}

func (s *memStore) incidentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.incidents)
}

func (s *memStore) metric(id string) (domain.IncidentMetric, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.metrics[id]
	return m, ok
}

// fakeSearch serves canned incident reports and per-conversation resolution
// replies.
type fakeSearch struct {
	mu      sync.Mutex
	reports []domain.Report
	replies map[string][]domain.Report
	err     error
	queried []string
}

func (f *fakeSearch) SearchIncidents(context.Context, time.Time) ([]domain.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.reports, nil
}

func (f *fakeSearch) SearchResolutionReplies(_ context.Context, conversationID string) ([]domain.Report, error) {
	f.mu.Lock()
	f.queried = append(f.queried, conversationID)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.replies[conversationID], nil
}

// stubGeocoder resolves only the streets it was seeded with.
type stubGeocoder struct {
	mu      sync.Mutex
	known   map[string]domain.Coordinates
	err     error
	streets []string
}

func (g *stubGeocoder) Resolve(_ context.Context, street string) (domain.Coordinates, bool, error) {
	g.mu.Lock()
	g.streets = append(g.streets, street)
	g.mu.Unlock()
	if g.err != nil {
		return domain.Coordinates{}, false, g.err
	}
	coords, ok := g.known[street]
	return coords, ok, nil
}

// recordPublisher captures lifecycle events by external ID.
type recordPublisher struct {
	mu       sync.Mutex
	created  []string
	resolved []string
}

func (p *recordPublisher) IncidentCreated(_ context.Context, inc domain.Incident) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, inc.ExternalID)
	return nil
}

func (p *recordPublisher) IncidentResolved(_ context.Context, inc domain.Incident) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resolved = append(p.resolved, inc.ExternalID)
	return nil
}
