// Package pipeline contains the ingestion and retirement flows that keep the
// incident store in sync with the source account.
package pipeline

import (
	"context"
	"time"

	"github.com/poamaps/incident-etl/internal/domain"
)

// IncidentSearcher finds new incident reports from the source account.
type IncidentSearcher interface {
	SearchIncidents(ctx context.Context, since time.Time) ([]domain.Report, error)
}

// ReplySearcher finds the source account's resolution replies within one
// report's conversation.
type ReplySearcher interface {
	SearchResolutionReplies(ctx context.Context, conversationID string) ([]domain.Report, error)
}

// EventPublisher emits incident lifecycle events to downstream consumers.
type EventPublisher interface {
	IncidentCreated(ctx context.Context, inc domain.Incident) error
	IncidentResolved(ctx context.Context, inc domain.Incident) error
}

// NopPublisher discards lifecycle events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) IncidentCreated(context.Context, domain.Incident) error  { return nil }
func (NopPublisher) IncidentResolved(context.Context, domain.Incident) error { return nil }
