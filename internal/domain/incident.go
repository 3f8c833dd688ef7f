package domain

import (
	"regexp"
	"time"
)

// Report is a single source-platform post as returned by the recent-search
// API. Reports are ephemeral: they only exist for the duration of a pipeline
// run and are never persisted directly.
type Report struct {
	ExternalID     string
	Text           string
	CreatedAt      time.Time
	ConversationID string
}

// Coordinates is a WGS-84 pair kept as decimal strings, exactly as returned
// by the geocoder. Incident deduplication compares these strings byte for
// byte, so they must never be reformatted.
type Coordinates struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Incident is a persisted, localized, classified record derived from a
// report. An incident only exists once both coordinates are known.
type Incident struct {
	ExternalID string    `json:"id"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
	TypeCode   string    `json:"type_code"`
	Lat        string    `json:"lat"`
	Lon        string    `json:"lon"`
}

// IncidentMetric is the per-report funnel observability record. At most one
// exists per ExternalID, created on first sight and never updated.
type IncidentMetric struct {
	ExternalID  string       `json:"id"`
	CreatedAt   time.Time    `json:"created_at"`
	Type        IncidentType `json:"type"`
	HasAddress  bool         `json:"has_address"`
	IsLocalized bool         `json:"is_localized"`
}

// urlTailRe strips an embedded shortlink and everything after it. Source
// posts carry a trailing media/self link that is useless for display.
var urlTailRe = regexp.MustCompile(`https?://(.*)`)

// NewIncident builds a persistable incident from a report and its resolved
// coordinates.
func NewIncident(r Report, c Coordinates) Incident {
	return Incident{
		ExternalID: r.ExternalID,
		Text:       urlTailRe.ReplaceAllString(r.Text, ""),
		CreatedAt:  r.CreatedAt,
		TypeCode:   EmojiCode(r.Text),
		Lat:        c.Lat,
		Lon:        c.Lon,
	}
}

// NewIncidentMetric builds the funnel record for a report.
func NewIncidentMetric(r Report, hasAddress, isLocalized bool) IncidentMetric {
	return IncidentMetric{
		ExternalID:  r.ExternalID,
		CreatedAt:   r.CreatedAt,
		Type:        MetricType(r.Text),
		HasAddress:  hasAddress,
		IsLocalized: isLocalized,
	}
}
