package http

import (
	"strconv"

	"github.com/poamaps/incident-etl/internal/domain"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON renders incidents as a GeoJSON FeatureCollection for map
// consumers. Incidents whose stored coordinates fail to parse are skipped
// rather than failing the whole response.
func toGeoJSON(incidents []domain.Incident) FeatureCollection {
	features := make([]Feature, 0, len(incidents))

	for _, inc := range incidents {
		lon, lonErr := strconv.ParseFloat(inc.Lon, 64)
		lat, latErr := strconv.ParseFloat(inc.Lat, 64)
		if lonErr != nil || latErr != nil {
			continue
		}
		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{lon, lat},
			},
			Properties: map[string]any{
				"id":         inc.ExternalID,
				"text":       inc.Text,
				"type_code":  inc.TypeCode,
				"created_at": inc.CreatedAt,
			},
		})
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
