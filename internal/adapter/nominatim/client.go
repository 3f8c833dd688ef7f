// Package nominatim implements domain.Geocoder against the OpenStreetMap
// Nominatim search API, with request throttling and result caching.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/poamaps/incident-etl/internal/config"
	"github.com/poamaps/incident-etl/internal/domain"
	"github.com/poamaps/incident-etl/internal/observability"
)

const searchURL = "https://nominatim.openstreetmap.org/search"

// Client resolves street addresses within the configured city.
type Client struct {
	city       string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim client scoped to the deployment's city.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		city:       cfg.GeocodeCity,
		httpClient: &http.Client{Timeout: cfg.GeocodeTimeout},
		baseURL:    searchURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// Resolve looks up the coordinates of a candidate street address. An empty
// provider result is a soft miss, not an error.
func (c *Client) Resolve(ctx context.Context, street string) (domain.Coordinates, bool, error) {
	params := url.Values{
		"city":   {c.city},
		"limit":  {"1"},
		"format": {"json"},
		"street": {street},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("create request: %w", err)
	}
	// Identification is required by the provider's usage policy.
	req.Header.Set("User-Agent", "incident-etl (poamaps)")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.Coordinates{}, false, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return domain.Coordinates{}, false, fmt.Errorf("nominatim: status %d: %s", resp.StatusCode, body)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.Coordinates{}, false, fmt.Errorf("decode response: %w", err)
	}

	if len(places) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		c.logger.Debug("geocode miss", "street", street)
		return domain.Coordinates{}, false, nil
	}

	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	// Coordinates stay as the provider's decimal strings; dedup compares
	// them exactly.
	return domain.Coordinates{Lat: places[0].Lat, Lon: places[0].Lon}, true, nil
}

// place is the subset of a Nominatim search result the pipeline needs.
type place struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}
