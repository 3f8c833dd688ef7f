// Package twitter wraps the source platform's recent-search API, the only
// outbound surface the pipelines use to find reports and resolution replies.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/poamaps/incident-etl/internal/config"
	"github.com/poamaps/incident-etl/internal/domain"
)

const recentSearchURL = "https://api.twitter.com/2/tweets/search/recent"

// searchGroups are the boolean query expressions, one per incident family,
// ORed together to form the report search. These are search-API expressions,
// not the classification taxonomy: they cast a wider net (inflections,
// multi-word operators) and the classifier decides the final type.
var searchGroups = []string{
	"((árvore (caída OR queda)) OR (galho (caído OR queda)))",
	"(acidente OR colisão OR atropelamento OR capotado OR capotamento OR (queda moto) OR (queda motociclista))",
	"(derramado OR derramamento)",
	"(pane)",
	"(bloqueio OR obras OR obra)",
	"((fios (caídos OR queda OR suspensos OR sobre)) OR (fiação (caída OR suspensa OR sobre)))",
	"(içamento (acontece OR iniciado OR ocorre OR andamento OR (em operação)))",
	"((cavalo solto) OR (cavalos (soltos OR (na via))))",
}

// resolutionWords mark a reply as announcing the end of an incident.
var resolutionWords = []string{
	"encerrada", "encerrado", "finalizada", "finalizado",
	"normalizada", "normalizado", "liberada", "liberado", "removido",
}

// Client calls the recent-search endpoint with bearer-token auth.
type Client struct {
	token      string
	account    string
	maxResults int
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a search client for the configured source account.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		token:      cfg.TwitterBearerToken,
		account:    cfg.SourceAccount,
		maxResults: cfg.SearchMaxResults,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    recentSearchURL,
		logger:     logger,
	}
}

// SearchIncidents returns the account's incident reports posted at or after
// since, excluding the account's own replies.
func (c *Client) SearchIncidents(ctx context.Context, since time.Time) ([]domain.Report, error) {
	params := url.Values{
		"query":        {c.incidentQuery()},
		"max_results":  {strconv.Itoa(c.maxResults)},
		"tweet.fields": {"created_at"},
		"start_time":   {since.UTC().Format(time.RFC3339)},
	}
	return c.search(ctx, params)
}

// SearchResolutionReplies returns the account's replies inside the given
// conversation that contain a resolution keyword. An empty result means the
// incident is still open.
func (c *Client) SearchResolutionReplies(ctx context.Context, conversationID string) ([]domain.Report, error) {
	params := url.Values{
		"query":        {c.resolutionQuery(conversationID)},
		"max_results":  {strconv.Itoa(c.maxResults)},
		"tweet.fields": {"conversation_id"},
	}
	return c.search(ctx, params)
}

func (c *Client) incidentQuery() string {
	return fmt.Sprintf("(%s) -is:reply from:%s", strings.Join(searchGroups, " OR "), c.account)
}

func (c *Client) resolutionQuery(conversationID string) string {
	return fmt.Sprintf("(%s) is:reply from:%s to:%s conversation_id:%s",
		strings.Join(resolutionWords, " OR "), c.account, c.account, conversationID)
}

func (c *Client) search(ctx context.Context, params url.Values) ([]domain.Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", "incident-etl")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recent search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("recent search: status %d: %s", resp.StatusCode, body)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	reports := make([]domain.Report, 0, len(sr.Data))
	for _, tw := range sr.Data {
		reports = append(reports, domain.Report{
			ExternalID:     tw.ID,
			Text:           tw.Text,
			CreatedAt:      tw.CreatedAt,
			ConversationID: tw.ConversationID,
		})
	}
	return reports, nil
}

// Recent-search API response types.

type searchResponse struct {
	Data []tweet `json:"data"`
	Meta struct {
		ResultCount int `json:"result_count"`
	} `json:"meta"`
}

type tweet struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
	ConversationID string    `json:"conversation_id"`
}
