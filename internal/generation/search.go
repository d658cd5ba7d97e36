package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/townerr/flashmind/internal/model"
)

var _ model.SearchProvider = (*SearxSearch)(nil)

const maxSearchTitles = 5

// SearxSearch fetches ranked result titles from a SearXNG instance.
type SearxSearch struct {
	endpoint   string
	httpClient *http.Client
}

// NewSearxSearch creates a SearxSearch for the given instance URL.
func NewSearxSearch(endpoint string, httpClient *http.Client) *SearxSearch {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &SearxSearch{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

type searxResponse struct {
	Results []struct {
		Title string `json:"title"`
	} `json:"results"`
}

// Search returns up to maxSearchTitles result titles for the query.
func (s *SearxSearch) Search(ctx context.Context, query string) ([]string, error) {
	u := fmt.Sprintf("%s/search?q=%s&format=json", s.endpoint, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var parsed searxResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	titles := make([]string, 0, maxSearchTitles)
	for _, result := range parsed.Results {
		if result.Title == "" {
			continue
		}
		titles = append(titles, result.Title)
		if len(titles) == maxSearchTitles {
			break
		}
	}
	return titles, nil
}
