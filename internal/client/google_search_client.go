package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pr-poehali-dev/fashion-photo-search/internal/config"
)

// GoogleSearchClient handles communication with the Google Custom Search API
type GoogleSearchClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	engineID   string
}

// SearchItem represents one item returned by image search
type SearchItem struct {
	Title string `json:"title"`
	Link  string `json:"link"`
	Image struct {
		ContextLink string `json:"contextLink"`
	} `json:"image"`
}

// searchAPIResponse represents the Custom Search API response body
type searchAPIResponse struct {
	Items []SearchItem `json:"items"`
}

// NewGoogleSearchClient creates a new Custom Search API client
func NewGoogleSearchClient(cfg *config.GoogleSearchConfig) *GoogleSearchClient {
	return &GoogleSearchClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		engineID: cfg.EngineID,
	}
}

// SearchImages runs an image search for the given query, returning up to num items
func (c *GoogleSearchClient) SearchImages(ctx context.Context, query string, num int) ([]SearchItem, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", query)
	params.Set("searchType", "image")
	params.Set("imgSize", "large")
	params.Set("num", strconv.Itoa(num))

	endpoint := c.baseURL + "/customsearch/v1?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	log.Printf("[GoogleSearch] → GET customsearch q=%q num=%d", query, num)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[GoogleSearch] ✗ request failed: %v", err)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("custom search API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var searchResp searchAPIResponse
	if err := json.Unmarshal(respBody, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	log.Printf("[GoogleSearch] ← %d items", len(searchResp.Items))

	return searchResp.Items, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *GoogleSearchClient) IsConfigured() bool {
	return c.apiKey != "" && c.engineID != ""
}
