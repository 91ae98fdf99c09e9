package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Business is the normalized record shape shared by all adapters.
type Business struct {
	BusinessID string   `json:"business_id"`
	Name       string   `json:"name"`
	Rating     float64  `json:"rating"`
	Categories []string `json:"categories"`
	Location   string   `json:"location"`
	Website    string   `json:"website"`
}

// SearchClient calls the external business search service.
type SearchClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// SearchOption configures a SearchClient.
type SearchOption func(*SearchClient)

// WithSearchHTTPClient sets the HTTP client used for requests.
func WithSearchHTTPClient(client *http.Client) SearchOption {
	return func(c *SearchClient) {
		c.HTTPClient = client
	}
}

// NewSearchClient creates a business search adapter for the given service URL.
func NewSearchClient(baseURL string, opts ...SearchOption) *SearchClient {
	c := &SearchClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchRequest struct {
	Query    string `json:"query"`
	Location string `json:"location"`
}

type searchResponse struct {
	Businesses []Business `json:"businesses"`
}

// Search looks up businesses matching the free-text query in the given
// location. A zero-match outcome is not an error: it returns an empty slice.
func (c *SearchClient) Search(ctx context.Context, query, location string) ([]Business, error) {
	var resp searchResponse
	if err := postJSON(ctx, c.HTTPClient, "business_search", c.BaseURL+"/search", searchRequest{
		Query:    query,
		Location: location,
	}, &resp); err != nil {
		return nil, err
	}
	return resp.Businesses, nil
}

// postJSON performs one JSON POST and decodes the response, classifying
// failures into the adapter error taxonomy.
func postJSON(ctx context.Context, client *http.Client, service, url string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return malformedErr(service, fmt.Errorf("failed to encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return malformedErr(service, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		// Network failures and client timeouts are both transient.
		return transientErr(service, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
		return transientErr(service, fmt.Errorf("service returned status %d", resp.StatusCode))
	default:
		return malformedErr(service, fmt.Errorf("service returned status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return malformedErr(service, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
