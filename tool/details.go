package tool

import (
	"context"
	"net/http"
	"time"
)

// BusinessDetails is the normalized detail-fetch record. WebsiteContent is
// plain text: adapter output is sanitized and stripped of markup before it
// can reach a prompt.
type BusinessDetails struct {
	BusinessID     string `json:"business_id"`
	WebsiteContent string `json:"website_content"`
	ContentLength  int    `json:"content_length"`
}

// DetailsClient calls the external business details service.
type DetailsClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// DetailsOption configures a DetailsClient.
type DetailsOption func(*DetailsClient)

// WithDetailsHTTPClient sets the HTTP client used for requests.
func WithDetailsHTTPClient(client *http.Client) DetailsOption {
	return func(c *DetailsClient) {
		c.HTTPClient = client
	}
}

// NewDetailsClient creates a business details adapter for the given service URL.
func NewDetailsClient(baseURL string, opts ...DetailsOption) *DetailsClient {
	c := &DetailsClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type detailsRequest struct {
	BusinessIDs []string `json:"business_ids"`
}

type detailsResponse struct {
	Details []BusinessDetails `json:"details"`
}

// Fetch retrieves per-business website content for the given business IDs.
func (c *DetailsClient) Fetch(ctx context.Context, businessIDs []string) ([]BusinessDetails, error) {
	var resp detailsResponse
	if err := postJSON(ctx, c.HTTPClient, "business_details", c.BaseURL+"/details", detailsRequest{
		BusinessIDs: businessIDs,
	}, &resp); err != nil {
		return nil, err
	}

	for i := range resp.Details {
		text := ExtractText(resp.Details[i].WebsiteContent)
		resp.Details[i].WebsiteContent = text
		if resp.Details[i].ContentLength == 0 {
			resp.Details[i].ContentLength = len(text)
		}
	}
	return resp.Details, nil
}
