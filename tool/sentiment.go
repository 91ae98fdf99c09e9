package tool

import (
	"context"
	"net/http"
	"time"
)

// ReviewSentiment is the normalized review-sentiment record.
type ReviewSentiment struct {
	BusinessID        string `json:"business_id"`
	PositiveCount     int    `json:"positive_count"`
	NeutralCount      int    `json:"neutral_count"`
	NegativeCount     int    `json:"negative_count"`
	TopPositiveReview string `json:"top_positive_review"`
	TopNegativeReview string `json:"top_negative_review"`
}

// SentimentClient calls the external review sentiment service.
type SentimentClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// SentimentOption configures a SentimentClient.
type SentimentOption func(*SentimentClient)

// WithSentimentHTTPClient sets the HTTP client used for requests.
func WithSentimentHTTPClient(client *http.Client) SentimentOption {
	return func(c *SentimentClient) {
		c.HTTPClient = client
	}
}

// NewSentimentClient creates a review sentiment adapter for the given service URL.
func NewSentimentClient(baseURL string, opts ...SentimentOption) *SentimentClient {
	c := &SentimentClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sentimentRequest struct {
	BusinessIDs []string `json:"business_ids"`
}

type sentimentResponse struct {
	Sentiments []ReviewSentiment `json:"sentiments"`
}

// Fetch retrieves per-business review sentiment for the given business IDs.
func (c *SentimentClient) Fetch(ctx context.Context, businessIDs []string) ([]ReviewSentiment, error) {
	var resp sentimentResponse
	if err := postJSON(ctx, c.HTTPClient, "review_sentiment", c.BaseURL+"/sentiment", sentimentRequest{
		BusinessIDs: businessIDs,
	}, &resp); err != nil {
		return nil, err
	}
	return resp.Sentiments, nil
}
