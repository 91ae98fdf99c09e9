package navigator

import (
	"context"

	"github.com/smallnest/yelpnavigator/graph"
	"github.com/smallnest/yelpnavigator/log"
	"github.com/smallnest/yelpnavigator/tool"
)

// Nodes bundles the tool clients behind the pipeline's execution nodes. When
// Retry is set, transient tool failures are retried with backoff and the
// retry count is recorded in state; when it is nil every tool gets a single
// attempt. DegradeOnError controls whether an exhausted node marks its
// category degraded and lets the turn continue, or fails the turn.
type Nodes struct {
	Search    *tool.SearchClient
	Details   *tool.DetailsClient
	Sentiment *tool.SentimentClient

	Retry          *graph.RetryConfig
	DegradeOnError bool
}

// SearchNode runs the business search for the parsed query.
func (n *Nodes) SearchNode(ctx context.Context, s State) (State, error) {
	var businesses []tool.Business
	retries, err := n.attempt(ctx, func(ctx context.Context) error {
		var callErr error
		businesses, callErr = n.Search.Search(ctx, s.ParsedQuery.FreeText, s.ParsedQuery.Location)
		return callErr
	})
	s.RecordRetries("search", retries)
	if err != nil {
		return n.failCategory(s, CategorySearch, err), nil
	}

	s.RawResults.Businesses = businesses
	s.PipelineData.SearchDone = true
	s.PipelineData.SearchEmpty = len(businesses) == 0
	s.PipelineData.BusinessIDs = s.PipelineData.BusinessIDs[:0]
	for _, b := range businesses {
		s.PipelineData.BusinessIDs = append(s.PipelineData.BusinessIDs, b.BusinessID)
	}
	if s.PipelineData.SearchEmpty {
		// An empty result is an answer, not a failure; the tag is
		// informational and does not fail the turn.
		s.LastError = ErrTagEmptyResult
	}
	return s, nil
}

// DetailsNode fetches website details for the current business IDs.
func (n *Nodes) DetailsNode(ctx context.Context, s State) (State, error) {
	var details []tool.BusinessDetails
	retries, err := n.attempt(ctx, func(ctx context.Context) error {
		var callErr error
		details, callErr = n.Details.Fetch(ctx, s.PipelineData.BusinessIDs)
		return callErr
	})
	s.RecordRetries("details", retries)
	if err != nil {
		return n.failCategory(s, CategoryDetails, err), nil
	}
	s.RawResults.Details = details
	s.PipelineData.HasDetails = true
	return s, nil
}

// SentimentNode fetches review sentiment for the current business IDs.
func (n *Nodes) SentimentNode(ctx context.Context, s State) (State, error) {
	var sentiments []tool.ReviewSentiment
	retries, err := n.attempt(ctx, func(ctx context.Context) error {
		var callErr error
		sentiments, callErr = n.Sentiment.Fetch(ctx, s.PipelineData.BusinessIDs)
		return callErr
	})
	s.RecordRetries("sentiment", retries)
	if err != nil {
		return n.failCategory(s, CategorySentiment, err), nil
	}
	s.RawResults.Sentiments = sentiments
	s.PipelineData.HasSentiment = true
	return s, nil
}

// attempt runs fn once, or under the retry policy when one is configured.
// It returns the number of retries beyond the first attempt.
func (n *Nodes) attempt(ctx context.Context, fn func(context.Context) error) (int, error) {
	if n.Retry == nil {
		return 0, fn(ctx)
	}
	attempts, err := n.Retry.Do(ctx, func() error { return fn(ctx) })
	return attempts - 1, err
}

// failCategory records a tool failure in state. Under graceful degradation
// the category is marked degraded so routing skips it; otherwise the error
// tag alone makes the supervisor fail the turn.
func (n *Nodes) failCategory(s State, category string, err error) State {
	tag := errorTag(err)
	if n.Retry != nil && tool.IsTransient(err) {
		tag = ErrTagExhaustedRetries
	}
	s.LastError = tag
	if n.DegradeOnError {
		s.PipelineData.MarkDegraded(category)
	}
	log.Warn("tool %s failed: %s: %v", category, tag, err)
	return s
}
