package navigator

// Decision is a routing decision emitted by the supervisor.
type Decision string

const (
	DecisionRunSearch    Decision = "run_search"
	DecisionRunDetails   Decision = "run_details"
	DecisionRunSentiment Decision = "run_sentiment"
	DecisionSummarize    Decision = "summarize"
	DecisionClarify      Decision = "clarify"
	DecisionFail         Decision = "fail"
)

// RouteOptions selects the supervisor's failure policy. With DegradeOnError
// set, a failed data category is skipped and the turn still reaches a
// summary; without it, any node failure ends the turn with a failure reply.
type RouteOptions struct {
	DegradeOnError bool
}

// Route is the single routing table for the pipeline. It inspects only
// pipeline data and turn flags, never raw tool payloads.
//
// Ordering rules: search always precedes details and sentiment; details are
// fetched for a detailed request, and for a reviews request only when the
// turn introduced a fresh query. A follow-up that merely raises the detail
// level to reviews goes straight to sentiment on the existing business IDs.
func Route(s State, opts RouteOptions) Decision {
	if s.LastError == ErrTagGuardrailBlock {
		return DecisionFail
	}
	if s.LastError != "" && s.LastError != ErrTagEmptyResult && !opts.DegradeOnError {
		return DecisionFail
	}
	if s.NeedsClarification || s.ParsedQuery == nil {
		return DecisionClarify
	}

	pd := &s.PipelineData
	if !pd.SearchDone {
		if pd.IsDegraded(CategorySearch) {
			return DecisionSummarize
		}
		return DecisionRunSearch
	}
	if pd.SearchEmpty {
		return DecisionSummarize
	}

	level := s.ParsedQuery.DetailLevel
	wantDetails := level == DetailDetailed || (level == DetailReviews && s.FreshQuery)
	if wantDetails && !pd.HasDetails && !pd.IsDegraded(CategoryDetails) {
		return DecisionRunDetails
	}
	if level == DetailReviews && !pd.HasSentiment && !pd.IsDegraded(CategorySentiment) {
		return DecisionRunSentiment
	}
	return DecisionSummarize
}
