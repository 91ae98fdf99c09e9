package navigator

import "github.com/smallnest/yelpnavigator/tool"

// Error tags recorded in State.LastError. Tool-level failures are classified
// into these tags inside the tool nodes; they never escape the graph as Go
// errors.
const (
	ErrTagTransient        = "transient"
	ErrTagMalformed        = "malformed_response"
	ErrTagEmptyResult      = "empty_result"
	ErrTagGuardrailBlock   = "guardrail_block"
	ErrTagExhaustedRetries = "exhausted_retries"
)

// errorTag maps a tool client error to its state-level tag.
func errorTag(err error) string {
	switch {
	case tool.IsTransient(err):
		return ErrTagTransient
	case tool.IsMalformed(err):
		return ErrTagMalformed
	default:
		return ErrTagTransient
	}
}
