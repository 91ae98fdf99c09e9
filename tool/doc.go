// Package tool provides thin adapters for the three external search services
// the navigator orchestrates: business search, business details, and review
// sentiment. Each adapter makes exactly one outbound HTTP call per invocation
// and normalizes the response into a common record shape.
//
// Failures are classified into the adapter error taxonomy: transient
// (network/timeout/5xx, retryable) and malformed_response (schema mismatch,
// not retryable). A zero-match search is a valid outcome, not an error.
//
// Adapters do not retry; retry policy belongs to the caller.
package tool
