package metrics

import "time"

// Recorder abstracts metric recording so handlers and services never depend
// on Prometheus directly. Init returns the Prometheus-backed implementation
// or a Noop one when metrics are disabled.
type Recorder interface {
	// Webhook pipeline
	RecordWebhookEvent(event, result string)
	RecordSignatureVerification(result string)

	// Token store
	RecordTokenStored(merchantID string)
	RecordTokenDeleted(merchantID string)
	SetStoredTokensCount(total, valid int)

	// Query surface
	RecordTokenQuery(endpoint, result string)

	// Upstream Salla API
	RecordUpstreamCall(resource string, duration time.Duration, success bool)
}

// Result label values shared across metrics.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
)
