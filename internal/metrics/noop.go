package metrics

import "time"

// NoopMetrics is a no-operation implementation of Recorder.
// All methods are empty, providing zero overhead when metrics are disabled.
type NoopMetrics struct{}

var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordWebhookEvent(event, result string)  {}
func (n *NoopMetrics) RecordSignatureVerification(result string) {}

func (n *NoopMetrics) RecordTokenStored(merchantID string)  {}
func (n *NoopMetrics) RecordTokenDeleted(merchantID string) {}
func (n *NoopMetrics) SetStoredTokensCount(total, valid int) {}

func (n *NoopMetrics) RecordTokenQuery(endpoint, result string) {}

func (n *NoopMetrics) RecordUpstreamCall(resource string, duration time.Duration, success bool) {}
