package metrics

import "time"

// NoopMetrics is a no-operation implementation of Recorder
// All methods are empty and do nothing, providing zero overhead when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordHandshakeStarted(provider string) {}
func (n *NoopMetrics) RecordHandshakeCompleted(provider string, success bool, duration time.Duration) {
}
func (n *NoopMetrics) RecordConnectionAdded(provider string)                  {}
func (n *NoopMetrics) RecordConnectionRemoved(provider string)                {}
func (n *NoopMetrics) RecordConnectionRefresh(provider string, success bool)  {}
func (n *NoopMetrics) RecordSignIn(provider, result string)                   {}
