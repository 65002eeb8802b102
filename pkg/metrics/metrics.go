// Package metrics defines the instrumentation interface the HTTP engine
// reports into. The prometheus subpackage provides the real implementation;
// NewNoop is used when metrics are disabled.
package metrics

import "time"

// HTTPMetrics records per-request and per-connection activity.
type HTTPMetrics interface {
	// RecordRequest observes one completed request.
	RecordRequest(method, path string, status int, duration time.Duration)

	// ConnectionOpened increments the active connection gauge.
	ConnectionOpened()

	// ConnectionClosed decrements the active connection gauge.
	ConnectionClosed()
}

type noopMetrics struct{}

// NewNoop returns an HTTPMetrics that discards every observation.
func NewNoop() HTTPMetrics {
	return noopMetrics{}
}

func (noopMetrics) RecordRequest(string, string, int, time.Duration) {}
func (noopMetrics) ConnectionOpened()                                {}
func (noopMetrics) ConnectionClosed()                                {}
