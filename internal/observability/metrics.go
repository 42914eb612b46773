package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics counts generation outcomes per operation: summarize, chat, mcq,
// solver_chat. Fallbacks are successes served by a tier other than the
// first configured one.
type Metrics struct {
	mu         sync.Mutex
	operations map[string]*operationMetrics
}

type operationMetrics struct {
	requests      atomic.Int64
	failures      atomic.Int64
	fallbacks     atomic.Int64
	totalDuration atomic.Int64 // milliseconds
}

// NewMetrics creates an empty metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{operations: make(map[string]*operationMetrics)}
}

var globalMetrics = NewMetrics()

// GlobalMetrics returns the process-wide metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

func (m *Metrics) get(operation string) *operationMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	om, ok := m.operations[operation]
	if !ok {
		om = &operationMetrics{}
		m.operations[operation] = om
	}
	return om
}

// RecordRequest counts one generation request.
func (m *Metrics) RecordRequest(operation string) {
	m.get(operation).requests.Add(1)
}

// RecordFailure counts a request every tier failed on.
func (m *Metrics) RecordFailure(operation string) {
	m.get(operation).failures.Add(1)
}

// RecordFallback counts a request answered by a non-primary tier.
func (m *Metrics) RecordFallback(operation string) {
	m.get(operation).fallbacks.Add(1)
}

// RecordDuration adds one request's wall time to the operation total.
func (m *Metrics) RecordDuration(operation string, duration time.Duration) {
	m.get(operation).totalDuration.Add(duration.Milliseconds())
}

// OperationSnapshot is a point-in-time view of one operation's counters.
type OperationSnapshot struct {
	Requests          int64 `json:"requests"`
	Failures          int64 `json:"failures"`
	Fallbacks         int64 `json:"fallbacks"`
	AverageDurationMs int64 `json:"average_duration_ms"`
}

// Snapshot returns current counters for every recorded operation.
func (m *Metrics) Snapshot() map[string]OperationSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	output := make(map[string]OperationSnapshot, len(m.operations))
	for operation, om := range m.operations {
		snapshot := OperationSnapshot{
			Requests:  om.requests.Load(),
			Failures:  om.failures.Load(),
			Fallbacks: om.fallbacks.Load(),
		}
		if snapshot.Requests > 0 {
			snapshot.AverageDurationMs = om.totalDuration.Load() / snapshot.Requests
		}
		output[operation] = snapshot
	}
	return output
}

// Reset clears all counters.
func (m *Metrics) Reset() {
	m.mu.Lock()
	m.operations = make(map[string]*operationMetrics)
	m.mu.Unlock()
}
