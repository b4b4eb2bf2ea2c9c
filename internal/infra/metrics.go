package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight pipeline observability without external
// dependencies. Uses atomic operations for thread-safety so symbol
// partitions can share one instance.
type Metrics struct {
	executionsRead  atomic.Uint64
	quotesScanned   atomic.Uint64
	quotesFiltered  atomic.Uint64 // dropped by symbol allow-list or market hours
	recordsRejected atomic.Uint64 // malformed rows skipped during ingestion
	unmatched       atomic.Uint64 // executions with no quote at or before t
	annotated       atomic.Uint64
}

// RecordExecution counts an accepted execution row.
func (m *Metrics) RecordExecution() {
	m.executionsRead.Add(1)
}

// RecordQuote counts a quote row scanned from the stream.
func (m *Metrics) RecordQuote() {
	m.quotesScanned.Add(1)
}

// RecordFiltered counts a quote dropped before matching.
func (m *Metrics) RecordFiltered() {
	m.quotesFiltered.Add(1)
}

// RecordRejected counts a malformed record.
func (m *Metrics) RecordRejected() {
	m.recordsRejected.Add(1)
}

// RecordUnmatched counts an execution dropped for lack of a quote.
func (m *Metrics) RecordUnmatched() {
	m.unmatched.Add(1)
}

// RecordAnnotated counts a successfully annotated execution.
func (m *Metrics) RecordAnnotated() {
	m.annotated.Add(1)
}

// MetricsSnapshot is a point-in-time view of all counters.
type MetricsSnapshot struct {
	ExecutionsRead  uint64
	QuotesScanned   uint64
	QuotesFiltered  uint64
	RecordsRejected uint64
	Unmatched       uint64
	Annotated       uint64
	Timestamp       time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		ExecutionsRead:  m.executionsRead.Load(),
		QuotesScanned:   m.quotesScanned.Load(),
		QuotesFiltered:  m.quotesFiltered.Load(),
		RecordsRejected: m.recordsRejected.Load(),
		Unmatched:       m.unmatched.Load(),
		Annotated:       m.annotated.Load(),
		Timestamp:       time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.executionsRead.Store(0)
	m.quotesScanned.Store(0)
	m.quotesFiltered.Store(0)
	m.recordsRejected.Store(0)
	m.unmatched.Store(0)
	m.annotated.Store(0)
}
