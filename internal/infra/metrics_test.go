package infra

import (
	"sync"
	"testing"
)

func TestMetrics_Counters(t *testing.T) {
	m := &Metrics{}

	m.RecordExecution()
	m.RecordExecution()
	m.RecordQuote()
	m.RecordRejected()
	m.RecordUnmatched()
	m.RecordAnnotated()

	snap := m.Snapshot()
	if snap.ExecutionsRead != 2 {
		t.Errorf("expected 2 executions, got %d", snap.ExecutionsRead)
	}
	if snap.QuotesScanned != 1 {
		t.Errorf("expected 1 quote, got %d", snap.QuotesScanned)
	}
	if snap.RecordsRejected != 1 || snap.Unmatched != 1 || snap.Annotated != 1 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}

	m.Reset()
	if m.Snapshot().ExecutionsRead != 0 {
		t.Error("Reset should clear counters")
	}
}

func TestMetrics_ConcurrentAccess(t *testing.T) {
	m := &Metrics{}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.RecordQuote()
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().QuotesScanned; got != 8000 {
		t.Errorf("expected 8000, got %d", got)
	}
}
