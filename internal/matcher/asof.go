// Package matcher performs the as-of join between executions and the quote
// stream: each execution is annotated with the most recent quote for its
// symbol at or before the execution timestamp.
//
// The quote stream is far larger than the execution table, so the join is a
// single forward scan: executions are grouped and time-sorted per symbol up
// front, then quotes advance a per-symbol cursor. O(executions + quotes),
// one quote in memory per symbol, never a materialized quote table.
package matcher

import (
	"errors"
	"io"
	"log/slog"
	"sort"

	"sor_go/internal/domain"
	"sor_go/internal/infra"
)

// QuoteStream supplies quotes in non-decreasing timestamp order per symbol.
// Next returns io.EOF at end of stream.
type QuoteStream interface {
	Next() (domain.Quote, error)
}

// Result holds the outcome of a matching run. Every input execution ends up
// in exactly one of the two slices.
type Result struct {
	Annotated []domain.AnnotatedExecution
	Unmatched []domain.UnmatchedExecution
}

// Matcher joins executions against a quote stream.
type Matcher struct {
	metrics *infra.Metrics
}

// New creates a Matcher. metrics may be nil.
func New(metrics *infra.Metrics) *Matcher {
	if metrics == nil {
		metrics = &infra.Metrics{}
	}
	return &Matcher{metrics: metrics}
}

// symbolState is the per-symbol cursor of the merge join.
type symbolState struct {
	execs    []domain.Execution // sorted by timestamp
	next     int                // first execution not yet emitted
	last     domain.Quote       // most recent quote seen for the symbol
	hasLast  bool
	sawQuote bool
}

// Match consumes the quote stream once and returns every execution either
// annotated with its prevailing quote or recorded as unmatched. Ties at
// equal timestamp resolve to the quote: an execution is matched by a quote
// at the same instant, never by a later one.
func (m *Matcher) Match(executions []domain.Execution, quotes QuoteStream) (*Result, error) {
	states := make(map[string]*symbolState)
	for _, e := range executions {
		st := states[e.Symbol]
		if st == nil {
			st = &symbolState{}
			states[e.Symbol] = st
		}
		st.execs = append(st.execs, e)
	}
	// The upstream file is globally time-ordered, not per symbol; sort each
	// partition so the two-pointer walk is valid.
	for _, st := range states {
		sort.SliceStable(st.execs, func(i, j int) bool {
			return st.execs[i].Timestamp.Before(st.execs[j].Timestamp)
		})
	}

	res := &Result{}

	for {
		q, err := quotes.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		st := states[q.Symbol]
		if st == nil {
			// No executions for this symbol; nothing to advance.
			continue
		}
		if st.hasLast && q.Timestamp.Before(st.last.Timestamp) {
			// Out-of-order quote would corrupt the join; drop it.
			m.metrics.RecordRejected()
			slog.Debug("out-of-order quote dropped",
				slog.String("symbol", q.Symbol),
				slog.Time("timestamp", q.Timestamp))
			continue
		}

		st.sawQuote = true

		// Executions strictly before this quote can never match a better
		// (later, still not-after) quote than the one already held.
		for st.next < len(st.execs) && st.execs[st.next].Timestamp.Before(q.Timestamp) {
			m.emit(res, st, st.execs[st.next])
			st.next++
		}

		st.last = q
		st.hasLast = true
	}

	// End of stream: whatever is held is final for the remaining executions.
	// Iterate symbols in fixed order so output is deterministic.
	symbols := make([]string, 0, len(states))
	for sym := range states {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		st := states[sym]
		for ; st.next < len(st.execs); st.next++ {
			m.emit(res, st, st.execs[st.next])
		}
	}

	return res, nil
}

func (m *Matcher) emit(res *Result, st *symbolState, e domain.Execution) {
	if !st.hasLast {
		reason := "execution precedes all quotes for symbol"
		if !st.sawQuote {
			reason = "no quotes for symbol in stream"
		}
		m.metrics.RecordUnmatched()
		res.Unmatched = append(res.Unmatched, domain.UnmatchedExecution{
			Execution: e,
			Reason:    reason,
		})
		return
	}
	m.metrics.RecordAnnotated()
	res.Annotated = append(res.Annotated, domain.Annotate(e, st.last))
}
