package matcher_test

import (
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sor_go/internal/domain"
	"sor_go/internal/matcher"
)

// streaming quote generator: no pre-built slice, so the benchmark measures
// the join itself, not slice traversal of a materialized stream.
type genStream struct {
	base time.Time
	n    int
	i    int
	bid  decimal.Decimal
	ask  decimal.Decimal
}

func (g *genStream) Next() (domain.Quote, error) {
	if g.i >= g.n {
		return domain.Quote{}, io.EOF
	}
	q := domain.Quote{
		Symbol:    "AAPL",
		Timestamp: g.base.Add(time.Duration(g.i) * time.Millisecond),
		BidPrice:  g.bid,
		AskPrice:  g.ask,
	}
	g.i++
	return q, nil
}

// BenchmarkMatch_QuoteHeavy models the production shape: the quote stream
// dwarfs the execution table. The join must stay linear in quotes.
func BenchmarkMatch_QuoteHeavy(b *testing.B) {
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	const numExecs = 100
	execs := make([]domain.Execution, 0, numExecs)
	for i := 0; i < numExecs; i++ {
		execs = append(execs, domain.Execution{
			Symbol:     "AAPL",
			Timestamp:  base.Add(time.Duration(i*1000) * time.Millisecond),
			Side:       domain.SideBuy,
			Quantity:   decimal.NewFromInt(100),
			LimitPrice: decimal.NewFromInt(150),
			FillPrice:  decimal.NewFromInt(149),
			Exchange:   "ARCA",
		})
	}

	bid := decimal.RequireFromString("149.9")
	ask := decimal.RequireFromString("150.1")

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		stream := &genStream{base: base, n: 100_000, bid: bid, ask: ask}
		res, err := matcher.New(nil).Match(execs, stream)
		if err != nil {
			b.Fatal(err)
		}
		if len(res.Annotated) != numExecs {
			b.Fatalf("expected %d annotated, got %d", numExecs, len(res.Annotated))
		}
	}
}
