package marketdata

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/shopspring/decimal"

	"sor_go/internal/domain"
	"sor_go/internal/infra"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func drainQuotes(t *testing.T, r *QuoteReader) []domain.Quote {
	t.Helper()
	var out []domain.Quote
	for {
		q, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		out = append(out, q)
	}
}

func TestQuoteReader_SIPHeader(t *testing.T) {
	// Column names exactly as the SIP dump provides them.
	path := writeFile(t, "quotes.csv",
		"ticker,ask_price,bid_price,sip_timestamp,bid_size,ask_size\n"+
			"AAPL,150.1,149.9,2024-01-15T10:00:00Z,300,500\n")

	r, err := OpenQuotes(path, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	quotes := drainQuotes(t, r)
	if len(quotes) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(quotes))
	}
	q := quotes[0]
	if q.Symbol != "AAPL" {
		t.Errorf("symbol: got %s", q.Symbol)
	}
	if !q.BidPrice.Equal(decimal.RequireFromString("149.9")) {
		t.Errorf("bid: got %s", q.BidPrice)
	}
	if !q.Mid().Equal(decimal.RequireFromString("150.0")) {
		t.Errorf("mid: got %s", q.Mid())
	}
	if !q.Spread().Equal(decimal.RequireFromString("0.2")) {
		t.Errorf("spread: got %s", q.Spread())
	}
}

func TestQuoteReader_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.csv.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(
		"symbol,timestamp,bid_price,ask_price,bid_size,ask_size\n" +
			"AAPL,2024-01-15T10:00:00Z,149.9,150.1,300,500\n" +
			"AAPL,2024-01-15T10:00:01Z,149.95,150.05,200,400\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := OpenQuotes(path, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if got := len(drainQuotes(t, r)); got != 2 {
		t.Errorf("expected 2 quotes from gzip stream, got %d", got)
	}
}

func TestQuoteReader_MissingSizesAreZero(t *testing.T) {
	path := writeFile(t, "quotes.csv",
		"symbol,timestamp,bid_price,ask_price,bid_size,ask_size\n"+
			"AAPL,2024-01-15T10:00:00Z,149.9,150.1,,\n")

	r, err := OpenQuotes(path, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	quotes := drainQuotes(t, r)
	if len(quotes) != 1 {
		t.Fatalf("thin quote must not be rejected, got %d quotes", len(quotes))
	}
	if !quotes[0].BidSize.IsZero() || !quotes[0].AskSize.IsZero() {
		t.Errorf("missing sizes should be zero: %+v", quotes[0])
	}
}

func TestQuoteReader_FilterAndHours(t *testing.T) {
	path := writeFile(t, "quotes.csv",
		"symbol,timestamp,bid_price,ask_price,bid_size,ask_size\n"+
			"AAPL,2024-01-15T10:00:00Z,149.9,150.1,1,1\n"+
			"TSLA,2024-01-15T10:00:00Z,200.0,200.2,1,1\n"+ // filtered symbol
			"AAPL,2024-01-15T08:00:00Z,149.0,149.2,1,1\n"+ // pre-market
			"AAPL,2024-01-15T10:00:05Z,0,150.1,1,1\n") // non-positive bid

	metrics := &infra.Metrics{}
	r, err := OpenQuotes(path, map[string]struct{}{"AAPL": {}}, metrics)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	quotes := drainQuotes(t, r)
	if len(quotes) != 1 {
		t.Fatalf("expected 1 surviving quote, got %d", len(quotes))
	}

	snap := metrics.Snapshot()
	if snap.QuotesFiltered != 2 {
		t.Errorf("expected 2 filtered, got %d", snap.QuotesFiltered)
	}
	if snap.RecordsRejected != 1 {
		t.Errorf("expected 1 rejected, got %d", snap.RecordsRejected)
	}
}

func TestQuoteReader_MissingColumnFatal(t *testing.T) {
	path := writeFile(t, "quotes.csv", "symbol,timestamp,bid_price\nAAPL,2024-01-15T10:00:00Z,1\n")

	_, err := OpenQuotes(path, nil, nil)
	if err == nil || !domain.IsFatal(err) {
		t.Error("missing ask_price column must be fatal")
	}
}

func TestAnnotated_RoundTrip(t *testing.T) {
	exec := domain.Execution{
		OrderID:    "ord-1",
		Symbol:     "AAPL",
		Timestamp:  mustTime(t, "2024-01-15T10:00:02Z"),
		Side:       domain.SideBuy,
		Quantity:   decimal.NewFromInt(100),
		LimitPrice: decimal.RequireFromString("150.0"),
		FillPrice:  decimal.RequireFromString("149.5"),
		Exchange:   "ARCA",
	}
	quote := domain.Quote{
		Symbol:    "AAPL",
		Timestamp: mustTime(t, "2024-01-15T10:00:00Z"),
		BidPrice:  decimal.RequireFromString("149.9"),
		AskPrice:  decimal.RequireFromString("150.1"),
		BidSize:   decimal.NewFromInt(300),
		AskSize:   decimal.NewFromInt(500),
	}

	path := filepath.Join(t.TempDir(), "annotated.csv")
	rows := []domain.AnnotatedExecution{domain.Annotate(exec, quote)}
	if err := WriteAnnotated(path, rows); err != nil {
		t.Fatalf("WriteAnnotated failed: %v", err)
	}

	got, err := ReadAnnotated(path, nil)
	if err != nil {
		t.Fatalf("ReadAnnotated failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}

	a := got[0]
	if a.Execution.OrderID != "ord-1" || a.Execution.Exchange != "ARCA" {
		t.Errorf("execution did not round-trip: %+v", a.Execution)
	}
	if !a.Quote.Timestamp.Equal(quote.Timestamp) {
		t.Errorf("quote timestamp did not round-trip: %v", a.Quote.Timestamp)
	}
	if !a.PriceImprovement.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("improvement did not round-trip: %s", a.PriceImprovement)
	}
	if !a.Spread.Equal(decimal.RequireFromString("0.2")) {
		t.Errorf("spread did not round-trip: %s", a.Spread)
	}
}
