package marketdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"sor_go/internal/domain"
	"sor_go/internal/infra"
)

// annotatedHeader is the column order of the annotated artifact handed from
// the annotate stage to the train stage.
var annotatedHeader = []string{
	"order_id", "timestamp", "symbol", "side", "quantity",
	"limit_price", "fill_price", "exchange",
	"quote_timestamp", "bid_price", "ask_price", "bid_size", "ask_size",
	"mid_price", "spread", "price_improvement",
}

// WriteAnnotated writes annotated executions as CSV.
func WriteAnnotated(path string, rows []domain.AnnotatedExecution) error {
	f, err := os.Create(path)
	if err != nil {
		return &domain.ConfigError{Field: "annotated_path", Err: err}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(annotatedHeader); err != nil {
		return err
	}

	for _, a := range rows {
		e, q := a.Execution, a.Quote
		record := []string{
			e.OrderID,
			e.Timestamp.Format(time.RFC3339Nano),
			e.Symbol,
			e.Side.String(),
			e.Quantity.String(),
			e.LimitPrice.String(),
			e.FillPrice.String(),
			e.Exchange,
			q.Timestamp.Format(time.RFC3339Nano),
			q.BidPrice.String(),
			q.AskPrice.String(),
			q.BidSize.String(),
			q.AskSize.String(),
			a.MidPrice.String(),
			a.Spread.String(),
			a.PriceImprovement.String(),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// ReadAnnotated loads the annotate stage's output back for training.
// Per-record failures are rejected and counted like any other input.
func ReadAnnotated(path string, metrics *infra.Metrics) ([]domain.AnnotatedExecution, error) {
	if metrics == nil {
		metrics = &infra.Metrics{}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.ConfigError{Field: "annotated_path", Err: err}
	}
	defer f.Close()

	r := newDelimitedReader(f)

	header, err := r.Read()
	if err != nil {
		return nil, &domain.ConfigError{Field: "annotated_path", Err: fmt.Errorf("reading header: %w", err)}
	}
	aliases := make(map[string]string, len(annotatedHeader))
	for _, name := range annotatedHeader {
		aliases[name] = name
	}
	cols, err := columnIndex(header, aliases, annotatedHeader)
	if err != nil {
		return nil, err
	}

	var out []domain.AnnotatedExecution
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			metrics.RecordRejected()
			continue
		}

		a, perr := parseAnnotated(record, cols)
		if perr != nil {
			metrics.RecordRejected()
			slog.Debug("rejected annotated row", slog.Any("error", perr))
			continue
		}
		out = append(out, a)
	}

	return out, nil
}

func parseAnnotated(record []string, cols map[string]int) (domain.AnnotatedExecution, error) {
	exec, err := parseExecution(record, cols)
	if err != nil {
		return domain.AnnotatedExecution{}, err
	}

	var q domain.Quote
	q.Symbol = exec.Symbol
	q.Timestamp, err = ParseTimestamp(field(record, cols, "quote_timestamp"))
	if err != nil {
		return domain.AnnotatedExecution{}, err
	}
	q.BidPrice, err = parsePositive("bid_price", field(record, cols, "bid_price"))
	if err != nil {
		return domain.AnnotatedExecution{}, err
	}
	q.AskPrice, err = parsePositive("ask_price", field(record, cols, "ask_price"))
	if err != nil {
		return domain.AnnotatedExecution{}, err
	}
	q.BidSize, err = parseSize("bid_size", field(record, cols, "bid_size"))
	if err != nil {
		return domain.AnnotatedExecution{}, err
	}
	q.AskSize, err = parseSize("ask_size", field(record, cols, "ask_size"))
	if err != nil {
		return domain.AnnotatedExecution{}, err
	}

	// Derived fields are recomputed rather than trusted from the file, so
	// the label definition lives in exactly one place.
	return domain.Annotate(exec, q), nil
}
