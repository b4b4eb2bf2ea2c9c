package marketdata

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"

	"sor_go/internal/domain"
	"sor_go/internal/infra"
)

// executionAliases maps upstream column names (both the FIX-derived names
// the trading system emits and plain snake_case) to canonical fields.
var executionAliases = map[string]string{
	"orderid":              "order_id",
	"order_id":             "order_id",
	"ordertransacttime":    "timestamp",
	"order_time":           "timestamp",
	"timestamp":            "timestamp",
	"symbol":               "symbol",
	"side":                 "side",
	"orderqty":             "quantity",
	"order_qty":            "quantity",
	"quantity":             "quantity",
	"limitprice":           "limit_price",
	"limit_price":          "limit_price",
	"avgpx":                "fill_price",
	"execution_price":      "fill_price",
	"fill_price":           "fill_price",
	"lastmkt":              "exchange",
	"exchange":             "exchange",
	"executiontransacttime": "execution_time",
	"execution_time":        "execution_time",
}

var executionRequired = []string{
	"timestamp", "symbol", "side", "quantity", "limit_price", "fill_price", "exchange",
}

// ReadExecutions loads the execution table. The file is small relative to
// the quote stream, so it is fully materialized. Malformed rows are
// rejected and counted, never fatal; an unreadable file or a missing
// required column aborts the run. Rows outside market hours and rows for
// symbols excluded by the allow-list are dropped before matching.
func ReadExecutions(path string, filter map[string]struct{}, metrics *infra.Metrics) ([]domain.Execution, error) {
	if metrics == nil {
		metrics = &infra.Metrics{}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.ConfigError{Field: "executions_path", Err: err}
	}
	defer f.Close()

	r := newDelimitedReader(f)

	header, err := r.Read()
	if err != nil {
		return nil, &domain.ConfigError{Field: "executions_path", Err: fmt.Errorf("reading header: %w", err)}
	}
	cols, err := columnIndex(header, executionAliases, executionRequired)
	if err != nil {
		return nil, err
	}

	var out []domain.Execution
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Structurally broken row (wrong field count, bare quote):
			// reject the row, keep the batch going.
			metrics.RecordRejected()
			slog.Debug("rejected execution row", slog.Any("error", err))
			continue
		}

		exec, perr := parseExecution(record, cols)
		if perr != nil {
			metrics.RecordRejected()
			slog.Debug("rejected execution row", slog.Any("error", perr))
			continue
		}

		if !InMarketHours(exec.Timestamp) {
			metrics.RecordFiltered()
			continue
		}
		if filter != nil {
			if _, ok := filter[exec.Symbol]; !ok {
				metrics.RecordFiltered()
				continue
			}
		}

		metrics.RecordExecution()
		out = append(out, exec)
	}

	return out, nil
}

func parseExecution(record []string, cols map[string]int) (domain.Execution, error) {
	var exec domain.Execution

	exec.OrderID = field(record, cols, "order_id")

	exec.Symbol = field(record, cols, "symbol")
	if exec.Symbol == "" {
		return exec, &domain.RecordError{Field: "symbol", Reason: "empty"}
	}

	ts, err := ParseTimestamp(field(record, cols, "timestamp"))
	if err != nil {
		return exec, err
	}
	exec.Timestamp = ts

	side, err := domain.ParseSide(field(record, cols, "side"))
	if err != nil {
		return exec, err
	}
	exec.Side = side

	exec.Quantity, err = parsePositive("quantity", field(record, cols, "quantity"))
	if err != nil {
		return exec, err
	}
	exec.LimitPrice, err = parsePositive("limit_price", field(record, cols, "limit_price"))
	if err != nil {
		return exec, err
	}
	exec.FillPrice, err = parsePositive("fill_price", field(record, cols, "fill_price"))
	if err != nil {
		return exec, err
	}

	exec.Exchange = field(record, cols, "exchange")
	if exec.Exchange == "" {
		return exec, &domain.RecordError{Field: "exchange", Reason: "empty"}
	}

	return exec, nil
}

// parsePositive parses a strictly positive decimal. Non-positive values
// signal a malformed upstream record.
func parsePositive(name, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &domain.RecordError{Field: name, Reason: "not a number: " + raw}
	}
	if !d.IsPositive() {
		return decimal.Zero, &domain.RecordError{Field: name, Reason: "non-positive: " + raw}
	}
	return d, nil
}

// parseSize parses a non-negative size. Empty means the feed omitted it;
// thin-quote periods are expected, so that is zero, not an error.
func parseSize(name, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &domain.RecordError{Field: name, Reason: "not a number: " + raw}
	}
	if d.IsNegative() {
		return decimal.Zero, &domain.RecordError{Field: name, Reason: "negative: " + raw}
	}
	return d, nil
}

// newDelimitedReader sniffs the delimiter from the header line: tab wins
// when present, else comma.
func newDelimitedReader(f io.Reader) *csv.Reader {
	br := bufio.NewReader(f)
	peek, _ := br.Peek(4096)
	r := csv.NewReader(br)
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		peek = peek[:i]
	}
	if bytes.ContainsRune(peek, '\t') {
		r.Comma = '\t'
	}
	r.FieldsPerRecord = -1 // length checked per canonical column instead
	return r
}
