package marketdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"sor_go/internal/domain"
	"sor_go/internal/infra"
)

var quoteAliases = map[string]string{
	"ticker":        "symbol",
	"symbol":        "symbol",
	"sip_timestamp": "timestamp",
	"timestamp":     "timestamp",
	"bid_price":     "bid_price",
	"ask_price":     "ask_price",
	"bid_size":      "bid_size",
	"ask_size":      "ask_size",
}

var quoteRequired = []string{"symbol", "timestamp", "bid_price", "ask_price"}

// QuoteReader streams the quote table one row at a time. The stream is
// assumed timestamp-ordered within each symbol; it is never materialized.
// Gzipped files are decompressed transparently. Rows failing the symbol
// allow-list or the market-hours window are skipped before the caller
// ever sees them, as are malformed rows (counted as rejected).
type QuoteReader struct {
	file    *os.File
	gz      *gzip.Reader
	csv     *csv.Reader
	cols    map[string]int
	filter  map[string]struct{} // nil = all symbols
	metrics *infra.Metrics
}

// OpenQuotes opens the quote file and validates its header.
func OpenQuotes(path string, filter map[string]struct{}, metrics *infra.Metrics) (*QuoteReader, error) {
	if metrics == nil {
		metrics = &infra.Metrics{}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.ConfigError{Field: "quotes_path", Err: err}
	}

	r := &QuoteReader{file: f, filter: filter, metrics: metrics}

	var src io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, &domain.ConfigError{Field: "quotes_path", Err: fmt.Errorf("opening gzip: %w", err)}
		}
		r.gz = gz
		src = gz
	}
	r.csv = newDelimitedReader(src)

	header, err := r.csv.Read()
	if err != nil {
		r.Close()
		return nil, &domain.ConfigError{Field: "quotes_path", Err: fmt.Errorf("reading header: %w", err)}
	}
	cols, err := columnIndex(header, quoteAliases, quoteRequired)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.cols = cols

	return r, nil
}

// Next returns the next usable quote. io.EOF signals end of stream.
func (r *QuoteReader) Next() (domain.Quote, error) {
	for {
		record, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			return domain.Quote{}, io.EOF
		}
		if err != nil {
			r.metrics.RecordRejected()
			slog.Debug("rejected quote row", slog.Any("error", err))
			continue
		}
		r.metrics.RecordQuote()

		q, perr := r.parseQuote(record)
		if perr != nil {
			r.metrics.RecordRejected()
			slog.Debug("rejected quote row", slog.Any("error", perr))
			continue
		}

		if r.filter != nil {
			if _, ok := r.filter[q.Symbol]; !ok {
				r.metrics.RecordFiltered()
				continue
			}
		}
		if !InMarketHours(q.Timestamp) {
			r.metrics.RecordFiltered()
			continue
		}

		return q, nil
	}
}

func (r *QuoteReader) parseQuote(record []string) (domain.Quote, error) {
	var q domain.Quote

	q.Symbol = field(record, r.cols, "symbol")
	if q.Symbol == "" {
		return q, &domain.RecordError{Field: "symbol", Reason: "empty"}
	}

	ts, err := ParseTimestamp(field(record, r.cols, "timestamp"))
	if err != nil {
		return q, err
	}
	q.Timestamp = ts

	q.BidPrice, err = parsePositive("bid_price", field(record, r.cols, "bid_price"))
	if err != nil {
		return q, err
	}
	q.AskPrice, err = parsePositive("ask_price", field(record, r.cols, "ask_price"))
	if err != nil {
		return q, err
	}
	q.BidSize, err = parseSize("bid_size", field(record, r.cols, "bid_size"))
	if err != nil {
		return q, err
	}
	q.AskSize, err = parseSize("ask_size", field(record, r.cols, "ask_size"))
	if err != nil {
		return q, err
	}

	return q, nil
}

// Close releases the underlying file handles.
func (r *QuoteReader) Close() error {
	var errs []error
	if r.gz != nil {
		errs = append(errs, r.gz.Close())
	}
	if r.file != nil {
		errs = append(errs, r.file.Close())
	}
	return errors.Join(errs...)
}
