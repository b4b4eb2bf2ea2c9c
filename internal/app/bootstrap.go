package app

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"sor_go/internal/domain"
	"sor_go/internal/feature"
	"sor_go/internal/infra"
	"sor_go/internal/marketdata"
	"sor_go/internal/matcher"
	"sor_go/internal/model"
	"sor_go/internal/router"
)

// Bootstrap orchestrates the application startup sequence and runs the
// pipeline stages.
type Bootstrap struct {
	Config  *infra.Config
	Metrics *infra.Metrics
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration and wires the logger. An empty path runs
// entirely on defaults plus environment overrides.
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("Bootstrapping smart order router...")

	cfg := infra.DefaultConfig()
	if configPath != "" {
		loaded, err := infra.LoadConfig(configPath)
		if err != nil {
			return err // Let main handle the error
		}
		cfg = loaded
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	b.Metrics = &infra.Metrics{}
	return nil
}

// RunAnnotate is the offline feature-engineering stage: stream quotes past
// the execution table, write the annotated artifact, and report per-venue
// improvement statistics.
func (b *Bootstrap) RunAnnotate() error {
	cfg := b.Config
	filter := cfg.SymbolFilter()
	if filter != nil {
		slog.Info("symbol filtering enabled", slog.Int("symbols", len(filter)))
	}

	execs, err := marketdata.ReadExecutions(cfg.Data.ExecutionsPath, filter, b.Metrics)
	if err != nil {
		return err
	}
	slog.Info("executions loaded",
		slog.String("path", cfg.Data.ExecutionsPath),
		slog.Int("count", len(execs)))

	quotes, err := marketdata.OpenQuotes(cfg.Data.QuotesPath, filter, b.Metrics)
	if err != nil {
		return err
	}
	defer quotes.Close()

	res, err := matcher.New(b.Metrics).Match(execs, quotes)
	if err != nil {
		return fmt.Errorf("matching failed: %w", err)
	}

	for _, u := range res.Unmatched {
		slog.Debug("unmatched execution",
			slog.String("order_id", u.Execution.OrderID),
			slog.String("symbol", u.Execution.Symbol),
			slog.String("reason", u.Reason))
	}

	if err := marketdata.WriteAnnotated(cfg.Data.AnnotatedPath, res.Annotated); err != nil {
		return err
	}

	snap := b.Metrics.Snapshot()
	slog.Info("annotation complete",
		slog.String("output", cfg.Data.AnnotatedPath),
		slog.Int("annotated", len(res.Annotated)),
		slog.Int("unmatched", len(res.Unmatched)),
		slog.Uint64("rejected_records", snap.RecordsRejected),
		slog.Uint64("quotes_scanned", snap.QuotesScanned))

	logImprovementByExchange(res.Annotated)
	return nil
}

// RunTrain consumes the annotated artifact and writes the model bundle.
func (b *Bootstrap) RunTrain() error {
	cfg := b.Config

	rows, err := marketdata.ReadAnnotated(cfg.Data.AnnotatedPath, b.Metrics)
	if err != nil {
		return err
	}
	slog.Info("annotated data loaded",
		slog.String("path", cfg.Data.AnnotatedPath),
		slog.Int("rows", len(rows)))

	examples := make([]model.Example, 0, len(rows))
	for _, a := range rows {
		vec, label, err := feature.FromAnnotated(a)
		if err != nil {
			b.Metrics.RecordRejected()
			slog.Debug("rejected training row", slog.Any("error", err))
			continue
		}
		examples = append(examples, model.Example{
			Exchange:  a.Execution.Exchange,
			Timestamp: a.Execution.Timestamp,
			Features:  vec,
			Label:     label,
		})
	}

	trainer := model.NewTrainer(model.TrainerConfig{
		MinSamples:         cfg.Training.MinSamples,
		FallbackMinSamples: cfg.Training.FallbackMinSamples,
		TestFraction:       cfg.Training.TestFraction,
		Lambda:             cfg.Training.RidgeLambda,
		Seed:               cfg.Training.Seed,
	})
	bundle, err := trainer.Train(examples)
	if err != nil {
		return err
	}

	if err := model.SaveBundle(cfg.Bundle.Path, bundle); err != nil {
		return err
	}

	snap := b.Metrics.Snapshot()
	slog.Info("training complete",
		slog.String("bundle", cfg.Bundle.Path),
		slog.String("run_id", bundle.RunID),
		slog.Int("exchanges", len(bundle.Exchanges)),
		slog.Int("routable", len(bundle.RoutableExchanges())),
		slog.Uint64("rejected_records", snap.RecordsRejected))
	return nil
}

// RouteRequest carries one routing query from the CLI surface.
type RouteRequest struct {
	Symbol     string
	Side       domain.Side
	Quantity   decimal.Decimal
	LimitPrice decimal.Decimal
	BidPrice   decimal.Decimal
	AskPrice   decimal.Decimal
	BidSize    decimal.Decimal
	AskSize    decimal.Decimal
}

// RunRoute loads the bundle and answers a single routing query.
func (b *Bootstrap) RunRoute(req RouteRequest) (string, float64, error) {
	bundle, err := model.LoadBundle(b.Config.Bundle.Path)
	if err != nil {
		return "", 0, err
	}
	r, err := router.New(bundle)
	if err != nil {
		return "", 0, err
	}

	exchange, pred, err := r.BestPriceImprovement(req.Symbol, req.Side,
		req.Quantity, req.LimitPrice, req.BidPrice, req.AskPrice, req.BidSize, req.AskSize)
	if err != nil {
		return "", 0, err
	}

	slog.Info("routing decision",
		slog.String("symbol", req.Symbol),
		slog.String("side", req.Side.String()),
		slog.String("exchange", exchange),
		slog.Float64("predicted_improvement", pred))
	return exchange, pred, nil
}

// logImprovementByExchange mirrors the per-venue summary the training team
// reads after every annotation run: mean, std and count of the label.
func logImprovementByExchange(rows []domain.AnnotatedExecution) {
	byExchange := make(map[string][]float64)
	for _, a := range rows {
		byExchange[a.Execution.Exchange] = append(
			byExchange[a.Execution.Exchange],
			a.PriceImprovement.InexactFloat64())
	}

	exchanges := make([]string, 0, len(byExchange))
	for id := range byExchange {
		exchanges = append(exchanges, id)
	}
	sort.Strings(exchanges)

	for _, id := range exchanges {
		labels := byExchange[id]
		std := 0.0
		if len(labels) > 1 {
			std = stat.StdDev(labels, nil)
			if math.IsNaN(std) {
				std = 0
			}
		}
		slog.Info("price improvement by exchange",
			slog.String("exchange", id),
			slog.Int("count", len(labels)),
			slog.Float64("mean", stat.Mean(labels, nil)),
			slog.Float64("std", std))
	}
}
