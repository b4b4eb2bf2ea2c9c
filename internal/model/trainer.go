package model

import (
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"sor_go/internal/domain"
	"sor_go/internal/feature"
)

// Example is one labeled training row.
type Example struct {
	Exchange  string
	Timestamp time.Time
	Features  []float64
	Label     float64
}

// TrainerConfig holds the training policy knobs.
type TrainerConfig struct {
	// MinSamples is the minimum rows for a full regression; below it the
	// exchange degrades to the mean fallback.
	MinSamples int
	// FallbackMinSamples is the minimum rows for even the fallback;
	// below it the exchange is excluded from the bundle.
	FallbackMinSamples int
	// TestFraction of each exchange's rows is held out for evaluation.
	TestFraction float64
	// Lambda is the ridge regularization strength.
	Lambda float64
	// Seed makes the train/test split reproducible.
	Seed int64
}

func (c *TrainerConfig) applyDefaults() {
	if c.MinSamples == 0 {
		c.MinSamples = 50
	}
	if c.FallbackMinSamples == 0 {
		c.FallbackMinSamples = 10
	}
	if c.TestFraction == 0 {
		c.TestFraction = 0.2
	}
	if c.Lambda == 0 {
		c.Lambda = 1.0
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
}

// Trainer fits one model per exchange. Price-improvement dynamics are
// venue-specific (fee structures, quote latency), so there is no
// cross-exchange pooling: each model sees only its own venue's fills.
type Trainer struct {
	cfg TrainerConfig
}

// NewTrainer creates a Trainer with defaults applied.
func NewTrainer(cfg TrainerConfig) *Trainer {
	cfg.applyDefaults()
	return &Trainer{cfg: cfg}
}

// Train partitions the examples by exchange and fits each partition,
// returning the complete bundle. Exchanges with too little data get an
// explicit fallback or exclusion entry; an entirely empty input is a
// configuration failure.
func (t *Trainer) Train(examples []Example) (*Bundle, error) {
	if len(examples) == 0 {
		return nil, &domain.ConfigError{Field: "training_data", Err: domain.ErrInsufficientData}
	}

	partitions := make(map[string][]Example)
	for _, ex := range examples {
		partitions[ex.Exchange] = append(partitions[ex.Exchange], ex)
	}

	exchanges := make([]string, 0, len(partitions))
	for id := range partitions {
		exchanges = append(exchanges, id)
	}
	sort.Strings(exchanges)

	bundle := &Bundle{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Schema:    feature.Schema(),
		Exchanges: make(map[string]*ExchangeModel, len(exchanges)),
	}

	for _, id := range exchanges {
		em := t.trainExchange(id, partitions[id])
		bundle.Exchanges[id] = em
		slog.Info("exchange trained",
			slog.String("exchange", id),
			slog.String("status", string(em.Status)),
			slog.Int("samples", em.SampleCount),
			slog.Float64("rmse", em.RMSE),
			slog.Float64("r2", em.R2))
	}

	return bundle, nil
}

func (t *Trainer) trainExchange(id string, rows []Example) *ExchangeModel {
	em := &ExchangeModel{
		Exchange:        id,
		SampleCount:     len(rows),
		MeanImprovement: meanLabel(rows),
	}
	em.TrainStart, em.TrainEnd = timeRange(rows)

	switch {
	case len(rows) < t.cfg.FallbackMinSamples:
		em.Status = StatusExcluded
		slog.Warn("excluding exchange: too few samples even for fallback",
			slog.String("exchange", id),
			slog.Int("samples", len(rows)),
			slog.Int("required", t.cfg.FallbackMinSamples))
		return em

	case len(rows) < t.cfg.MinSamples:
		em.Status = StatusFallback
		em.Model = &MeanModel{Mean: em.MeanImprovement}
		em.RMSE, em.R2 = evaluate(em.Model, rows)
		slog.Warn("degrading exchange to mean fallback",
			slog.String("exchange", id),
			slog.Int("samples", len(rows)),
			slog.Int("required", t.cfg.MinSamples))
		return em
	}

	train, test := t.split(rows)

	x := make([][]float64, len(train))
	y := make([]float64, len(train))
	for i, ex := range train {
		x[i] = ex.Features
		y[i] = ex.Label
	}

	ridge, err := FitRidge(x, y, t.cfg.Lambda)
	if err != nil {
		// A fit failure must not silently drop the venue.
		slog.Warn("ridge fit failed, degrading to mean fallback",
			slog.String("exchange", id), slog.Any("error", err))
		em.Status = StatusFallback
		em.Model = &MeanModel{Mean: em.MeanImprovement}
		em.RMSE, em.R2 = evaluate(em.Model, rows)
		return em
	}

	em.Status = StatusTrained
	em.Model = ridge
	if len(test) > 0 {
		em.RMSE, em.R2 = evaluate(ridge, test)
	} else {
		em.RMSE, em.R2 = evaluate(ridge, train)
	}
	return em
}

// split shuffles deterministically and holds out the configured test
// fraction. Every exchange uses the same seed, so a rerun over the same
// inputs rebuilds the same bundle.
func (t *Trainer) split(rows []Example) (train, test []Example) {
	rng := rand.New(rand.NewSource(t.cfg.Seed))
	perm := rng.Perm(len(rows))

	nTest := int(float64(len(rows)) * t.cfg.TestFraction)
	test = make([]Example, 0, nTest)
	train = make([]Example, 0, len(rows)-nTest)
	for i, idx := range perm {
		if i < nTest {
			test = append(test, rows[idx])
		} else {
			train = append(train, rows[idx])
		}
	}
	return train, test
}

func evaluate(m Model, rows []Example) (rmse, r2 float64) {
	estimates := make([]float64, len(rows))
	values := make([]float64, len(rows))
	var sse float64
	for i, ex := range rows {
		estimates[i] = m.Predict(ex.Features)
		values[i] = ex.Label
		d := estimates[i] - ex.Label
		sse += d * d
	}
	rmse = math.Sqrt(sse / float64(len(rows)))
	r2 = stat.RSquaredFrom(estimates, values, nil)
	return rmse, r2
}

func meanLabel(rows []Example) float64 {
	labels := make([]float64, len(rows))
	for i, ex := range rows {
		labels[i] = ex.Label
	}
	return stat.Mean(labels, nil)
}

func timeRange(rows []Example) (start, end time.Time) {
	for _, ex := range rows {
		if ex.Timestamp.IsZero() {
			continue
		}
		if start.IsZero() || ex.Timestamp.Before(start) {
			start = ex.Timestamp
		}
		if end.IsZero() || ex.Timestamp.After(end) {
			end = ex.Timestamp
		}
	}
	return start, end
}
