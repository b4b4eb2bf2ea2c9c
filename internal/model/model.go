// Package model trains and serializes the per-exchange price-improvement
// predictors. Every predictor, full or degraded, exposes the same
// Predict(features) capability; callers select one via the bundle's
// exchange map and never inspect the concrete type.
package model

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Model is the uniform prediction capability implemented per exchange.
type Model interface {
	// Predict returns the predicted price improvement for a feature
	// vector matching the bundle's schema.
	Predict(features []float64) float64
	// Kind returns the serialization discriminator.
	Kind() string
}

const (
	KindRidge = "ridge"
	KindMean  = "mean"
)

// MeanModel is the degraded fallback: it predicts the historical mean
// improvement of its exchange regardless of features.
type MeanModel struct {
	Mean float64 `json:"mean"`
}

func (m *MeanModel) Predict(_ []float64) float64 { return m.Mean }

func (m *MeanModel) Kind() string { return KindMean }

// RidgeModel is a standard-scaled ridge regression: features are scaled to
// zero mean and unit variance with the statistics captured at training
// time, then combined linearly.
type RidgeModel struct {
	Means     []float64 `json:"means"`
	Stds      []float64 `json:"stds"`
	Coefs     []float64 `json:"coefs"`
	Intercept float64   `json:"intercept"`
}

func (m *RidgeModel) Predict(features []float64) float64 {
	pred := m.Intercept
	for i, c := range m.Coefs {
		pred += c * (features[i] - m.Means[i]) / m.Stds[i]
	}
	return pred
}

func (m *RidgeModel) Kind() string { return KindRidge }

// FitRidge fits a ridge regression on the given rows. Scaling statistics
// are taken from the training rows; constant columns get unit scale so
// they contribute nothing rather than dividing by zero. lambda > 0 keeps
// the normal equations well-conditioned even with collinear features.
func FitRidge(features [][]float64, labels []float64, lambda float64) (*RidgeModel, error) {
	n := len(features)
	if n == 0 {
		return nil, fmt.Errorf("no training rows")
	}
	if n != len(labels) {
		return nil, fmt.Errorf("features/labels length mismatch: %d vs %d", n, len(labels))
	}
	p := len(features[0])

	means := make([]float64, p)
	stds := make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			col[i] = features[i][j]
		}
		means[j] = stat.Mean(col, nil)
		stds[j] = stat.StdDev(col, nil)
		if stds[j] == 0 || stds[j] != stds[j] {
			stds[j] = 1
		}
	}

	intercept := stat.Mean(labels, nil)

	scaled := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			scaled.Set(i, j, (features[i][j]-means[j])/stds[j])
		}
	}
	centered := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		centered.SetVec(i, labels[i]-intercept)
	}

	// Normal equations on scaled data: (ZᵀZ + λI)β = Zᵀ(y - ȳ).
	var ztz mat.Dense
	ztz.Mul(scaled.T(), scaled)
	for j := 0; j < p; j++ {
		ztz.Set(j, j, ztz.At(j, j)+lambda)
	}
	var zty mat.VecDense
	zty.MulVec(scaled.T(), centered)

	var beta mat.VecDense
	if err := beta.SolveVec(&ztz, &zty); err != nil {
		return nil, fmt.Errorf("solving ridge system: %w", err)
	}

	coefs := make([]float64, p)
	for j := 0; j < p; j++ {
		coefs[j] = beta.AtVec(j)
	}

	return &RidgeModel{Means: means, Stds: stds, Coefs: coefs, Intercept: intercept}, nil
}

// decodeModel reconstructs a Model from its serialized form.
func decodeModel(kind string, params []byte) (Model, error) {
	switch kind {
	case KindRidge:
		var m RidgeModel
		if err := json.Unmarshal(params, &m); err != nil {
			return nil, fmt.Errorf("decoding ridge params: %w", err)
		}
		return &m, nil
	case KindMean:
		var m MeanModel
		if err := json.Unmarshal(params, &m); err != nil {
			return nil, fmt.Errorf("decoding mean params: %w", err)
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("unknown model kind %q", kind)
	}
}
