package domain

import "github.com/shopspring/decimal"

// AnnotatedExecution is an execution joined with the prevailing quote at or
// before its timestamp, plus the derived fields the training stage needs.
type AnnotatedExecution struct {
	Execution Execution `json:"execution"`
	Quote     Quote     `json:"quote"`

	MidPrice         decimal.Decimal `json:"mid_price"`
	Spread           decimal.Decimal `json:"spread"`
	PriceImprovement decimal.Decimal `json:"price_improvement"`
}

// Annotate pairs an execution with its matched quote and fills in the
// derived fields. The caller guarantees quote.Timestamp <= execution.Timestamp.
func Annotate(e Execution, q Quote) AnnotatedExecution {
	return AnnotatedExecution{
		Execution:        e,
		Quote:            q,
		MidPrice:         q.Mid(),
		Spread:           q.Spread(),
		PriceImprovement: e.PriceImprovement(),
	}
}

// UnmatchedExecution records an execution that could not be annotated,
// together with the reason. Unmatched executions are dropped from training
// but never silently.
type UnmatchedExecution struct {
	Execution Execution
	Reason    string
}
