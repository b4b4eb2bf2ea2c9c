package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsFatal_RecordError(t *testing.T) {
	err := &RecordError{Field: "limit_price", Reason: "non-positive"}
	if IsFatal(err) {
		t.Error("record errors must not abort the batch")
	}
}

func TestIsFatal_ConfigError(t *testing.T) {
	err := &ConfigError{Field: "bundle", Err: ErrEmptyBundle}
	if !IsFatal(err) {
		t.Error("config errors must be fatal")
	}
}

func TestIsFatal_WrappedClassification(t *testing.T) {
	wrapped := fmt.Errorf("reading row 42: %w", &RecordError{Field: "side", Reason: "unknown side X"})
	if IsFatal(wrapped) {
		t.Error("wrapping must not change classification")
	}

	var re *RecordError
	if !errors.As(wrapped, &re) {
		t.Fatal("expected RecordError to unwrap")
	}
	if re.Field != "side" {
		t.Errorf("expected field side, got %s", re.Field)
	}
}

func TestIsFatal_UnclassifiedDefaultsFatal(t *testing.T) {
	if !IsFatal(errors.New("disk on fire")) {
		t.Error("unclassified errors should be treated as fatal")
	}
	if IsFatal(nil) {
		t.Error("nil error is not fatal")
	}
}

func TestConfigError_Unwrap(t *testing.T) {
	err := &ConfigError{Field: "bundle", Err: ErrEmptyBundle}
	if !errors.Is(err, ErrEmptyBundle) {
		t.Error("expected ErrEmptyBundle in chain")
	}
}
