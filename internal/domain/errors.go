package domain

import "errors"

// FatalError defines an interface for errors that must abort the batch.
// Per-record errors report false: the offending record is dropped and
// counted, and processing continues.
type FatalError interface {
	error
	IsFatal() bool
}

// IsFatal checks whether an error aborts the run.
func IsFatal(err error) bool {
	var fe FatalError
	if errors.As(err, &fe) {
		return fe.IsFatal()
	}
	// Unclassified errors are treated as fatal.
	return err != nil
}

// RecordError represents a malformed upstream record (non-positive price,
// unknown side, unparseable number). Never fatal: the record is rejected
// and the batch continues.
type RecordError struct {
	Field  string // offending column/field
	Reason string
}

func (e *RecordError) Error() string {
	return "bad record [" + e.Field + "]: " + e.Reason
}

func (e *RecordError) IsFatal() bool {
	return false
}

// ValidationError represents an invalid routing input. It identifies the
// offending field so callers can correct the request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid input [" + e.Field + "]: " + e.Reason
}

func (e *ValidationError) IsFatal() bool {
	return false
}

// ConfigError represents a configuration problem (missing input file,
// empty model bundle). Always fatal.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsFatal() bool {
	return true
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrNoQuote is returned when no quote exists at or before an
	// execution's timestamp. The execution is dropped, not the batch.
	ErrNoQuote = errors.New("no quote at or before execution time")

	// ErrEmptyBundle is returned when routing is attempted against a
	// missing or empty model bundle. Never defaulted around.
	ErrEmptyBundle = errors.New("model bundle is empty")

	// ErrUnknownExchange is returned when a prediction is requested for an
	// exchange absent from the trained bundle.
	ErrUnknownExchange = errors.New("exchange not present in bundle")

	// ErrInsufficientData is returned when an exchange has too few samples
	// to train even the fallback model.
	ErrInsufficientData = errors.New("insufficient training data")

	// ErrSchemaMismatch is returned when a feature vector does not match
	// the schema a model was trained on.
	ErrSchemaMismatch = errors.New("feature schema mismatch")
)
