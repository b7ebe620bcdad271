package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// StrategyError records why one loader strategy failed.
type StrategyError struct {
	Strategy string
	Err      error
}

func (e StrategyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Strategy, e.Err)
}

// DataLoadError is returned when no loader strategy could read the source.
type DataLoadError struct {
	Source   string
	Attempts []StrategyError
	Preview  []string
	Cause    error
}

func (e *DataLoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "could not load %q", e.Source)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if len(e.Attempts) > 0 {
		b.WriteString("; tried ")
		for i, a := range e.Attempts {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.Error())
		}
	}
	return b.String()
}

// Unwrap exposes the cause and every attempt failure to errors.Is/As.
func (e *DataLoadError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts)+1)
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// SchemaMismatchError reports missing columns or a value of the wrong type.
type SchemaMismatchError struct {
	Missing []string
	Column  string
	Row     int
	Value   string
	Reason  string
}

func (e *SchemaMismatchError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("schema mismatch: missing columns %s", strings.Join(e.Missing, ", "))
	}
	reason := e.Reason
	if reason == "" {
		reason = "invalid value"
	}
	return fmt.Sprintf("schema mismatch: row %d column %q: %s %q", e.Row, e.Column, reason, e.Value)
}

// MalformedDateError is a row-level failure to parse an order or ship date.
type MalformedDateError struct {
	Row     int
	OrderID string
	Field   string
	Value   string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("malformed %s %q in row %d (order %s)", e.Field, e.Value, e.Row, e.OrderID)
}

// NoDataError is returned when an extremum or ratio is requested over an
// empty result set.
type NoDataError struct {
	Operation string
}

func (e *NoDataError) Error() string {
	if e.Operation == "" {
		return "no data"
	}
	return fmt.Sprintf("no data for %s", e.Operation)
}

func IsNoData(err error) bool {
	var nd *NoDataError
	return stderrors.As(err, &nd)
}

// FromDomain maps any error onto the HTTP envelope.
func FromDomain(err error) *AppError {
	var (
		appErr    *AppError
		loadErr   *DataLoadError
		schemaErr *SchemaMismatchError
		dateErr   *MalformedDateError
		noData    *NoDataError
	)

	switch {
	case err == nil:
		return Internal("An unexpected error occurred")
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.As(err, &noData):
		return Wrap(err, CodeNoData, noData.Error())
	case stderrors.As(err, &dateErr):
		return Wrap(err, CodeMalformedDate, "dataset contains a malformed date")
	case stderrors.As(err, &loadErr):
		// Checked before schema errors: a load failure may wrap one.
		if stderrors.As(err, &schemaErr) {
			return Wrap(err, CodeSchemaMismatch, schemaErr.Error())
		}
		return Wrap(err, CodeDataLoad, "dataset could not be loaded")
	case stderrors.As(err, &schemaErr):
		return Wrap(err, CodeSchemaMismatch, schemaErr.Error())
	default:
		appErr = Internal("An unexpected error occurred")
		appErr.Cause = err
		return appErr
	}
}
