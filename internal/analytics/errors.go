package analytics

import "fmt"

// InvalidFilterError indicates malformed filter input from the API boundary.
// It is a client error and never reaches the filter engine itself.
type InvalidFilterError struct {
	Field  string
	Reason string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid filter field %q: %s", e.Field, e.Reason)
}

// NewInvalidFilterError creates a new InvalidFilterError
func NewInvalidFilterError(field, reason string) *InvalidFilterError {
	return &InvalidFilterError{Field: field, Reason: reason}
}

// ComputationError indicates an internal inconsistency in the trade data,
// e.g. a closed trade whose stored pnl does not match entry/exit math.
// It is never silently corrected, since that could mask upstream corruption.
type ComputationError struct {
	TradeID int64
	Reason  string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("trade %d: %s", e.TradeID, e.Reason)
}

// NewComputationError creates a new ComputationError
func NewComputationError(tradeID int64, reason string) *ComputationError {
	return &ComputationError{TradeID: tradeID, Reason: reason}
}
