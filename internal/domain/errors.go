package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies how a settlement attempt ended. The HTTP layer
// maps kinds to user-facing messages; the core only guarantees the kind
// and its diagnostic payload are present.
type FailureKind string

const (
	InventoryUnavailable  FailureKind = "inventory_unavailable"
	InsufficientBalance   FailureKind = "insufficient_balance"
	MergeSubmissionFailed FailureKind = "merge_submission_failed"
	MergeIncomplete       FailureKind = "merge_incomplete"
	InvalidInput          FailureKind = "invalid_input"
	TransactionFailed     FailureKind = "transaction_failed"
	Timeout               FailureKind = "timeout"
)

// SettlementError is the typed failure returned by the settlement flow.
// Required/Available are set for insufficient-balance failures, Field for
// validation failures.
type SettlementError struct {
	Kind      FailureKind
	Field     string
	Required  int64
	Available int64
	Err       error
}

func (e *SettlementError) Error() string {
	switch e.Kind {
	case InsufficientBalance:
		return fmt.Sprintf("%s: need %d base units, have %d", e.Kind, e.Required, e.Available)
	case InvalidInput:
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.Err)
		}
		return string(e.Kind)
	}
}

func (e *SettlementError) Unwrap() error { return e.Err }

// Failure wraps err under the given kind.
func Failure(kind FailureKind, err error) *SettlementError {
	return &SettlementError{Kind: kind, Err: err}
}

// InvalidField reports a missing or malformed request field.
func InvalidField(field string) *SettlementError {
	return &SettlementError{Kind: InvalidInput, Field: field}
}

// Insufficient reports total funds below required+buffer.
func Insufficient(required, available int64) *SettlementError {
	return &SettlementError{Kind: InsufficientBalance, Required: required, Available: available}
}

// KindOf extracts the failure kind, or "" when err is not a settlement
// failure.
func KindOf(err error) FailureKind {
	var se *SettlementError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
