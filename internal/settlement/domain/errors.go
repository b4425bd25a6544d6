package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidID              = errors.New("invalid_settlement_id")
	ErrInvalidProfessional    = errors.New("invalid_professional")
	ErrInvalidPeriod          = errors.New("invalid_period")
	ErrInvalidStatus          = errors.New("invalid_status")
	ErrNotFound               = errors.New("settlement_not_found")
	ErrProfessionalNotFound   = errors.New("professional_not_found")
	ErrAlreadyExists          = errors.New("settlement_already_exists")
	ErrInvalidStateTransition = errors.New("invalid_state_transition")
	ErrConcurrentModification = errors.New("concurrent_modification")
	ErrComputeFailure         = errors.New("compute_failure")
)

// IsValidation reports errors raised before storage is touched.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidProfessional) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidStatus)
}

// TransitionError identifies the current state and the attempted action.
type TransitionError struct {
	Action Action
	From   Status
	To     Status
}

func (e *TransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("cannot %s settlement in status %s", e.Action, e.From)
	}
	return fmt.Sprintf("cannot %s settlement: %s -> %s is not allowed", e.Action, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}

// ComputeError wraps an unexpected fault during recompute. The transaction has been rolled back.
type ComputeError struct {
	SettlementID string
	Step         string
	Err          error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("recompute settlement %s failed at %s: %v", e.SettlementID, e.Step, e.Err)
}

func (e *ComputeError) Unwrap() error { return e.Err }

func (e *ComputeError) Is(target error) bool {
	return target == ErrComputeFailure
}
