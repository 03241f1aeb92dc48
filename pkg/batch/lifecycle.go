package batch

import (
	"fmt"

	"github.com/pharmatrace/batch-registry/pkg/model"
)

// TransitionRule defines an allowed batch status transition.
type TransitionRule struct {
	From model.BatchStatus
	To   model.BatchStatus
}

// DefaultTransitions defines the allowed batch status transitions.
// Released and Rejected are terminal; On-Hold is re-enterable.
var DefaultTransitions = []TransitionRule{
	{From: model.BatchNotStarted, To: model.BatchInProcess},
	{From: model.BatchInProcess, To: model.BatchOnHold},
	{From: model.BatchOnHold, To: model.BatchInProcess},
	{From: model.BatchInProcess, To: model.BatchCompleted},
	{From: model.BatchInProcess, To: model.BatchRejected},
	{From: model.BatchCompleted, To: model.BatchReleased},
}

// LifecycleMachine validates batch status transitions.
type LifecycleMachine struct {
	transitions []TransitionRule
}

// NewLifecycleMachine creates a machine with the default rules.
func NewLifecycleMachine() *LifecycleMachine {
	return &LifecycleMachine{transitions: DefaultTransitions}
}

// ValidateTransition checks if a transition from->to is allowed.
// Returns nil if allowed, an error with a machine-readable code if not.
func (m *LifecycleMachine) ValidateTransition(from, to model.BatchStatus) error {
	// Same state is a no-op, allow it.
	if from == to {
		return nil
	}

	if !model.ValidBatchStatus(to) {
		return &TransitionError{
			Code:    "BATCH_INVALID_STATUS",
			From:    from,
			To:      to,
			Message: fmt.Sprintf("unknown batch status %q", to),
		}
	}

	for _, t := range m.transitions {
		if t.From == from && t.To == to {
			return nil
		}
	}

	return &TransitionError{
		Code:    "BATCH_INVALID_TRANSITION",
		From:    from,
		To:      to,
		Message: fmt.Sprintf("no transition defined from %s to %s", from, to),
	}
}

// AllowedTransitions returns all valid target states from the given state.
func (m *LifecycleMachine) AllowedTransitions(from model.BatchStatus) []model.BatchStatus {
	var allowed []model.BatchStatus
	for _, t := range m.transitions {
		if t.From == from {
			allowed = append(allowed, t.To)
		}
	}
	return allowed
}

// TransitionError is a structured error for invalid status transitions.
type TransitionError struct {
	Code    string            `json:"code"`
	From    model.BatchStatus `json:"from"`
	To      model.BatchStatus `json:"to"`
	Message string            `json:"message"`
}

func (e *TransitionError) Error() string {
	return e.Message
}
