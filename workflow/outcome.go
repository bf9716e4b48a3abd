package workflow

import (
	"time"

	"github.com/input-output-hk/dogstore/domain"
)

// Outcome is the composed result of one execution: either success, with the
// stored record and its write receipt, or failure, with the stage and cause.
type Outcome struct {
	// ExecutionID correlates the log entries and spans of the execution.
	ExecutionID string

	// State is the terminal state, StateDone or StateFailed.
	State domain.State

	// Record is the persisted record. Set on success only.
	Record domain.Dog

	// Receipt is the store write receipt. Set on success only.
	Receipt domain.WriteReceipt

	// Stage is the stage the failure is attributed to. Empty on success.
	Stage domain.Stage

	// Cause is the failure, wrapped in a coded *errors.Error. Nil on success.
	Cause error

	// Attempts is the number of put attempts made.
	Attempts int

	// Duration is the wall time of the execution.
	Duration time.Duration
}

// Succeeded reports whether the execution reached StateDone.
func (o Outcome) Succeeded() bool {
	return o.State == domain.StateDone
}
