// Package domain provides canonical type definitions for dogstore entities.
package domain

import "time"

// TransitionEvent records one move of the orchestrator state machine.
// Events are emitted to the logging sink; they are never persisted.
type TransitionEvent struct {
	// ExecutionID correlates all events of a single pipeline execution.
	ExecutionID string `json:"execution_id"`

	// Timestamp is when the transition happened.
	Timestamp time.Time `json:"timestamp"`

	// From is the state being left.
	From State `json:"from"`

	// To is the state being entered.
	To State `json:"to"`

	// Stage is set when To is StateFailed.
	Stage Stage `json:"stage,omitempty"`
}
