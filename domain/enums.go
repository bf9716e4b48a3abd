// Package domain provides canonical type definitions for dogstore entities.
package domain

// Stage identifies the pipeline step a failure is attributed to.
type Stage string

const (
	// StageNone is the zero stage, used on successful outcomes.
	StageNone Stage = ""

	// StageValidation covers schema validation of the inbound payload.
	StageValidation Stage = "validation"

	// StageIDGeneration covers identifier generation.
	StageIDGeneration Stage = "id-generation"

	// StagePersistence covers the record store write, including retries.
	StagePersistence Stage = "persistence"
)

// String returns the string representation of the Stage.
func (s Stage) String() string {
	return string(s)
}

// State is a state of the orchestrator state machine.
type State string

const (
	// StateStart is the initial state of every pipeline execution.
	StateStart State = "START"

	// StateGeneratingID is entered once the payload passed the entry guard.
	StateGeneratingID State = "GENERATING_ID"

	// StatePersisting is entered once the record has an identifier.
	StatePersisting State = "PERSISTING"

	// StateDone is the terminal success state.
	StateDone State = "DONE"

	// StateFailed is the terminal failure state.
	StateFailed State = "FAILED"
)

// String returns the string representation of the State.
func (s State) String() string {
	return string(s)
}

// Terminal reports whether no further transitions leave this state.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
