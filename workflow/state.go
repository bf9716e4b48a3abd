package workflow

import (
	"fmt"
	"slices"

	"github.com/input-output-hk/dogstore/domain"
)

// transitions enumerates every legal move of the state machine.
var transitions = map[domain.State][]domain.State{
	domain.StateStart:        {domain.StateGeneratingID, domain.StateFailed},
	domain.StateGeneratingID: {domain.StatePersisting, domain.StateFailed},
	domain.StatePersisting:   {domain.StateDone, domain.StateFailed},
	domain.StateDone:         nil,
	domain.StateFailed:       nil,
}

// CanTransition reports whether the state machine allows moving from one
// state to another.
func CanTransition(from, to domain.State) bool {
	return slices.Contains(transitions[from], to)
}

// stageOf attributes a failure in state s to a pipeline stage.
func stageOf(s domain.State) domain.Stage {
	switch s {
	case domain.StateStart:
		return domain.StageValidation
	case domain.StateGeneratingID:
		return domain.StageIDGeneration
	case domain.StatePersisting:
		return domain.StagePersistence
	default:
		panic(fmt.Sprintf("workflow: no stage for state %s", s))
	}
}
