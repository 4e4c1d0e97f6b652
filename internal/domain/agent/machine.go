package agent

import (
	"time"

	"github.com/fleetmind/agentcore/internal/domain/command"
)

// Step runs one transition of the lifecycle machine: it decides the command
// against current state and, when accepted, folds the produced events into
// the next state. The returned decision carries the events in emission order.
func Step(state State, cmd command.Command, now func() time.Time) (State, command.Decision) {
	decision := Decide(state, cmd, now)
	if len(decision.Rejections) > 0 {
		return state, decision
	}
	next := state
	for _, evt := range decision.Events {
		next = Fold(next, evt)
	}
	return next, decision
}
