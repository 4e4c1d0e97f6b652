// Package agent provides the agent aggregate: its lifecycle machine,
// event fold, and command definitions.
//
// The aggregate is reconstructed entirely from its event stream. Decide is a
// pure function from (state, command) to a decision; Fold is a pure function
// from (state, event) to the next state. Storage and transport never leak in
// here, which keeps every lifecycle rule replayable and testable without
// infrastructure.
package agent
