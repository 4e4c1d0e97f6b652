// Package event defines the immutable event envelope for the agent journal.
//
// Events are facts that have occurred, never requests. Storage assigns each
// event a sequence number within its agent's stream on append; everything
// else on the envelope is supplied by the decider that produced it.
package event
