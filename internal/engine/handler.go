// Package engine executes agent commands against the journal.
//
// The handler is the single write path: it validates a command, loads the
// current agent state, asks the decider for a decision, folds accepted
// events into the next state, and persists the batch with optimistic
// concurrency. Publication of appended events is best-effort and never
// blocks the write.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fleetmind/agentcore/internal/domain/agent"
	"github.com/fleetmind/agentcore/internal/domain/command"
	"github.com/fleetmind/agentcore/internal/domain/event"
	apperrors "github.com/fleetmind/agentcore/internal/platform/errors"
	"github.com/fleetmind/agentcore/internal/platform/id"
	"github.com/fleetmind/agentcore/internal/repository"
	"github.com/fleetmind/agentcore/internal/storage"
)

var (
	// ErrCommandRegistryRequired indicates a missing command registry.
	ErrCommandRegistryRequired = errors.New("command registry is required")
	// ErrRepositoryRequired indicates a missing repository.
	ErrRepositoryRequired = errors.New("repository is required")
)

// Publisher delivers appended envelopes to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, env event.Envelope) error
}

// Handler validates, decides, and persists agent commands.
type Handler struct {
	Commands  *command.Registry
	Repo      *repository.Repository
	Publisher Publisher
	Cursors   storage.PublishCursorStore
	Now       func() time.Time
}

// Result captures execution outcomes.
type Result struct {
	Decision  command.Decision
	State     agent.State
	Version   uint64
	Envelopes []event.Envelope
}

// Rejected reports whether the command was rejected by the decider.
func (r Result) Rejected() bool {
	return len(r.Decision.Rejections) > 0
}

// Execute runs a command end to end.
//
// Rejections are a normal outcome and return a nil error with the
// rejection list on the result. Errors are reserved for invalid input,
// storage failures, and concurrency conflicts.
func (h Handler) Execute(ctx context.Context, cmd command.Command) (Result, error) {
	if h.Commands == nil {
		return Result{}, ErrCommandRegistryRequired
	}
	if h.Repo == nil {
		return Result{}, ErrRepositoryRequired
	}

	cmd, err := stampCorrelation(cmd)
	if err != nil {
		return Result{}, err
	}
	validated, err := h.Commands.ValidateForDecision(cmd)
	if err != nil {
		return Result{}, err
	}
	cmd = validated

	ctx, span := otel.Tracer("agentcore/engine").Start(ctx, "agent.command")
	defer span.End()
	span.SetAttributes(
		attribute.String("agent.id", cmd.AgentID),
		attribute.String("command.type", string(cmd.Type)),
	)

	state, _, err := h.Repo.Load(ctx, cmd.AgentID)
	if err != nil {
		return Result{}, err
	}
	expectedVersion := state.Version

	now := h.Now
	if now == nil {
		now = time.Now
	}
	next, decision := agent.Step(state, cmd, now)
	if len(decision.Rejections) > 0 {
		return Result{Decision: decision, State: state, Version: state.Version}, nil
	}
	if len(decision.Events) == 0 {
		// Accepted no-op, nothing to persist.
		return Result{Decision: decision, State: state, Version: state.Version}, nil
	}

	envelopes, err := h.Repo.Save(ctx, next, decision.Events, expectedVersion)
	if err != nil {
		return Result{}, err
	}

	span.SetAttributes(attribute.Int64("agent.version", int64(next.Version)))

	h.publish(ctx, cmd.AgentID, envelopes)

	return Result{
		Decision:  decision,
		State:     next,
		Version:   next.Version,
		Envelopes: envelopes,
	}, nil
}

// publish forwards envelopes in sequence order and advances the publish
// cursor past each delivered event. Failures are logged and stop the
// batch; the relay drains the remainder from the cursor.
func (h Handler) publish(ctx context.Context, agentID string, envelopes []event.Envelope) {
	if h.Publisher == nil || len(envelopes) == 0 {
		return
	}
	for _, env := range envelopes {
		if err := h.Publisher.Publish(ctx, env); err != nil {
			log.Printf("publish agent %s seq %d: %v", agentID, env.Seq, err)
			return
		}
		if h.Cursors == nil {
			continue
		}
		cursor := storage.PublishCursor{
			AgentID:      agentID,
			PublishedSeq: env.Seq,
			UpdatedAt:    time.Now().UTC(),
		}
		if err := h.Cursors.SavePublishCursor(ctx, cursor); err != nil {
			log.Printf("save publish cursor agent %s seq %d: %v", agentID, env.Seq, err)
			return
		}
	}
}

func stampCorrelation(cmd command.Command) (command.Command, error) {
	if cmd.CorrelationID == "" {
		generated, err := id.NewID()
		if err != nil {
			return command.Command{}, fmt.Errorf("stamp correlation id: %w", err)
		}
		cmd.CorrelationID = generated
	}
	if cmd.CausationID == "" {
		cmd.CausationID = cmd.CorrelationID
	}
	return cmd, nil
}

// IsConflict reports whether err is an optimistic concurrency conflict.
func IsConflict(err error) bool {
	var conflict *storage.ConflictError
	return errors.As(err, &conflict)
}

// ConflictStatusError maps an optimistic concurrency conflict into the shared
// status error vocabulary, keeping the original conflict reachable via
// errors.As. Non-conflict errors pass through unchanged.
func ConflictStatusError(err error) error {
	var conflict *storage.ConflictError
	if !errors.As(err, &conflict) {
		return err
	}
	return apperrors.WrapWithMetadata(
		apperrors.CodeConcurrencyConflict,
		conflict.Error(),
		map[string]string{"agent_id": conflict.AgentID},
		err,
	)
}

// AsStatusError converts domain rejections and conflicts into app errors
// suitable for transport boundaries.
func AsStatusError(agentID string, rejection command.Rejection) *apperrors.Error {
	code := apperrors.CodeUnknown
	switch rejection.Code {
	case agent.RejectionCodeAlreadyExists:
		code = apperrors.CodeAgentAlreadyExists
	case agent.RejectionCodeNotFound:
		code = apperrors.CodeAgentNotFound
	case agent.RejectionCodeNameEmpty:
		code = apperrors.CodeAgentNameEmpty
	case agent.RejectionCodeVersionEmpty:
		code = apperrors.CodeAgentVersionEmpty
	case agent.RejectionCodeCategoryInvalid:
		code = apperrors.CodeAgentCategoryInvalid
	case agent.RejectionCodeSuspendReasonEmpty:
		code = apperrors.CodeAgentSuspendReasonEmpty
	case agent.RejectionCodeInvalidStateTransition:
		code = apperrors.CodeAgentInvalidStateTransition
	case agent.RejectionCodeCapabilitiesEmpty:
		code = apperrors.CodeAgentCapabilitiesEmpty
	case agent.RejectionCodePermissionsEmpty:
		code = apperrors.CodeAgentPermissionsEmpty
	case agent.RejectionCodeToolsEmpty:
		code = apperrors.CodeAgentToolsEmpty
	case agent.RejectionCodeConfigurationEmpty:
		code = apperrors.CodeAgentConfigurationEmpty
	}
	return apperrors.WithMetadata(code, rejection.Message, map[string]string{
		"agent_id": agentID,
	})
}
