package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Command rejection codes
	CodeAgentAlreadyExists          Code = "AGENT_ALREADY_EXISTS"
	CodeAgentNotFound               Code = "AGENT_NOT_FOUND"
	CodeAgentNameEmpty              Code = "AGENT_NAME_EMPTY"
	CodeAgentVersionEmpty           Code = "AGENT_VERSION_EMPTY"
	CodeAgentCategoryInvalid        Code = "AGENT_CATEGORY_INVALID"
	CodeAgentSuspendReasonEmpty     Code = "AGENT_SUSPEND_REASON_EMPTY"
	CodeAgentInvalidStateTransition Code = "AGENT_INVALID_STATE_TRANSITION"
	CodeAgentCapabilitiesEmpty      Code = "AGENT_CAPABILITIES_EMPTY"
	CodeAgentPermissionsEmpty       Code = "AGENT_PERMISSIONS_EMPTY"
	CodeAgentToolsEmpty             Code = "AGENT_TOOLS_EMPTY"
	CodeAgentConfigurationEmpty     Code = "AGENT_CONFIGURATION_EMPTY"

	// Concurrency errors
	CodeConcurrencyConflict Code = "CONCURRENCY_CONFLICT"

	// Storage errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeEventStore    Code = "EVENT_STORE"
	CodeSnapshotStore Code = "SNAPSHOT_STORE"
	CodeSerialization Code = "SERIALIZATION"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeAgentNameEmpty,
		CodeAgentVersionEmpty,
		CodeAgentCategoryInvalid,
		CodeAgentSuspendReasonEmpty,
		CodeAgentCapabilitiesEmpty,
		CodeAgentPermissionsEmpty,
		CodeAgentToolsEmpty,
		CodeAgentConfigurationEmpty:
		return codes.InvalidArgument

	// NotFound - missing records
	case CodeAgentNotFound, CodeNotFound:
		return codes.NotFound

	// AlreadyExists - duplicate creation
	case CodeAgentAlreadyExists:
		return codes.AlreadyExists

	// FailedPrecondition - lifecycle rules
	case CodeAgentInvalidStateTransition:
		return codes.FailedPrecondition

	// Aborted - stale writers should reload and retry
	case CodeConcurrencyConflict:
		return codes.Aborted

	// Internal - infrastructure failures
	case CodeEventStore, CodeSnapshotStore, CodeSerialization:
		return codes.Internal

	default:
		return codes.Unknown
	}
}
