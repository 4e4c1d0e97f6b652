package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeAgentNotFound, "agent missing")
	target := New(CodeAgentNotFound, "different message")

	if !stderrors.Is(err, target) {
		t.Fatal("expected errors with the same code to match")
	}

	other := New(CodeAgentAlreadyExists, "agent missing")
	if stderrors.Is(err, other) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(CodeEventStore, "append failed", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Error() != "append failed" {
		t.Fatalf("expected message %q, got %q", "append failed", err.Error())
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodeAgentNameEmpty, codes.InvalidArgument},
		{CodeAgentCategoryInvalid, codes.InvalidArgument},
		{CodeAgentNotFound, codes.NotFound},
		{CodeAgentAlreadyExists, codes.AlreadyExists},
		{CodeAgentInvalidStateTransition, codes.FailedPrecondition},
		{CodeConcurrencyConflict, codes.Aborted},
		{CodeEventStore, codes.Internal},
		{CodeSerialization, codes.Internal},
		{Code("SOMETHING_ELSE"), codes.Unknown},
	}

	for _, tt := range tests {
		if got := tt.code.GRPCCode(); got != tt.want {
			t.Errorf("GRPCCode(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestToGRPCStatusCarriesReason(t *testing.T) {
	err := WithMetadata(CodeConcurrencyConflict, "stale version", map[string]string{
		"expected": "3",
		"actual":   "4",
	})

	st, ok := status.FromError(err.ToGRPCStatus())
	if !ok {
		t.Fatal("expected a gRPC status error")
	}
	if st.Code() != codes.Aborted {
		t.Fatalf("expected Aborted, got %v", st.Code())
	}
	if st.Message() != "stale version" {
		t.Fatalf("expected internal message, got %q", st.Message())
	}
	if len(st.Details()) == 0 {
		t.Fatal("expected errdetails to be attached")
	}
}
