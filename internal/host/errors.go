package host

import (
	"errors"
	"fmt"
)

// RuntimeError represents a failure detected while the host is executing
// or verifying the journal.
//
// Runtime errors include:
//   - Storage failure: the journal or slot row could not be written
//   - Replay divergence: the journal does not reproduce the persisted state
//   - Host stopped: a call was submitted after shutdown
//
// RuntimeError includes structured fields for diagnostics.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Token identifies the affected account token, if any.
	Token string

	// CallID identifies the affected call, if any.
	CallID string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeStorage indicates a journal or slot write failed.
	ErrCodeStorage RuntimeErrorCode = "STORAGE_FAILURE"

	// ErrCodeReplayDivergence indicates replay did not reproduce the
	// persisted receipts or slot value.
	ErrCodeReplayDivergence RuntimeErrorCode = "REPLAY_DIVERGENCE"

	// ErrCodeStopped indicates the host is no longer accepting calls.
	ErrCodeStopped RuntimeErrorCode = "HOST_STOPPED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Token != "" && e.CallID != "" {
		return fmt.Sprintf("%s: %s (token=%s, call=%s)", e.Code, e.Message, e.Token, e.CallID)
	}
	if e.Token != "" {
		return fmt.Sprintf("%s: %s (token=%s)", e.Code, e.Message, e.Token)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsReplayDivergence returns true if the error is a replay divergence.
// Uses errors.As to handle wrapped errors.
func IsReplayDivergence(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeReplayDivergence
	}
	return false
}

// NewStorageError wraps a storage failure for a specific call.
func NewStorageError(token, callID string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeStorage,
		Message: err.Error(),
		Token:   token,
		CallID:  callID,
	}
}

// NewStoppedError reports a call submitted after the host shut down.
func NewStoppedError(token string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeStopped,
		Message: "host is not accepting calls",
		Token:   token,
	}
}
