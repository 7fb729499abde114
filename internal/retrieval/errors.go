package retrieval

import (
	"fmt"

	"github.com/studyq-platform/studyq/internal/tokens"
)

// InputError rejects a request before any stage runs. Nothing is charged.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "invalid request: " + e.Reason
}

// InsufficientTokensError is the expected outcome of a charge the balance
// cannot cover. The balance is unchanged.
type InsufficientTokensError struct {
	Operation tokens.Operation
	Required  int
	Available int
}

func (e *InsufficientTokensError) Error() string {
	return fmt.Sprintf("insufficient tokens for %s: %d required, %d available", e.Operation, e.Required, e.Available)
}

// RetrievalFault is an operational failure at Stage. Tokens already charged
// stay charged.
type RetrievalFault struct {
	Stage State
	Err   error
}

func (e *RetrievalFault) Error() string {
	return fmt.Sprintf("retrieval failed at %s: %v", e.Stage, e.Err)
}

func (e *RetrievalFault) Unwrap() error {
	return e.Err
}
