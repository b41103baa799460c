package conversation

import (
	"context"
	"errors"
	"fmt"

	"statement_analyst/pkg/core/calc"
	"statement_analyst/pkg/core/llm"
)

var (
	// ErrChatNotActivated is returned by Ask before a summary was produced
	// for the current upload.
	ErrChatNotActivated = errors.New("CHAT_NOT_ACTIVATED: request the analysis first")
	ErrEmptyQuestion    = errors.New("EMPTY_QUESTION: question must not be blank")
)

// UnknownError carries any failure that is neither a schema, credential nor
// remote API error. The original message is preserved.
type UnknownError struct {
	Err error
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("UNKNOWN_ERROR: %v", e.Err)
}

func (e *UnknownError) Unwrap() error {
	return e.Err
}

// Kind names the error class for API responses.
type Kind string

const (
	KindSchema     Kind = "schema"
	KindCredential Kind = "credential"
	KindAPI        Kind = "api"
	KindCanceled   Kind = "canceled"
	KindUsage      Kind = "usage"
	KindUnknown    Kind = "unknown"
)

// Classify maps err onto the error taxonomy.
func Classify(err error) Kind {
	var (
		schemaErr *calc.SchemaError
		credErr   *llm.CredentialError
		apiErr    *llm.APIError
	)
	switch {
	case errors.As(err, &schemaErr):
		return KindSchema
	case errors.As(err, &credErr):
		return KindCredential
	case errors.As(err, &apiErr):
		return KindAPI
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, ErrChatNotActivated), errors.Is(err, ErrEmptyQuestion):
		return KindUsage
	default:
		return KindUnknown
	}
}

// wrapUnknown leaves classified errors alone and wraps the rest.
func wrapUnknown(err error) error {
	if err == nil || Classify(err) != KindUnknown {
		return err
	}
	var unknown *UnknownError
	if errors.As(err, &unknown) {
		return err
	}
	return &UnknownError{Err: err}
}

// errorTurn is the assistant text recorded in place of a failed reply.
func errorTurn(err error) string {
	if Classify(err) == KindAPI {
		return fmt.Sprintf("LLM API call failed during chat: %v", err)
	}
	return fmt.Sprintf("An unexpected error occurred during chat: %v", err)
}
