package llm

import (
	"fmt"
	"strings"
)

// CredentialError means no API key is configured for a provider.
// It is reported before any network call is attempted.
type CredentialError struct {
	Provider string
	EnvVar   string
}

func (e *CredentialError) Error() string {
	if e.EnvVar == "" {
		return fmt.Sprintf("%s_API_KEY_MISSING: no API key configured for %s", strings.ToUpper(e.Provider), e.Provider)
	}
	return fmt.Sprintf("%s_API_KEY_MISSING: please set %s", strings.ToUpper(e.Provider), e.EnvVar)
}

// APIError wraps a failed remote call.
type APIError struct {
	Provider string
	Status   int // HTTP status when known
	Err      error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s_API_ERROR: status=%d: %v", strings.ToUpper(e.Provider), e.Status, e.Err)
	}
	return fmt.Sprintf("%s_API_ERROR: %v", strings.ToUpper(e.Provider), e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func apiError(provider string, err error) error {
	return &APIError{Provider: provider, Err: err}
}

func checkKey(provider, key, envVar string) error {
	if key == "" {
		return &CredentialError{Provider: provider, EnvVar: envVar}
	}
	return nil
}
