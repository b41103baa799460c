package llm

import (
	"context"
	"iter"
	"strings"
)

// Role is the speaker of a message as stored in our transcripts.
// Providers map RoleAssistant to their own model-speaker role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one provider-agnostic conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is everything a provider needs for one call. SystemInstruction is
// sent out of band (system prompt); Messages are replayed in order.
type Request struct {
	Model             string // optional override of the provider default
	SystemInstruction string
	Messages          []Message
	Temperature       float32
}

// Provider is the interface for all LLM providers.
type Provider interface {
	Name() string
	// CheckCredential fails with *CredentialError when no API key is
	// configured. It never touches the network.
	CheckCredential() error
	// GenerateResponse returns the full reply text.
	GenerateResponse(ctx context.Context, req *Request) (string, error)
	// StreamResponse yields reply fragments in order. The sequence is finite
	// and not restartable; a failure is delivered as a final non-nil error.
	StreamResponse(ctx context.Context, req *Request) iter.Seq2[string, error]
}

// Collect drains a fragment stream into a single string. On error it returns
// whatever arrived before the failure together with the error.
func Collect(seq iter.Seq2[string, error]) (string, error) {
	var b strings.Builder
	for frag, err := range seq {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(frag)
	}
	return b.String(), nil
}

// Single turns a one-shot prompt into a request.
func Single(prompt string) *Request {
	return &Request{Messages: []Message{{Role: RoleUser, Content: prompt}}}
}
