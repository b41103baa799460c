package conversation

import (
	"fmt"
	"strings"

	"statement_analyst/pkg/core/llm"
	"statement_analyst/pkg/core/prompt"
)

// Mode selects which kind of request ComposeRequest builds.
type Mode int

const (
	// ModeSummary is the one-shot commentary. No transcript is sent.
	ModeSummary Mode = iota
	// ModeChat replays the preamble and the whole transcript every turn.
	ModeChat
)

func (m Mode) String() string {
	switch m {
	case ModeSummary:
		return "summary"
	case ModeChat:
		return "chat"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ComposeRequest builds a request with the default prompt library.
func ComposeRequest(context string, transcript []llm.Message, newUserTurn string, mode Mode) (llm.Request, error) {
	return ComposeRequestWith(prompt.Get(), context, transcript, newUserTurn, mode)
}

// ComposeRequestWith builds a request from the prompts in r.
//
// ModeSummary ignores transcript and newUserTurn. ModeChat sends the preamble
// as the system instruction, then transcript in order, then newUserTurn.
func ComposeRequestWith(r *prompt.Registry, context string, transcript []llm.Message, newUserTurn string, mode Mode) (llm.Request, error) {
	switch mode {
	case ModeSummary:
		text, err := r.SummaryPrompt(context)
		if err != nil {
			return llm.Request{}, fmt.Errorf("failed to render summary prompt: %w", err)
		}
		return llm.Request{
			Messages: []llm.Message{{Role: llm.RoleUser, Content: text}},
		}, nil

	case ModeChat:
		if strings.TrimSpace(newUserTurn) == "" {
			return llm.Request{}, ErrEmptyQuestion
		}
		preamble, err := r.ChatPreamble(context)
		if err != nil {
			return llm.Request{}, fmt.Errorf("failed to render chat preamble: %w", err)
		}
		messages := make([]llm.Message, 0, len(transcript)+1)
		messages = append(messages, transcript...)
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: newUserTurn})
		return llm.Request{
			SystemInstruction: preamble,
			Messages:          messages,
		}, nil
	}
	return llm.Request{}, fmt.Errorf("unknown request mode %v", mode)
}
