package llm

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultClaudeModel     = "claude-sonnet-4-20250514"
	defaultClaudeMaxTokens = 2048
)

// ClaudeProvider implements Provider on Anthropic's Messages API.
type ClaudeProvider struct {
	Model       string
	APIKey      string
	APIKeyEnv   string
	MaxTokens   int
	Temperature float32
}

var _ Provider = (*ClaudeProvider)(nil)

func (p *ClaudeProvider) Name() string { return "claude" }

func (p *ClaudeProvider) CheckCredential() error {
	return checkKey(p.Name(), p.APIKey, p.APIKeyEnv)
}

func (p *ClaudeProvider) client() anthropic.Client {
	return anthropic.NewClient(option.WithAPIKey(p.APIKey))
}

func (p *ClaudeProvider) GenerateResponse(ctx context.Context, req *Request) (string, error) {
	if err := p.CheckCredential(); err != nil {
		return "", err
	}

	client := p.client()
	resp, err := client.Messages.New(ctx, p.params(req))
	if err != nil {
		return "", apiError(p.Name(), fmt.Errorf("claude message failed: %w", err))
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}

func (p *ClaudeProvider) StreamResponse(ctx context.Context, req *Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := p.CheckCredential(); err != nil {
			yield("", err)
			return
		}

		client := p.client()
		stream := client.Messages.NewStreaming(ctx, p.params(req))
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()
			delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			text, ok := delta.Delta.AsAny().(anthropic.TextDelta)
			if !ok || text.Text == "" {
				continue
			}
			if !yield(text.Text, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield("", apiError(p.Name(), fmt.Errorf("claude stream failed: %w", err)))
		}
	}
}

func (p *ClaudeProvider) params(req *Request) anthropic.MessageNewParams {
	model := req.Model
	if model == "" {
		model = p.Model
	}
	if model == "" {
		model = defaultClaudeModel
	}
	maxTokens := p.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  toClaudeMessages(req.Messages),
	}

	temp := req.Temperature
	if temp <= 0 {
		temp = p.Temperature
	}
	if temp > 0 {
		params.Temperature = anthropic.Float(float64(temp))
	}
	if req.SystemInstruction != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemInstruction}}
	}
	return params
}

func toClaudeMessages(messages []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
			continue
		}
		out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
	}
	return out
}
