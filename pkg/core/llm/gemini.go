package llm

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements the Provider interface for Google's Gemini models.
type GeminiProvider struct {
	Model       string // e.g. "gemini-2.5-flash"
	APIKey      string
	APIKeyEnv   string
	Temperature float32

	mu     sync.Mutex
	client *genai.Client
}

// Ensure interface compliance
var _ Provider = (*GeminiProvider)(nil)

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) CheckCredential() error {
	return checkKey(p.Name(), p.APIKey, p.APIKeyEnv)
}

// getClient lazily creates the GenAI client once the key is known to exist.
func (p *GeminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	if err := p.CheckCredential(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, apiError(p.Name(), fmt.Errorf("failed to create GenAI client: %w", err))
	}
	p.client = client
	return client, nil
}

// GenerateResponse sends a generateContent request with the replayed transcript.
func (p *GeminiProvider) GenerateResponse(ctx context.Context, req *Request) (string, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		return "", err
	}

	result, err := client.Models.GenerateContent(ctx, p.model(req), toGeminiContents(req.Messages), p.config(req))
	if err != nil {
		return "", apiError(p.Name(), fmt.Errorf("gemini generation failed: %w", err))
	}
	return result.Text(), nil
}

// StreamResponse yields the text of each streamed chunk.
func (p *GeminiProvider) StreamResponse(ctx context.Context, req *Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		client, err := p.getClient(ctx)
		if err != nil {
			yield("", err)
			return
		}

		stream := client.Models.GenerateContentStream(ctx, p.model(req), toGeminiContents(req.Messages), p.config(req))
		for chunk, err := range stream {
			if err != nil {
				yield("", apiError(p.Name(), fmt.Errorf("gemini stream failed: %w", err)))
				return
			}
			text := chunk.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

func (p *GeminiProvider) model(req *Request) string {
	if req.Model != "" {
		return req.Model
	}
	if p.Model != "" {
		return p.Model
	}
	return defaultGeminiModel
}

func (p *GeminiProvider) config(req *Request) *genai.GenerateContentConfig {
	temp := req.Temperature
	if temp <= 0 {
		temp = p.Temperature
	}

	config := &genai.GenerateContentConfig{}
	if temp > 0 {
		config.Temperature = genai.Ptr(temp)
	}
	if req.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	return config
}

// toGeminiContents maps stored roles onto Gemini's: assistant turns become
// the model speaker, everything else is sent as user.
func toGeminiContents(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := genai.RoleUser
		if msg.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		})
	}
	return contents
}
