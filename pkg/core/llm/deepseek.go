package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
)

const defaultDeepSeekURL = "https://api.deepseek.com/chat/completions"

// DeepSeekProvider talks to the OpenAI-compatible DeepSeek chat endpoint.
type DeepSeekProvider struct {
	Model       string
	APIKey      string
	APIKeyEnv   string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	HTTPClient  *http.Client
}

var _ Provider = (*DeepSeekProvider)(nil)

// DeepSeekRequest mirrors the chat completions request body.
type DeepSeekRequest struct {
	Messages       []deepSeekMessage `json:"messages"`
	Model          string            `json:"model"`
	Thinking       *ThinkingParam    `json:"thinking,omitempty"`
	MaxTokens      int               `json:"max_tokens"`
	ResponseFormat ResponseFormat    `json:"response_format"`
	Stream         bool              `json:"stream"`
	Temperature    float64           `json:"temperature"`
	TopP           float64           `json:"top_p"`
}

type deepSeekMessage struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type ThinkingParam struct {
	Type string `json:"type"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type DeepSeekResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type deepSeekChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (p *DeepSeekProvider) Name() string { return "deepseek" }

func (p *DeepSeekProvider) CheckCredential() error {
	return checkKey(p.Name(), p.APIKey, p.APIKeyEnv)
}

func (p *DeepSeekProvider) GenerateResponse(ctx context.Context, req *Request) (string, error) {
	if err := p.CheckCredential(); err != nil {
		return "", err
	}

	res, err := p.do(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", apiError(p.Name(), fmt.Errorf("DEEPSEEK_READ_BODY_ERROR: %w", err))
	}

	var response DeepSeekResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", apiError(p.Name(), fmt.Errorf("DEEPSEEK_UNMARSHAL_ERROR: %w", err))
	}
	if len(response.Choices) == 0 {
		return "", apiError(p.Name(), fmt.Errorf("DEEPSEEK_NO_CHOICES: %s", string(body)))
	}
	return response.Choices[0].Message.Content, nil
}

// StreamResponse reads the server-sent event stream ("data: {...}" lines,
// terminated by "data: [DONE]").
func (p *DeepSeekProvider) StreamResponse(ctx context.Context, req *Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := p.CheckCredential(); err != nil {
			yield("", err)
			return
		}

		res, err := p.do(ctx, req, true)
		if err != nil {
			yield("", err)
			return
		}
		defer res.Body.Close()

		scanner := bufio.NewScanner(res.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				return
			}

			var chunk deepSeekChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				yield("", apiError(p.Name(), fmt.Errorf("DEEPSEEK_UNMARSHAL_ERROR: %w", err)))
				return
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			if !yield(chunk.Choices[0].Delta.Content, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", apiError(p.Name(), fmt.Errorf("DEEPSEEK_STREAM_ERROR: %w", err)))
		}
	}
}

// do sends the request and returns the response when the status is 200.
func (p *DeepSeekProvider) do(ctx context.Context, req *Request, stream bool) (*http.Response, error) {
	model := req.Model
	if model == "" {
		model = p.Model
	}
	if model == "" {
		model = "deepseek-chat"
	}
	maxTokens := p.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	temp := req.Temperature
	if temp <= 0 {
		temp = p.Temperature
	}
	if temp <= 0 {
		temp = 1.0
	}

	messages := make([]deepSeekMessage, 0, len(req.Messages)+1)
	if req.SystemInstruction != "" {
		messages = append(messages, deepSeekMessage{Content: req.SystemInstruction, Role: "system"})
	}
	for _, m := range req.Messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "assistant"
		}
		messages = append(messages, deepSeekMessage{Content: m.Content, Role: role})
	}

	reqBody := DeepSeekRequest{
		Messages:       messages,
		Model:          model,
		Thinking:       &ThinkingParam{Type: "disabled"},
		MaxTokens:      maxTokens,
		ResponseFormat: ResponseFormat{Type: "text"},
		Stream:         stream,
		Temperature:    float64(temp),
		TopP:           1.0,
	}

	jsonBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("DEEPSEEK_MARSHAL_ERROR: %w", err)
	}

	url := p.BaseURL
	if url == "" {
		url = defaultDeepSeekURL
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBytes))
	if err != nil {
		return nil, fmt.Errorf("DEEPSEEK_REQ_CREATE_ERROR: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	} else {
		httpReq.Header.Set("Accept", "application/json")
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)

	client := p.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(httpReq)
	if err != nil {
		return nil, apiError(p.Name(), fmt.Errorf("DEEPSEEK_API_CALL_ERROR: %w", err))
	}
	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		res.Body.Close()
		return nil, &APIError{Provider: p.Name(), Status: res.StatusCode, Err: fmt.Errorf("%s", strings.TrimSpace(string(body)))}
	}
	return res, nil
}
