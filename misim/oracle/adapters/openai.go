package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ports "github.com/ZanzyTHEbar/misim/misim/oracle/ports"
)

// OpenAIConfig configures an OpenAI-compatible chat completions backend.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIProvider talks to any OpenAI-compatible /chat/completions endpoint.
// It performs exactly one request per call; retries belong to the caller.
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	Temperature    float32               `json:"temperature"`
	TopP           float32               `json:"top_p,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIProvider creates a provider from config.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key not configured")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai: model not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}

	return &OpenAIProvider{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

func (p *OpenAIProvider) Name() string { return "openai:" + p.model }

// Complete sends one chat completion request.
func (p *OpenAIProvider) Complete(ctx context.Context, in ports.PromptInput, opts ports.Options) (ports.Completion, error) {
	reqBody := openAIRequest{
		Model:       p.model,
		Messages:    toOpenAIMessages(in),
		MaxTokens:   opts.MaxNewTokens,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
	}
	if opts.Format == ports.FormatJSON {
		reqBody.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return ports.Completion{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return ports.Completion{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return ports.Completion{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ports.Completion{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return ports.Completion{}, &ports.StatusError{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), 512),
		}
	}

	var out openAIResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return ports.Completion{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if out.Error != nil {
		return ports.Completion{}, fmt.Errorf("API error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return ports.Completion{}, fmt.Errorf("no completion returned")
	}

	completion := ports.Completion{
		Text: strings.TrimSpace(out.Choices[0].Message.Content),
		Raw:  out,
	}
	if out.Usage != nil {
		completion.Usage = &ports.Usage{
			PromptTokens:     out.Usage.PromptTokens,
			CompletionTokens: out.Usage.CompletionTokens,
			TotalTokens:      out.Usage.TotalTokens,
		}
	}
	return completion, nil
}

func toOpenAIMessages(in ports.PromptInput) []openAIMessage {
	msgs := make([]openAIMessage, 0, len(in.Messages)+1)
	if strings.TrimSpace(in.System) != "" {
		msgs = append(msgs, openAIMessage{Role: string(ports.RoleSystem), Content: in.System})
	}
	for _, m := range in.Messages {
		msgs = append(msgs, openAIMessage{Role: string(m.Role), Content: m.Content})
	}
	return msgs
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ ports.Provider = (*OpenAIProvider)(nil)
