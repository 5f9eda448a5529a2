package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"

	ports "github.com/ZanzyTHEbar/misim/misim/oracle/ports"
	"google.golang.org/genai"
)

// GeminiProvider implements Provider on the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini backed provider.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("gemini: model is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Name() string { return "gemini:" + p.model }

// Complete issues one GenerateContent call.
func (p *GeminiProvider) Complete(ctx context.Context, in ports.PromptInput, opts ports.Options) (ports.Completion, error) {
	contents := make([]*genai.Content, 0, len(in.Messages))
	for _, m := range in.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == ports.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(opts.Temperature),
	}
	if opts.TopP > 0 {
		cfg.TopP = genai.Ptr(opts.TopP)
	}
	if opts.MaxNewTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxNewTokens)
	}
	if opts.Format == ports.FormatJSON {
		cfg.ResponseMIMEType = "application/json"
	}
	if strings.TrimSpace(in.System) != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: in.System}}}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return ports.Completion{}, p.wrapError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return ports.Completion{}, fmt.Errorf("gemini: empty response")
	}

	completion := ports.Completion{
		Text: strings.TrimSpace(resp.Text()),
		Raw:  resp,
	}
	if u := resp.UsageMetadata; u != nil {
		completion.Usage = &ports.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return completion, nil
}

// wrapError maps API failures onto StatusError so callers can classify them.
func (p *GeminiProvider) wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ports.StatusError{Provider: p.Name(), StatusCode: apiErr.Code, Body: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &ports.StatusError{Provider: p.Name(), StatusCode: apiErrPtr.Code, Body: apiErrPtr.Message}
	}
	return fmt.Errorf("gemini: %w", err)
}

var _ ports.Provider = (*GeminiProvider)(nil)
