package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tendant/simple-translate-pipeline/internal/schema"
)

// OpenAIProvider talks to an OpenAI-compatible chat-completions endpoint.
type OpenAIProvider struct {
	baseURL      string
	defaultModel string
	http         *resty.Client
}

const defaultOpenAIBaseURL = "https://api.openai.com"

// NewOpenAIProvider creates the provider. baseURL may be empty (api.openai.com)
// or point at any compatible endpoint.
func NewOpenAIProvider(baseURL, defaultModel string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIProvider{
		baseURL:      strings.TrimRight(baseURL, "/"),
		defaultModel: defaultModel,
		http:         resty.New().SetTimeout(60 * time.Second),
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Model string `json:"model"`
}

// Translate invokes the chat-completions endpoint and validates the reply.
// Every failure path is converted to a failure Outcome; this method never
// panics or returns errors across the gateway boundary.
func (p *OpenAIProvider) Translate(ctx context.Context, content map[string]any, validator *schema.Validator, opts Options) Outcome {
	start := time.Now()
	elapsed := func() int64 { return time.Since(start).Milliseconds() }

	system, user, err := BuildPrompts(content, opts)
	if err != nil {
		return failure(FailureProvider, err.Error(), elapsed())
	}

	model := opts.Model
	if model == "" {
		model = p.defaultModel
	}

	body := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature":     opts.Temperature,
		"response_format": map[string]string{"type": "json_object"},
	}

	var parsed chatResponse
	resp, err := p.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+opts.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&parsed).
		Post(p.baseURL + "/v1/chat/completions")
	if err != nil {
		return failure(FailureProvider, fmt.Sprintf("request failed: %v", err), elapsed())
	}
	if resp.IsError() {
		return failure(FailureProvider, fmt.Sprintf("unexpected status %s: %s", resp.Status(), abbreviate(resp.String(), 500)), elapsed())
	}
	if len(parsed.Choices) == 0 {
		return failure(FailureProvider, "empty response: no choices returned", elapsed())
	}

	reply := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if reply == "" {
		return failure(FailureProvider, "empty response: blank message content", elapsed())
	}

	translated, err := ExtractJSON(reply)
	if err != nil {
		return failure(FailureParse, fmt.Sprintf("failed to parse reply: %v; content: %s", err, abbreviate(reply, 500)), elapsed())
	}

	if err := validator.Validate(translated); err != nil {
		return failure(FailureValidation, fmt.Sprintf("reply failed schema validation: %v", err), elapsed())
	}

	respModel := parsed.Model
	if respModel == "" {
		respModel = model
	}

	return Outcome{
		Success: true,
		Content: translated,
		Model:   respModel,
		Usage: &Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
		},
		DurationMs: elapsed(),
	}
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
