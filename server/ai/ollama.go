package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"github.com/studysense/studysense/server/pipeline"
)

// OllamaTimeout bounds every call to the local inference endpoint. A call
// exceeding it counts as a backend failure and triggers fallback.
const OllamaTimeout = 120 * time.Second

// Local-tier chunking parameters: slightly smaller than the cloud tier to
// fit local model context windows.
var ollamaMultiPass = MultiPassConfig{
	ChunkChars:   2400,
	ChunkOverlap: 200,
	MaxChunks:    8,
	Concurrency:  2,
}

// OllamaProvider is the local-network adapter. It talks to a self-hosted
// Ollama instance through its OpenAI-compatible endpoint, so image
// attachments travel as base64 data-URL parts.
type OllamaProvider struct {
	client *openai.Client
	model  string
}

var _ Provider = (*OllamaProvider)(nil)
var _ Generator = (*OllamaProvider)(nil)

// NewOllamaProvider configures the adapter against baseURL, e.g.
// "http://127.0.0.1:11434".
func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	config := openai.DefaultConfig("ollama")
	config.BaseURL = strings.TrimRight(baseURL, "/") + "/v1"
	config.HTTPClient = &http.Client{Timeout: OllamaTimeout}
	return &OllamaProvider{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Name implements Provider.
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Generate implements Generator with a text-only request.
func (p *OllamaProvider) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	return p.complete(ctx, temperature, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
}

func (p *OllamaProvider) complete(ctx context.Context, temperature float32, messages ...openai.ChatCompletionMessage) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return "", classifyOpenAIError(p.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return "", &RecoverableError{Provider: p.Name(), Err: errors.New("empty response")}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &RecoverableError{Provider: p.Name(), Err: errors.New("empty response")}
	}
	return text, nil
}

// classifyOpenAIError maps API errors onto the fallback taxonomy. Status
// 400 means the request itself was malformed; everything else (auth,
// quota, rate limit, server errors, timeouts) is recoverable on another
// tier.
func classifyOpenAIError(provider string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusBadRequest {
		return NewClientInputError("%s rejected the request: %v", provider, apiErr.Message)
	}
	return &RecoverableError{Provider: provider, Err: err}
}

// Summarize implements Provider via the multi-pass protocol.
func (p *OllamaProvider) Summarize(ctx context.Context, transcript string) (pipeline.StructuredSummary, error) {
	cleaned := pipeline.CleanTranscript(transcript)

	result, err := RunMultiPass(ctx, p, cleaned, ollamaMultiPass)
	if err != nil {
		return pipeline.StructuredSummary{}, err
	}
	if result.Data == nil {
		return pipeline.StructuredSummary{}, &ParseError{
			Provider: p.Name(), Err: errors.New("summary response is not a JSON object")}
	}

	summary := pipeline.ValidateSummary(NormalizeSummary(result.Data), cleaned)
	if summary.IsEmpty() {
		return pipeline.StructuredSummary{}, &ParseError{
			Provider: p.Name(), Err: errors.New("generated summary is empty")}
	}
	return summary, nil
}

// Chat implements Provider.
func (p *OllamaProvider) Chat(ctx context.Context, message string, summary pipeline.StructuredSummary,
	history []pipeline.ChatMessage, contextChunks []string) (string, error) {
	return p.Generate(ctx, BuildChatPrompt(summary, message, history, contextChunks), 0.3)
}

// GenerateMCQs implements Provider.
func (p *OllamaProvider) GenerateMCQs(ctx context.Context, summary pipeline.StructuredSummary,
	contextChunks []string) ([]pipeline.MCQItem, error) {
	value, err := GenerateJSON(ctx, p, BuildMCQPrompt(summary, contextChunks), 0.3)
	if err != nil {
		return nil, err
	}
	return normalizeMCQList(p.Name(), value)
}

// SolveOrChat implements Provider. Images are sent as a base64 data URL
// alongside the text prompt.
func (p *OllamaProvider) SolveOrChat(ctx context.Context, req SolveRequest) (string, error) {
	prompt := BuildSolverPrompt(req.Message, req.History)

	if !req.HasImage() {
		return p.Generate(ctx, prompt, 0.3)
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s",
		req.ImageMIMEType, base64.StdEncoding.EncodeToString(req.ImageBytes))

	return p.complete(ctx, 0.3, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
		},
	})
}
