package ai

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/studysense/studysense/server/pipeline"
)

// Cloud-tier chunking parameters.
var geminiMultiPass = MultiPassConfig{
	ChunkChars:   2500,
	ChunkOverlap: 240,
	MaxChunks:    10,
	Concurrency:  4,
}

// GeminiProvider is the cloud adapter. It is constructed once, dependency
// injected, and safe for concurrent use.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

var _ Provider = (*GeminiProvider)(nil)
var _ Generator = (*GeminiProvider)(nil)

// NewGeminiProvider dials the Gemini API. The API key is required.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrap(err, "gemini: failed to create client")
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// Close releases the underlying client connection.
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// Name implements Provider.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) generativeModel(temperature float32) *genai.GenerativeModel {
	model := p.client.GenerativeModel(p.model)
	model.SetTemperature(temperature)
	model.SetTopP(0.9)
	return model
}

// Generate implements Generator with a text-only request.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	return p.generateParts(ctx, temperature, genai.Text(prompt))
}

func (p *GeminiProvider) generateParts(ctx context.Context, temperature float32, parts ...genai.Part) (string, error) {
	resp, err := p.generativeModel(temperature).GenerateContent(ctx, parts...)
	if err != nil {
		return "", &RecoverableError{Provider: p.Name(), Err: err}
	}
	text := firstCandidateText(resp)
	if text == "" {
		return "", &RecoverableError{Provider: p.Name(), Err: errors.New("empty response")}
	}
	return text, nil
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			builder.WriteString(string(text))
		}
	}
	return strings.TrimSpace(builder.String())
}

// Summarize implements Provider via the multi-pass protocol. An
// unrecoverable protocol error triggers one plain single-shot retry
// before giving up.
func (p *GeminiProvider) Summarize(ctx context.Context, transcript string) (pipeline.StructuredSummary, error) {
	cleaned := pipeline.CleanTranscript(transcript)

	result, err := RunMultiPass(ctx, p, cleaned, geminiMultiPass)
	data := result.Data
	if err != nil || data == nil {
		data, err = generateObject(ctx, p, BuildSummaryPrompt(cleaned), 0.2)
		if err != nil {
			return pipeline.StructuredSummary{}, err
		}
		if data == nil {
			return pipeline.StructuredSummary{}, &ParseError{
				Provider: p.Name(), Err: errors.New("summary response is not a JSON object")}
		}
	}

	summary := pipeline.ValidateSummary(NormalizeSummary(data), cleaned)
	if summary.IsEmpty() {
		return pipeline.StructuredSummary{}, &ParseError{
			Provider: p.Name(), Err: errors.New("generated summary is empty")}
	}
	return summary, nil
}

// Chat implements Provider.
func (p *GeminiProvider) Chat(ctx context.Context, message string, summary pipeline.StructuredSummary,
	history []pipeline.ChatMessage, contextChunks []string) (string, error) {
	return p.Generate(ctx, BuildChatPrompt(summary, message, history, contextChunks), 0.35)
}

// GenerateMCQs implements Provider.
func (p *GeminiProvider) GenerateMCQs(ctx context.Context, summary pipeline.StructuredSummary,
	contextChunks []string) ([]pipeline.MCQItem, error) {
	value, err := GenerateJSON(ctx, p, BuildMCQPrompt(summary, contextChunks), 0.3)
	if err != nil {
		return nil, err
	}
	return normalizeMCQList(p.Name(), value)
}

// SolveOrChat implements Provider. Image-grounded requests attach the
// image as an inline blob; when multimodal generation fails the adapter
// retries text-only with an explicit note that the image could not be
// processed.
func (p *GeminiProvider) SolveOrChat(ctx context.Context, req SolveRequest) (string, error) {
	prompt := BuildSolverPrompt(req.Message, req.History)

	if req.HasImage() {
		answer, err := p.generateParts(ctx, 0.3,
			genai.Text(prompt),
			genai.Blob{MIMEType: req.ImageMIMEType, Data: req.ImageBytes},
		)
		if err == nil {
			return answer, nil
		}
		fallbackPrompt := prompt +
			"\n\nThe uploaded image could not be processed. " +
			"Explain what is possible from text and request a clearer re-upload if needed."
		return p.Generate(ctx, fallbackPrompt, 0.3)
	}

	return p.Generate(ctx, prompt, 0.3)
}

// normalizeMCQList coerces an extracted payload into exactly 5 MCQs.
func normalizeMCQList(provider string, value any) ([]pipeline.MCQItem, error) {
	var rawItems []any
	switch v := value.(type) {
	case map[string]any:
		rawItems, _ = v["mcqs"].([]any)
	case []any:
		rawItems = v
	}
	if len(rawItems) == 0 {
		return nil, &ParseError{Provider: provider, Err: errors.New("MCQ response is empty")}
	}

	var normalized []pipeline.MCQItem
	for _, raw := range rawItems {
		if item, ok := raw.(map[string]any); ok {
			normalized = append(normalized, NormalizeMCQItem(item))
		}
	}
	if len(normalized) < 5 {
		return nil, &ParseError{Provider: provider, Err: errors.Errorf(
			"model produced %d MCQs, need 5", len(normalized))}
	}
	return normalized[:5], nil
}
