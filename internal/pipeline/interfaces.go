package pipeline

import "context"

// Extractor performs one extraction call against a language model and
// returns the raw response body. It makes no retry decisions of its own;
// Client wraps it in the retry policy.
// This interface enables mocking and testing of the remote call.
type Extractor interface {
	Extract(ctx context.Context, text string) (string, error)
}

// GeminiExtractor is the concrete Extractor backed by the Gemini API.
type GeminiExtractor struct {
	apiKey string
	model  string
}

// NewGeminiExtractor creates a GeminiExtractor. An empty model selects
// DefaultModelName.
func NewGeminiExtractor(apiKey, model string) *GeminiExtractor {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiExtractor{
		apiKey: apiKey,
		model:  model,
	}
}

// Extract delegates to extractWithModel.
func (g *GeminiExtractor) Extract(ctx context.Context, text string) (string, error) {
	return extractWithModel(ctx, g.apiKey, g.model, text)
}
