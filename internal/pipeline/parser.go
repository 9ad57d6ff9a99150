package pipeline

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// extractWithModel sends the pasted text to Gemini with the transaction
// schema and returns the response body as-is.
// A fresh client is constructed per call so a key change takes effect on the
// next attempt.
func extractWithModel(ctx context.Context, apiKey, model, text string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("extractWithModel: create genai client: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  responseMIMEType,
		ResponseSchema:    transactionArraySchema(),
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(buildUserPrompt(text)), cfg)
	if err != nil {
		return "", fmt.Errorf("extractWithModel: generate content: %w", err)
	}

	return resp.Text(), nil
}
