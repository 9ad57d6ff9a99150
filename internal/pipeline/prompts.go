package pipeline

import (
	"fmt"

	"google.golang.org/genai"
)

// systemInstruction constrains the model to the four-field transaction array.
const systemInstruction = "You are an expert accountant. Your job is to extract financial transactions " +
	"from unstructured WhatsApp conversations.\n" +
	"- Identify the currency as a short code (e.g. USD for dollars, TRY for Turkish lira, SYP for Syrian pounds).\n" +
	"- Give the amount as a plain positive number; never encode direction in its sign.\n" +
	"- type: INCOMING (owed to us / received), OUTGOING (owed by us / paid), or UNKNOWN when unclear.\n" +
	"- description: a short label for the transaction, may be empty.\n" +
	"- Return ONLY a JSON array of objects with exactly the fields currency, amount, type, description.\n" +
	"- Return an empty array when the text contains no transactions."

// buildUserPrompt wraps the raw text the user pasted.
func buildUserPrompt(text string) string {
	return fmt.Sprintf("Analyze the following financial text taken from a WhatsApp chat "+
		"and extract the transactions clearly:\n\nText: %q", text)
}

// transactionArraySchema declares the required response shape: an array of
// objects with four required fields.
func transactionArraySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"currency":    {Type: genai.TypeString},
				"amount":      {Type: genai.TypeNumber},
				"type":        {Type: genai.TypeString},
				"description": {Type: genai.TypeString},
			},
			Required: []string{"currency", "amount", "type", "description"},
		},
	}
}
