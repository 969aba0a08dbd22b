// Package ai defines the text generation surface used by learned field scorers.
package ai

import "context"

// Generator sends a prompt to a language model and returns its text reply.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// ProviderGemini is the only generator backend currently wired.
const ProviderGemini = "gemini"
