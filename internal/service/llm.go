package service

import "context"

// GenerateRequest is a single chat-completion call.
type GenerateRequest struct {
	System string
	Prompt string
}

// GenerateResult carries the model output and token usage.
type GenerateResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// LLMClient produces text completions.
type LLMClient interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// EmbeddingClient produces vector embeddings for text.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}
