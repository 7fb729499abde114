package llm

import "context"

// Response is the text a provider produced plus the token usage it reported.
type Response struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Provider is the language-model collaborator. Implementations must honour
// ctx cancellation so callers can bound each call with a timeout.
type Provider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (Response, error)
}
