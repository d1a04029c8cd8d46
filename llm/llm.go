package llm

import "context"

// LLM is a chat model that can generate a response to a conversation.
type LLM interface {
	// Name identifies the provider and model, e.g. "azure-openai-gpt-4o".
	Name() string

	// Generate returns the model's reply to messages.
	Generate(ctx context.Context, messages []*Message, opts ...Option) (*Response, error)
}
