package llm

// Usage contains token usage information for an LLM response.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	// ReasoningTokens is the part of OutputTokens spent on hidden reasoning.
	ReasoningTokens int `json:"reasoning_tokens,omitempty"`
}
