package llm

// Response is a model reply.
type Response struct {
	ID         string `json:"id"`
	Model      string `json:"model"`
	Role       Role   `json:"role"`
	Content    string `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      Usage  `json:"usage"`
}
