package azureopenai

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/deepnoodle-ai/lmnodes/llm"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var _ llm.LLM = &ChatModel{}

// ChatModel is the chat model handle supplied to downstream nodes. It calls
// the Chat Completions API of one Azure deployment.
type ChatModel struct {
	client openai.Client
	config ClientConfig
}

// NewChatModel builds the client described by config.
func NewChatModel(config ClientConfig) *ChatModel {
	return &ChatModel{
		client: openai.NewClient(config.requestOptions()...),
		config: config,
	}
}

func (m *ChatModel) Name() string {
	return "azure-openai-" + m.config.Deployment
}

// Deployment returns the Azure deployment name.
func (m *ChatModel) Deployment() string {
	return m.config.Deployment
}

// ModelKwargs returns the extra request body fields, or nil.
func (m *ChatModel) ModelKwargs() map[string]any {
	return m.config.ModelKwargs
}

func (m *ChatModel) Timeout() time.Duration {
	return m.config.Timeout
}

func (m *ChatModel) MaxRetries() int {
	return m.config.MaxRetries
}

// Config returns the merged configuration the model was built from.
func (m *ChatModel) Config() ClientConfig {
	return m.config
}

func (m *ChatModel) Generate(ctx context.Context, messages []*llm.Message, opts ...llm.Option) (*llm.Response, error) {
	config := &llm.Config{}
	config.Apply(opts...)

	if len(messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}
	msgs, err := convertMessages(messages)
	if err != nil {
		return nil, fmt.Errorf("error converting messages: %w", err)
	}
	if config.SystemPrompt != "" {
		msgs = append([]openai.ChatCompletionMessageParamUnion{openai.SystemMessage(config.SystemPrompt)}, msgs...)
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(m.config.Deployment),
		Messages: msgs,
	}
	m.applySampling(&params, config)

	var reqOpts []option.RequestOption
	for _, key := range slices.Sorted(maps.Keys(m.config.ModelKwargs)) {
		reqOpts = append(reqOpts, option.WithJSONSet(key, m.config.ModelKwargs[key]))
	}

	completion, err := m.client.Chat.Completions.New(ctx, params, reqOpts...)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty response from deployment %q", m.config.Deployment)
	}
	choice := completion.Choices[0]
	return &llm.Response{
		ID:         completion.ID,
		Model:      completion.Model,
		Role:       llm.Assistant,
		Content:    choice.Message.Content,
		StopReason: string(choice.FinishReason),
		Usage: llm.Usage{
			InputTokens:     int(completion.Usage.PromptTokens),
			OutputTokens:    int(completion.Usage.CompletionTokens),
			ReasoningTokens: int(completion.Usage.CompletionTokensDetails.ReasoningTokens),
		},
	}, nil
}

// applySampling sets the sampling parameters. Per-call settings win over
// the node options.
func (m *ChatModel) applySampling(params *openai.ChatCompletionNewParams, config *llm.Config) {
	c := m.config
	if c.FrequencyPenalty != nil {
		params.FrequencyPenalty = openai.Float(*c.FrequencyPenalty)
	}
	if c.PresencePenalty != nil {
		params.PresencePenalty = openai.Float(*c.PresencePenalty)
	}
	if c.TopP != nil {
		params.TopP = openai.Float(*c.TopP)
	}
	if config.Temperature != nil {
		params.Temperature = openai.Float(*config.Temperature)
	} else if c.Temperature != nil {
		params.Temperature = openai.Float(*c.Temperature)
	}
	if config.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*config.MaxTokens))
	} else if c.MaxTokens != nil && *c.MaxTokens > 0 {
		params.MaxTokens = openai.Int(*c.MaxTokens)
	}
}

func convertMessages(messages []*llm.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for i, message := range messages {
		if message.Content == "" {
			return nil, fmt.Errorf("empty message detected (index %d)", i)
		}
		switch message.Role {
		case llm.System:
			msgs = append(msgs, openai.SystemMessage(message.Content))
		case llm.User:
			msgs = append(msgs, openai.UserMessage(message.Content))
		case llm.Assistant:
			msgs = append(msgs, openai.AssistantMessage(message.Content))
		default:
			return nil, fmt.Errorf("unknown message role %q (index %d)", message.Role, i)
		}
	}
	return msgs, nil
}
