// Package azureopenai implements the Azure OpenAI chat model node. At run
// time it resolves the selected credentials and supplies a [ChatModel]
// bound to one deployment. While the form renders it populates the
// reasoning effort dropdown for the entered deployment name.
package azureopenai

import (
	"context"
	_ "embed"
	"net/http"

	"github.com/deepnoodle-ai/lmnodes/internal/httpproxy"
	"github.com/deepnoodle-ai/lmnodes/llms"
	"github.com/deepnoodle-ai/lmnodes/log"
	"github.com/deepnoodle-ai/lmnodes/node"
)

//go:embed description.yaml
var descriptionYAML []byte

var description = node.MustParseDescription(descriptionYAML)

var (
	_ node.SupplyDataType  = &Node{}
	_ node.LoadOptionsType = &Node{}
)

// Node is the Azure OpenAI chat model node type.
type Node struct {
	metrics         *llms.Metrics
	httpClient      *http.Client
	onFailedAttempt llms.FailedAttemptHandler
}

// Option configures a Node.
type Option func(*Node)

// WithMetrics records model traffic in m.
func WithMetrics(m *llms.Metrics) Option {
	return func(n *Node) {
		n.metrics = m
	}
}

// WithHTTPClient replaces the process-wide proxy-aware client.
func WithHTTPClient(client *http.Client) Option {
	return func(n *Node) {
		n.httpClient = client
	}
}

// WithFailedAttemptHandler runs handler before the default failed-attempt
// handling.
func WithFailedAttemptHandler(handler llms.FailedAttemptHandler) Option {
	return func(n *Node) {
		n.onFailedAttempt = handler
	}
}

// New returns the node type.
func New(opts ...Option) *Node {
	n := &Node{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Node) Description() *node.Description {
	return description
}

// SupplyData builds the chat model for one item. Errors are returned as
// *node.OperationError.
func (n *Node) SupplyData(ctx context.Context, fn node.SupplyDataFunctions, itemIndex int) (*node.SupplyData, error) {
	ctx = log.WithLogger(ctx, fn.Logger())
	model, err := n.supplyData(ctx, fn, itemIndex)
	if err != nil {
		fn.Logger().Error("error in azure openai supply data", "error", err)
		return nil, node.WrapError(fn.Node(), "Failed to initialize Azure OpenAI client", err)
	}
	return &node.SupplyData{Response: model}, nil
}

func (n *Node) supplyData(ctx context.Context, fn node.SupplyDataFunctions, itemIndex int) (*ChatModel, error) {
	logger := fn.Logger()

	method, err := node.StringParameter(fn, "authentication", itemIndex)
	if err != nil {
		return nil, err
	}
	authType, ok := ParseAuthenticationType(method)
	if !ok {
		return nil, node.NewOperationError(fn.Node(), "Invalid authentication method", nil)
	}
	auth := authentications[authType]

	deployment, err := node.StringParameter(fn, "model", itemIndex)
	if err != nil {
		return nil, err
	}
	rawOptions, err := fn.NodeParameter("options", itemIndex, node.WithFallback(map[string]any{}))
	if err != nil {
		return nil, err
	}
	options, err := DecodeOptions(rawOptions)
	if err != nil {
		return nil, err
	}

	modelConfig, err := auth.setup(ctx, fn, auth.credentialType)
	if err != nil {
		return nil, err
	}

	logger.Info("instantiating azure openai chat model", "deployment", deployment)

	httpClient := n.httpClient
	if httpClient == nil {
		httpClient = httpproxy.Client()
	}
	config := NewClientConfig(deployment, modelConfig, options, Forced{
		HTTPClient:      httpClient,
		Tracing:         llms.NewTracing(fn, llms.WithTracingMetrics(n.metrics)),
		OnFailedAttempt: llms.MakeFailedAttemptHandler(fn, n.onFailedAttempt),
		Metrics:         n.metrics,
		NodeName:        fn.Node().Name,
	})
	model := NewChatModel(config)

	logger.Info("azure openai client initialized", "deployment", deployment)
	return model, nil
}

func (n *Node) LoadOptionsMethods() map[string]node.LoadOptionsMethod {
	return map[string]node.LoadOptionsMethod{
		"getReasoningEffortOptions": getReasoningEffortOptions,
	}
}

// getReasoningEffortOptions offers Minimal only for deployments whose name
// starts with "gpt-5".
func getReasoningEffortOptions(_ context.Context, fn node.LoadOptionsFunctions) ([]node.PropertyOption, error) {
	deployment, _ := node.LookupString(fn, "model")
	return llms.ReasoningEffortOptions(supportsMinimalReasoning(deployment)), nil
}
