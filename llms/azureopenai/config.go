package azureopenai

import (
	"net/http"
	"regexp"
	"time"

	"github.com/deepnoodle-ai/lmnodes/llms"
	"github.com/deepnoodle-ai/lmnodes/llms/azureopenai/credentials"
	"github.com/openai/openai-go/option"
)

const (
	DefaultTimeout    = 60 * time.Second
	DefaultMaxRetries = 2
)

// Deployment names of models that accept the "minimal" reasoning effort.
// Matching is case-sensitive.
var minimalReasoningDeployment = regexp.MustCompile(`^gpt-5.*`)

func supportsMinimalReasoning(deployment string) bool {
	return minimalReasoningDeployment.MatchString(deployment)
}

// ClientConfig is everything a ChatModel is built from. NewClientConfig
// fills it in layers, each overriding the one before:
//
//  1. authentication: endpoint, API version, key or token
//  2. user options: sampling parameters, timeout and retry overrides
//  3. forced values: timeout and retry defaults, tracing, the HTTP client,
//     the model kwargs and the failed-attempt handler
type ClientConfig struct {
	Deployment string
	Auth       credentials.ModelConfig

	FrequencyPenalty *float64
	PresencePenalty  *float64
	Temperature      *float64
	TopP             *float64
	MaxTokens        *int64

	Timeout    time.Duration
	MaxRetries int

	// ModelKwargs are extra request body fields. Nil when there are none.
	ModelKwargs map[string]any

	HTTPClient      *http.Client
	Tracing         *llms.Tracing
	OnFailedAttempt llms.FailedAttemptHandler
	Metrics         *llms.Metrics
	NodeName        string
}

// Forced holds the values applied last by NewClientConfig.
type Forced struct {
	HTTPClient      *http.Client
	Tracing         *llms.Tracing
	OnFailedAttempt llms.FailedAttemptHandler
	Metrics         *llms.Metrics
	NodeName        string
}

// NewClientConfig merges the authentication config, the user options and
// the forced values for a deployment.
func NewClientConfig(deployment string, auth credentials.ModelConfig, options Options, forced Forced) ClientConfig {
	config := ClientConfig{
		Deployment: deployment,
		Auth:       auth,
	}

	config.FrequencyPenalty = options.FrequencyPenalty
	config.PresencePenalty = options.PresencePenalty
	config.Temperature = options.Temperature
	config.TopP = options.TopP
	config.MaxTokens = options.MaxTokens

	config.Timeout = DefaultTimeout
	if options.Timeout != nil {
		config.Timeout = time.Duration(*options.Timeout) * time.Millisecond
	}
	config.MaxRetries = DefaultMaxRetries
	if options.MaxRetries != nil {
		config.MaxRetries = *options.MaxRetries
	}
	config.ModelKwargs = BuildModelKwargs(deployment, options)
	config.HTTPClient = forced.HTTPClient
	config.Tracing = forced.Tracing
	config.OnFailedAttempt = forced.OnFailedAttempt
	config.Metrics = forced.Metrics
	config.NodeName = forced.NodeName
	return config
}

// BuildModelKwargs returns the extra request body fields for the options:
// response_format when a format is chosen, and reasoning_effort when the
// effort is recognized. "minimal" is dropped for deployments that do not
// support it. Returns nil when no field applies.
func BuildModelKwargs(deployment string, options Options) map[string]any {
	kwargs := map[string]any{}
	if options.ResponseFormat != "" {
		kwargs["response_format"] = map[string]any{"type": options.ResponseFormat}
	}
	effort := llms.ReasoningEffort(options.ReasoningEffort)
	if effort.IsValid() {
		if effort != llms.ReasoningEffortMinimal || supportsMinimalReasoning(deployment) {
			kwargs["reasoning_effort"] = string(effort)
		}
	}
	if len(kwargs) == 0 {
		return nil
	}
	return kwargs
}

// requestOptions turns the config into openai-go client options.
func (c ClientConfig) requestOptions() []option.RequestOption {
	var opts []option.RequestOption
	if c.Auth != nil {
		opts = append(opts, c.Auth.RequestOptions()...)
	}
	if c.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(c.HTTPClient))
	}
	opts = append(opts,
		option.WithRequestTimeout(c.Timeout),
		option.WithMaxRetries(c.MaxRetries),
	)
	if c.Tracing != nil {
		opts = append(opts, option.WithMiddleware(c.Tracing.Middleware()))
	}
	if c.OnFailedAttempt != nil {
		opts = append(opts, option.WithMiddleware(
			llms.FailedAttemptMiddleware(c.OnFailedAttempt, c.MaxRetries, c.Metrics, c.NodeName)))
	}
	return opts
}
