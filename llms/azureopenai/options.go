package azureopenai

import (
	"fmt"

	"github.com/deepnoodle-ai/lmnodes/llms/azureopenai/credentials"
	"github.com/deepnoodle-ai/lmnodes/node"
)

// AuthenticationType selects how the node authenticates with Azure. Its
// value is also the credential type the strategy reads.
type AuthenticationType string

const (
	AuthenticationAPIKey      AuthenticationType = "azureOpenAiApi"
	AuthenticationEntraOAuth2 AuthenticationType = "azureEntraCognitiveServicesOAuth2Api"
)

// authentication is one supported authentication mode and the strategy that
// resolves its credentials.
type authentication struct {
	credentialType string
	setup          credentials.Strategy
}

var authentications = map[AuthenticationType]authentication{
	AuthenticationAPIKey: {
		credentialType: string(AuthenticationAPIKey),
		setup:          credentials.APIKey,
	},
	AuthenticationEntraOAuth2: {
		credentialType: string(AuthenticationEntraOAuth2),
		setup:          credentials.OAuth2,
	},
}

var authenticationAliases = map[string]AuthenticationType{
	"ApiKey":      AuthenticationAPIKey,
	"EntraOAuth2": AuthenticationEntraOAuth2,
}

// ParseAuthenticationType accepts the credential type names and the short
// mode names ApiKey and EntraOAuth2.
func ParseAuthenticationType(value string) (AuthenticationType, bool) {
	if alias, ok := authenticationAliases[value]; ok {
		return alias, true
	}
	t := AuthenticationType(value)
	if _, ok := authentications[t]; !ok {
		return "", false
	}
	return t, true
}

// Options is the node's "options" collection. Unset fields are nil or
// empty and leave the client defaults in place.
type Options struct {
	FrequencyPenalty *float64 `json:"frequencyPenalty,omitempty"`

	// MaxTokens of -1 means no limit.
	MaxTokens       *int64   `json:"maxTokens,omitempty"`
	PresencePenalty *float64 `json:"presencePenalty,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`

	// ResponseFormat is "text" or "json_object".
	ResponseFormat  string `json:"responseFormat,omitempty"`
	ReasoningEffort string `json:"reasoningEffort,omitempty"`

	// Timeout is in milliseconds.
	Timeout    *int64 `json:"timeout,omitempty"`
	MaxRetries *int   `json:"maxRetries,omitempty"`
}

// DecodeOptions converts the raw "options" parameter into Options.
func DecodeOptions(raw any) (Options, error) {
	var options Options
	switch v := raw.(type) {
	case nil:
		return options, nil
	case Options:
		return v, nil
	case *Options:
		if v != nil {
			options = *v
		}
		return options, nil
	}
	if err := node.Decode(raw, &options); err != nil {
		return Options{}, fmt.Errorf("invalid options: %w", err)
	}
	return options, nil
}
