package credentials

import (
	"context"

	"github.com/deepnoodle-ai/lmnodes/node"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

// APIKeyConfig authenticates with a resource key.
type APIKeyConfig struct {
	Connection
	APIKey string
}

func (c *APIKeyConfig) modelConfig() {}

// RequestOptions implements ModelConfig.
func (c *APIKeyConfig) RequestOptions() []option.RequestOption {
	return []option.RequestOption{
		c.endpointOption(),
		azure.WithAPIKey(c.APIKey),
	}
}

type apiKeyCredentials struct {
	connectionFields
	APIKey string `json:"apiKey" validate:"required"`
}

// SetupAPIKey reads an API key credential (fields apiKey, resourceName,
// apiVersion, endpoint).
func SetupAPIKey(ctx context.Context, fn node.SupplyDataFunctions, credentialType string) (*APIKeyConfig, error) {
	var creds apiKeyCredentials
	if err := load(ctx, fn, credentialType, &creds); err != nil {
		return nil, err
	}
	return &APIKeyConfig{
		Connection: creds.connection(),
		APIKey:     creds.APIKey,
	}, nil
}

// APIKey is the Strategy form of SetupAPIKey.
func APIKey(ctx context.Context, fn node.SupplyDataFunctions, credentialType string) (ModelConfig, error) {
	config, err := SetupAPIKey(ctx, fn, credentialType)
	if err != nil {
		return nil, err
	}
	return config, nil
}
