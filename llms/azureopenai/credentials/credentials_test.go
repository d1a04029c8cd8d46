package credentials

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/deepnoodle-ai/lmnodes/log"
	"github.com/deepnoodle-ai/lmnodes/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hostWith(credentialType string, creds node.Credentials) *node.Context {
	return &node.Context{
		NodeInfo:         &node.Node{Name: "Azure OpenAI Chat Model"},
		CredentialSource: node.StaticCredentials{credentialType: creds},
	}
}

func TestSetupAPIKey(t *testing.T) {
	host := hostWith("azureOpenAiApi", node.Credentials{
		"apiKey":       "secret",
		"resourceName": "my-resource",
	})
	config, err := SetupAPIKey(context.Background(), host, "azureOpenAiApi")
	require.NoError(t, err)
	assert.Equal(t, "secret", config.APIKey)
	assert.Equal(t, "my-resource", config.InstanceName)
	assert.Equal(t, DefaultAPIVersion, config.APIVersion)
	assert.Equal(t, "https://my-resource.openai.azure.com", config.BaseURL())
	assert.Len(t, config.RequestOptions(), 2)
}

func TestSetupAPIKeyEndpointOverride(t *testing.T) {
	host := hostWith("azureOpenAiApi", node.Credentials{
		"apiKey":     "secret",
		"apiVersion": "2024-10-21",
		"endpoint":   "https://proxy.example.com/",
	})
	config, err := SetupAPIKey(context.Background(), host, "azureOpenAiApi")
	require.NoError(t, err)
	assert.Equal(t, "2024-10-21", config.APIVersion)
	assert.Equal(t, "https://proxy.example.com", config.BaseURL())
}

func TestSetupAPIKeyValidation(t *testing.T) {
	ctx := context.Background()

	_, err := SetupAPIKey(ctx, hostWith("azureOpenAiApi", node.Credentials{"resourceName": "r"}), "azureOpenAiApi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid azureOpenAiApi credentials")
	assert.Contains(t, err.Error(), "APIKey")

	_, err = SetupAPIKey(ctx, hostWith("azureOpenAiApi", node.Credentials{"apiKey": "k"}), "azureOpenAiApi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ResourceName")

	_, err = SetupAPIKey(ctx, hostWith("other", node.Credentials{}), "azureOpenAiApi")
	assert.ErrorIs(t, err, node.ErrCredentialsNotFound)
}

func TestSetupOAuth2StringTypedTokenData(t *testing.T) {
	host := hostWith("azureEntraCognitiveServicesOAuth2Api", node.Credentials{
		"resourceName": "my-resource",
		"oauthTokenData": map[string]any{
			"access_token": "entra-token",
			"expires_in":   "3599",
		},
	})
	config, err := SetupOAuth2(context.Background(), host, "azureEntraCognitiveServicesOAuth2Api")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(3599*time.Second), config.ExpiresOn, time.Minute)
}

func TestSetupLogsToContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(log.Options{Writer: &buf, Level: log.LevelDebug})
	ctx := log.WithLogger(context.Background(), logger)

	host := hostWith("azureOpenAiApi", node.Credentials{"apiKey": "secret", "resourceName": "r"})
	_, err := SetupAPIKey(ctx, host, "azureOpenAiApi")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "resolving credentials")
	assert.Contains(t, buf.String(), "azureOpenAiApi")
}

func TestSetupOAuth2(t *testing.T) {
	host := hostWith("azureEntraCognitiveServicesOAuth2Api", node.Credentials{
		"resourceName": "my-resource",
		"oauthTokenData": map[string]any{
			"access_token": "entra-token",
			"expires_in":   600,
		},
	})
	ctx := context.Background()
	config, err := SetupOAuth2(ctx, host, "azureEntraCognitiveServicesOAuth2Api")
	require.NoError(t, err)
	assert.Equal(t, "https://my-resource.openai.azure.com", config.BaseURL())
	assert.Equal(t, DefaultAPIVersion, config.APIVersion)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), config.ExpiresOn, time.Minute)

	token, err := config.TokenProvider(ctx)
	require.NoError(t, err)
	assert.Equal(t, "entra-token", token)

	cred := &tokenCredential{provider: config.TokenProvider, expiresOn: config.ExpiresOn}
	access, err := cred.GetToken(ctx, policy.TokenRequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, "entra-token", access.Token)
	assert.Equal(t, config.ExpiresOn, access.ExpiresOn)
}

func TestSetupOAuth2MissingToken(t *testing.T) {
	ctx := context.Background()
	for name, creds := range map[string]node.Credentials{
		"no token data": {"resourceName": "r"},
		"empty token":   {"resourceName": "r", "oauthTokenData": map[string]any{"access_token": ""}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := SetupOAuth2(ctx, hostWith("entra", creds), "entra")
			assert.ErrorIs(t, err, ErrMissingAccessToken)
		})
	}
}

func TestStrategies(t *testing.T) {
	ctx := context.Background()
	host := &node.Context{CredentialSource: node.StaticCredentials{
		"key":   {"apiKey": "k", "resourceName": "r"},
		"entra": {"resourceName": "r", "oauthTokenData": map[string]any{"access_token": "t"}},
	}}

	var strategy Strategy = APIKey
	config, err := strategy(ctx, host, "key")
	require.NoError(t, err)
	assert.IsType(t, &APIKeyConfig{}, config)

	strategy = OAuth2
	config, err = strategy(ctx, host, "entra")
	require.NoError(t, err)
	assert.IsType(t, &OAuth2Config{}, config)

	config, err = strategy(ctx, host, "missing")
	require.Error(t, err)
	assert.Nil(t, config)
}
