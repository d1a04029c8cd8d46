package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/deepnoodle-ai/lmnodes/node"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

// ErrMissingAccessToken is returned when an OAuth2 credential has not been
// connected yet.
var ErrMissingAccessToken = errors.New("no access token available")

// defaultTokenLifetime is assumed when the token data carries no expiry.
const defaultTokenLifetime = time.Hour

// TokenProvider returns the bearer token for a request.
type TokenProvider func(ctx context.Context) (string, error)

// OAuth2Config authenticates with a Microsoft Entra ID access token.
type OAuth2Config struct {
	Connection
	TokenProvider TokenProvider

	// ExpiresOn is when the token stops being valid.
	ExpiresOn time.Time
}

func (c *OAuth2Config) modelConfig() {}

// RequestOptions implements ModelConfig.
func (c *OAuth2Config) RequestOptions() []option.RequestOption {
	return []option.RequestOption{
		c.endpointOption(),
		azure.WithTokenCredential(&tokenCredential{provider: c.TokenProvider, expiresOn: c.ExpiresOn}),
	}
}

// tokenCredential adapts a TokenProvider to azcore.TokenCredential.
type tokenCredential struct {
	provider  TokenProvider
	expiresOn time.Time
}

func (c *tokenCredential) GetToken(ctx context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	token, err := c.provider(ctx)
	if err != nil {
		return azcore.AccessToken{}, err
	}
	return azcore.AccessToken{Token: token, ExpiresOn: c.expiresOn}, nil
}

type tokenData struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type oauth2Credentials struct {
	connectionFields
	OAuthTokenData *tokenData `json:"oauthTokenData"`
}

// SetupOAuth2 reads an Entra ID credential (fields resourceName, apiVersion,
// endpoint and the connected oauthTokenData). The token is captured once
// and served by the returned config's TokenProvider.
func SetupOAuth2(ctx context.Context, fn node.SupplyDataFunctions, credentialType string) (*OAuth2Config, error) {
	var creds oauth2Credentials
	if err := load(ctx, fn, credentialType, &creds); err != nil {
		return nil, err
	}
	if creds.OAuthTokenData == nil || creds.OAuthTokenData.AccessToken == "" {
		return nil, fmt.Errorf("%w for %s credentials; reconnect the account", ErrMissingAccessToken, credentialType)
	}
	lifetime := defaultTokenLifetime
	if creds.OAuthTokenData.ExpiresIn > 0 {
		lifetime = time.Duration(creds.OAuthTokenData.ExpiresIn) * time.Second
	}
	token := creds.OAuthTokenData.AccessToken
	return &OAuth2Config{
		Connection: creds.connection(),
		TokenProvider: func(context.Context) (string, error) {
			return token, nil
		},
		ExpiresOn: time.Now().Add(lifetime),
	}, nil
}

// OAuth2 is the Strategy form of SetupOAuth2.
func OAuth2(ctx context.Context, fn node.SupplyDataFunctions, credentialType string) (ModelConfig, error) {
	config, err := SetupOAuth2(ctx, fn, credentialType)
	if err != nil {
		return nil, err
	}
	return config, nil
}
