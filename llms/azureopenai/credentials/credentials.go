// Package credentials resolves stored Azure OpenAI credentials into the
// connection settings of a chat model client. There is one strategy per
// authentication mode: API key and Microsoft Entra ID OAuth2.
package credentials

import (
	"context"
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/lmnodes/log"
	"github.com/deepnoodle-ai/lmnodes/node"
	"github.com/go-playground/validator/v10"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

// DefaultAPIVersion is used when the credential does not name one.
const DefaultAPIVersion = "2025-03-01-preview"

// Strategy resolves the credentials of the given type into a ModelConfig.
type Strategy func(ctx context.Context, fn node.SupplyDataFunctions, credentialType string) (ModelConfig, error)

// ModelConfig is the connection configuration produced by a Strategy. The
// set of implementations is closed: *APIKeyConfig and *OAuth2Config.
type ModelConfig interface {
	// BaseURL is the resource endpoint, e.g. https://my-resource.openai.azure.com.
	BaseURL() string

	// RequestOptions returns the client options that address and
	// authenticate requests.
	RequestOptions() []option.RequestOption

	modelConfig()
}

// Connection holds the settings shared by every authentication mode.
type Connection struct {
	InstanceName string
	APIVersion   string
	Endpoint     string
}

// BaseURL returns the explicit endpoint, or the default endpoint of the
// named resource.
func (c Connection) BaseURL() string {
	if c.Endpoint != "" {
		return strings.TrimRight(c.Endpoint, "/")
	}
	return fmt.Sprintf("https://%s.openai.azure.com", c.InstanceName)
}

func (c Connection) endpointOption() option.RequestOption {
	return azure.WithEndpoint(c.BaseURL(), c.APIVersion)
}

// connectionFields are the credential fields common to both modes.
type connectionFields struct {
	ResourceName string `json:"resourceName" validate:"required_without=Endpoint"`
	APIVersion   string `json:"apiVersion"`
	Endpoint     string `json:"endpoint" validate:"omitempty,url"`
}

func (f connectionFields) connection() Connection {
	version := f.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	return Connection{
		InstanceName: f.ResourceName,
		APIVersion:   version,
		Endpoint:     f.Endpoint,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// load fetches and decodes the credentials of credentialType into v, then
// validates v.
func load(ctx context.Context, fn node.SupplyDataFunctions, credentialType string, v any) error {
	log.Ctx(ctx).Debug("resolving credentials", "type", credentialType)
	creds, err := fn.Credentials(ctx, credentialType)
	if err != nil {
		return err
	}
	if err := creds.Decode(v); err != nil {
		return fmt.Errorf("invalid %s credentials: %w", credentialType, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid %s credentials: %w", credentialType, err)
	}
	return nil
}
