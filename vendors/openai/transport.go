package openai

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/deepnoodle-ai/lmnodes/internal/httpproxy"
	"github.com/deepnoodle-ai/lmnodes/log"
	"github.com/deepnoodle-ai/lmnodes/node"
	"github.com/go-playground/validator/v10"
	openaigo "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// CredentialType is the credential the vendor node authenticates with.
	CredentialType = "openAiApi"

	DefaultBaseURL = "https://api.openai.com/v1"
)

// Host is the part of the host API the transport needs. Both
// node.SupplyDataFunctions and node.LoadOptionsFunctions satisfy it.
type Host interface {
	Credentials(ctx context.Context, credentialType string) (node.Credentials, error)
}

// RequestOptions adjusts a single API request.
type RequestOptions struct {
	Query   map[string]string
	Headers map[string]string

	// Body is encoded as the JSON request body.
	Body any

	// HTTPClient replaces the process-wide proxy-aware client.
	HTTPClient *http.Client
}

type apiCredentials struct {
	APIKey         string `json:"apiKey" validate:"required"`
	OrganizationID string `json:"organizationId"`
	URL            string `json:"url" validate:"omitempty,url"`
	Header         bool   `json:"header"`
	HeaderName     string `json:"headerName" validate:"required_if=Header true"`
	HeaderValue    string `json:"headerValue"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *apiCredentials) baseURL() string {
	base := c.URL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

func (c *apiCredentials) clientOptions(httpClient *http.Client) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(c.APIKey),
		option.WithBaseURL(c.baseURL()),
		option.WithHeader("OpenAI-Beta", "assistants=v2"),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if c.OrganizationID != "" {
		opts = append(opts, option.WithOrganization(c.OrganizationID))
	}
	if c.Header {
		opts = append(opts, option.WithHeader(c.HeaderName, c.HeaderValue))
	}
	return opts
}

// APIRequest sends one request to the vendor API using the openAiApi
// credentials and decodes the JSON response into result. The endpoint is
// relative to the credential's base URL, e.g. "/files". The client does not
// retry and API errors are returned as *openai.Error. Requests are logged to
// the logger carried by ctx.
func APIRequest(ctx context.Context, fn Host, method, endpoint string, opts RequestOptions, result any) error {
	creds, err := fn.Credentials(ctx, CredentialType)
	if err != nil {
		return err
	}
	var apiCreds apiCredentials
	if err := creds.Decode(&apiCreds); err != nil {
		return fmt.Errorf("invalid %s credentials: %w", CredentialType, err)
	}
	if err := validate.Struct(&apiCreds); err != nil {
		return fmt.Errorf("invalid %s credentials: %w", CredentialType, err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = httpproxy.Client()
	}
	client := openaigo.NewClient(apiCreds.clientOptions(httpClient)...)

	var reqOpts []option.RequestOption
	for _, key := range sortedKeys(opts.Query) {
		reqOpts = append(reqOpts, option.WithQuery(key, opts.Query[key]))
	}
	for _, key := range sortedKeys(opts.Headers) {
		reqOpts = append(reqOpts, option.WithHeader(key, opts.Headers[key]))
	}

	path := strings.TrimPrefix(endpoint, "/")
	log.Ctx(ctx).Debug("openai api request", "method", method, "path", path)
	return client.Execute(ctx, method, path, opts.Body, result, reqOpts...)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
