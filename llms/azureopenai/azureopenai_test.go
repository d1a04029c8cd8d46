package azureopenai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/deepnoodle-ai/lmnodes/llm"
	"github.com/deepnoodle-ai/lmnodes/llms"
	"github.com/deepnoodle-ai/lmnodes/llms/azureopenai/credentials"
	"github.com/deepnoodle-ai/lmnodes/node"
	"github.com/openai/openai-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completionBody = `{
  "id": "chatcmpl-42",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-5-mini",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Hi there"}}],
  "usage": {"prompt_tokens": 9, "completion_tokens": 4, "total_tokens": 13, "completion_tokens_details": {"reasoning_tokens": 2}}
}`

type recordedRequest struct {
	Path       string
	APIVersion string
	APIKey     string
	Body       map[string]any
}

// fakeAzure serves chat completions, answering with the queued statuses
// before succeeding.
type fakeAzure struct {
	mu       sync.Mutex
	requests []recordedRequest
	statuses []int
}

func (f *fakeAzure) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(data, &body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Path:       r.URL.Path,
		APIVersion: r.URL.Query().Get("api-version"),
		APIKey:     r.Header.Get("Api-Key"),
		Body:       body,
	})
	status := http.StatusOK
	if len(f.statuses) > 0 {
		status, f.statuses = f.statuses[0], f.statuses[1:]
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After-Ms", "1")
	w.WriteHeader(status)
	if status == http.StatusOK {
		_, _ = io.WriteString(w, completionBody)
		return
	}
	_, _ = io.WriteString(w, `{"error":{"message":"request failed","type":"invalid_request_error"}}`)
}

func (f *fakeAzure) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

// countingSource counts credential lookups.
type countingSource struct {
	node.StaticCredentials
	calls int
}

func (s *countingSource) Get(credentialType string) (node.Credentials, error) {
	s.calls++
	return s.StaticCredentials.Get(credentialType)
}

func newHost(endpoint string, params map[string]any) (*node.Context, *countingSource) {
	source := &countingSource{StaticCredentials: node.StaticCredentials{
		"azureOpenAiApi": {
			"apiKey":       "test-key",
			"resourceName": "my-resource",
			"endpoint":     endpoint,
		},
		"azureEntraCognitiveServicesOAuth2Api": {
			"resourceName":   "my-resource",
			"oauthTokenData": map[string]any{"access_token": "entra-token"},
		},
	}}
	return &node.Context{
		NodeInfo:         &node.Node{Name: "Azure OpenAI Chat Model", Type: "lmChatAzureOpenAi"},
		Parameters:       params,
		CredentialSource: source,
	}, source
}

func supplyModel(t *testing.T, n *Node, host *node.Context) *ChatModel {
	t.Helper()
	data, err := n.SupplyData(context.Background(), host, 0)
	require.NoError(t, err)
	model, ok := data.Response.(*ChatModel)
	require.True(t, ok, "unexpected response type %T", data.Response)
	return model
}

func TestDescription(t *testing.T) {
	desc := New().Description()
	assert.Equal(t, "lmChatAzureOpenAi", desc.Name)
	assert.Equal(t, []node.ConnectionType{node.ConnectionAILanguageModel}, desc.Outputs)
	require.Len(t, desc.Credentials, 2)
	assert.True(t, desc.Credentials[0].Required)

	effort, ok := desc.Property("reasoningEffort")
	require.True(t, ok)
	assert.Equal(t, "getReasoningEffortOptions", effort.TypeOptions.LoadOptionsMethod)
	assert.Equal(t, []string{"model"}, effort.TypeOptions.LoadOptionsDependsOn)

	registered, ok := node.Lookup("lmChatAzureOpenAi")
	require.True(t, ok)
	assert.IsType(t, &Node{}, registered)
}

func TestSupplyDataGenerate(t *testing.T) {
	server := &fakeAzure{}
	srv := httptest.NewServer(server)
	defer srv.Close()

	host, _ := newHost(srv.URL, map[string]any{
		"authentication": "azureOpenAiApi",
		"model":          "gpt-5-mini",
		"options": map[string]any{
			"reasoningEffort":  "minimal",
			"responseFormat":   "json_object",
			"temperature":      0.2,
			"frequencyPenalty": 0.5,
			"maxTokens":        -1,
			"timeout":          30000,
			"maxRetries":       1,
		},
	})
	reg := prometheus.NewRegistry()
	model := supplyModel(t, New(WithMetrics(llms.NewMetrics(reg))), host)

	assert.Equal(t, "gpt-5-mini", model.Deployment())
	assert.Equal(t, 30*time.Second, model.Timeout())
	assert.Equal(t, 1, model.MaxRetries())
	assert.Equal(t, map[string]any{
		"response_format":  map[string]any{"type": "json_object"},
		"reasoning_effort": "minimal",
	}, model.ModelKwargs())

	response, err := model.Generate(context.Background(),
		[]*llm.Message{llm.NewUserMessage("Hello")},
		llm.WithSystemPrompt("Be brief"))
	require.NoError(t, err)
	assert.Equal(t, "Hi there", response.Content)
	assert.Equal(t, "stop", response.StopReason)
	assert.Equal(t, llm.Usage{InputTokens: 9, OutputTokens: 4, ReasoningTokens: 2}, response.Usage)

	requests := server.Requests()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, "/openai/deployments/gpt-5-mini/chat/completions", req.Path)
	assert.Equal(t, credentials.DefaultAPIVersion, req.APIVersion)
	assert.Equal(t, "test-key", req.APIKey)
	assert.Equal(t, "minimal", req.Body["reasoning_effort"])
	assert.Equal(t, map[string]any{"type": "json_object"}, req.Body["response_format"])
	assert.Equal(t, 0.2, req.Body["temperature"])
	assert.Equal(t, 0.5, req.Body["frequency_penalty"])
	assert.NotContains(t, req.Body, "max_tokens")
	messages := req.Body["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])

	runs := host.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, node.ConnectionAILanguageModel, runs[0].Connection)
	assert.NoError(t, runs[0].Err)
	count, err := testutil.GatherAndCount(reg, "lmnodes_llm_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSupplyDataDefaults(t *testing.T) {
	host, _ := newHost("https://example.openai.azure.com", map[string]any{
		"authentication": "azureOpenAiApi",
		"model":          "gpt-4o",
	})
	model := supplyModel(t, New(), host)
	assert.Equal(t, DefaultTimeout, model.Timeout())
	assert.Equal(t, DefaultMaxRetries, model.MaxRetries())
	assert.Nil(t, model.ModelKwargs())
	assert.IsType(t, &credentials.APIKeyConfig{}, model.Config().Auth)
}

func TestSupplyDataStringTypedOptions(t *testing.T) {
	host, _ := newHost("https://example.openai.azure.com", map[string]any{
		"authentication": "azureOpenAiApi",
		"model":          "gpt-4o",
		"options": map[string]any{
			"timeout":     "30000",
			"maxRetries":  "5",
			"temperature": "0.2",
		},
	})
	model := supplyModel(t, New(), host)
	assert.Equal(t, 30*time.Second, model.Timeout())
	assert.Equal(t, 5, model.MaxRetries())
	require.NotNil(t, model.Config().Temperature)
	assert.Equal(t, 0.2, *model.Config().Temperature)
}

func TestSupplyDataReasoningEffort(t *testing.T) {
	tests := []struct {
		name           string
		authentication string
		model          string
		effort         string
		want           map[string]any
	}{
		{"minimal dropped for gpt-4", "EntraOAuth2", "gpt-4", "minimal", nil},
		{"minimal kept for gpt-5", "EntraOAuth2", "gpt-5-preview", "minimal", map[string]any{"reasoning_effort": "minimal"}},
		{"minimal match is case sensitive", "azureOpenAiApi", "GPT-5", "minimal", nil},
		{"high kept for any model", "ApiKey", "o3-mini", "high", map[string]any{"reasoning_effort": "high"}},
		{"unknown effort ignored", "azureOpenAiApi", "gpt-5", "extreme", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, _ := newHost("https://example.openai.azure.com", map[string]any{
				"authentication": tt.authentication,
				"model":          tt.model,
				"options":        map[string]any{"reasoningEffort": tt.effort},
			})
			model := supplyModel(t, New(), host)
			assert.Equal(t, tt.want, model.ModelKwargs())
		})
	}
}

func TestSupplyDataEntraOAuth2(t *testing.T) {
	host, _ := newHost("", map[string]any{
		"authentication": "azureEntraCognitiveServicesOAuth2Api",
		"model":          "gpt-4o",
	})
	model := supplyModel(t, New(), host)
	auth, ok := model.Config().Auth.(*credentials.OAuth2Config)
	require.True(t, ok)
	assert.Equal(t, "https://my-resource.openai.azure.com", auth.BaseURL())
	token, err := auth.TokenProvider(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "entra-token", token)
}

func TestSupplyDataInvalidAuthentication(t *testing.T) {
	host, source := newHost("", map[string]any{
		"authentication": "Basic",
		"model":          "gpt-4o",
	})
	_, err := New().SupplyData(context.Background(), host, 0)
	var opErr *node.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "Invalid authentication method", opErr.Message)
	assert.Equal(t, "Invalid authentication method", err.Error())
	assert.Zero(t, source.calls)
}

func TestSupplyDataWrapsStrategyErrors(t *testing.T) {
	host, _ := newHost("", map[string]any{
		"authentication": "azureOpenAiApi",
		"model":          "gpt-4o",
	})
	host.CredentialSource = node.StaticCredentials{}

	_, err := New().SupplyData(context.Background(), host, 0)
	var opErr *node.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "Failed to initialize Azure OpenAI client: credentials not found: azureOpenAiApi", opErr.Message)
	assert.ErrorIs(t, err, node.ErrCredentialsNotFound)
}

func TestSupplyDataMissingModel(t *testing.T) {
	host, _ := newHost("", map[string]any{"authentication": "azureOpenAiApi"})
	_, err := New().SupplyData(context.Background(), host, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, node.ErrParameterNotFound)
	assert.Contains(t, err.Error(), "Failed to initialize Azure OpenAI client")
}

func TestGenerateStopsOnNonRetryableStatus(t *testing.T) {
	server := &fakeAzure{statuses: []int{http.StatusUnauthorized}}
	srv := httptest.NewServer(server)
	defer srv.Close()

	host, _ := newHost(srv.URL, map[string]any{
		"authentication": "azureOpenAiApi",
		"model":          "gpt-4o",
	})
	model := supplyModel(t, New(), host)

	_, err := model.Generate(context.Background(), []*llm.Message{llm.NewUserMessage("Hello")})
	require.Error(t, err)
	var apiErr *openai.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Len(t, server.Requests(), 1)
}

func TestGenerateRetriesTransientStatus(t *testing.T) {
	server := &fakeAzure{statuses: []int{http.StatusServiceUnavailable}}
	srv := httptest.NewServer(server)
	defer srv.Close()

	host, _ := newHost(srv.URL, map[string]any{
		"authentication": "azureOpenAiApi",
		"model":          "gpt-4o",
	})
	var attempts []llms.FailedAttempt
	n := New(WithFailedAttemptHandler(func(_ context.Context, a llms.FailedAttempt) error {
		attempts = append(attempts, a)
		return nil
	}))
	model := supplyModel(t, n, host)

	response, err := model.Generate(context.Background(), []*llm.Message{llm.NewUserMessage("Hello")})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", response.Content)
	assert.Len(t, server.Requests(), 2)
	require.Len(t, attempts, 1)
	assert.Equal(t, http.StatusServiceUnavailable, attempts[0].StatusCode)
	assert.Equal(t, 2, attempts[0].RetriesLeft)

	runs := host.Runs()
	require.Len(t, runs, 2)
	assert.Error(t, runs[0].Err)
	assert.NoError(t, runs[1].Err)
}

func TestGenerateValidatesMessages(t *testing.T) {
	model := NewChatModel(ClientConfig{Deployment: "gpt-4o"})
	_, err := model.Generate(context.Background(), nil)
	assert.EqualError(t, err, "no messages provided")

	_, err = model.Generate(context.Background(), []*llm.Message{{Role: llm.User}})
	assert.ErrorContains(t, err, "empty message detected (index 0)")
}

func TestGetReasoningEffortOptions(t *testing.T) {
	methods := New().LoadOptionsMethods()
	load := methods["getReasoningEffortOptions"]
	require.NotNil(t, load)

	tests := []struct {
		name   string
		params map[string]any
		want   int
	}{
		{"gpt-5 gets minimal", map[string]any{"model": "gpt-5-chat"}, 4},
		{"case sensitive", map[string]any{"model": "GPT-5"}, 3},
		{"other model", map[string]any{"model": "gpt-4o"}, 3},
		{"absent model", map[string]any{}, 3},
		{"non-string model", map[string]any{"model": 5}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options, err := load(context.Background(), &node.Context{Parameters: tt.params})
			require.NoError(t, err)
			assert.Len(t, options, tt.want)
			if tt.want == 4 {
				assert.Equal(t, "minimal", options[0].Value)
			}
		})
	}
}

func TestParseAuthenticationType(t *testing.T) {
	for input, want := range map[string]AuthenticationType{
		"azureOpenAiApi":                       AuthenticationAPIKey,
		"ApiKey":                               AuthenticationAPIKey,
		"azureEntraCognitiveServicesOAuth2Api": AuthenticationEntraOAuth2,
		"EntraOAuth2":                          AuthenticationEntraOAuth2,
	} {
		got, ok := ParseAuthenticationType(input)
		assert.True(t, ok, input)
		assert.Equal(t, want, got)
	}
	_, ok := ParseAuthenticationType("apikey")
	assert.False(t, ok)
}

func TestDecodeOptions(t *testing.T) {
	options, err := DecodeOptions(map[string]any{"temperature": 0.3, "maxTokens": 512, "responseFormat": "text"})
	require.NoError(t, err)
	require.NotNil(t, options.Temperature)
	assert.Equal(t, 0.3, *options.Temperature)
	assert.Equal(t, int64(512), *options.MaxTokens)
	assert.Equal(t, "text", options.ResponseFormat)
	assert.Nil(t, options.TopP)

	options, err = DecodeOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, Options{}, options)

	options, err = DecodeOptions(map[string]any{"timeout": "30000", "maxTokens": "-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(30000), *options.Timeout)
	assert.Equal(t, int64(-1), *options.MaxTokens)

	_, err = DecodeOptions(map[string]any{"temperature": "hot"})
	assert.ErrorContains(t, err, "invalid options")
}
