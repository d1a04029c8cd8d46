package llms

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/deepnoodle-ai/lmnodes/log"
	"github.com/deepnoodle-ai/lmnodes/node"
	"github.com/google/uuid"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"
)

// TokenUsage is the token accounting reported by a chat completion.
type TokenUsage struct {
	PromptTokens     int64 `json:"promptTokens"`
	CompletionTokens int64 `json:"completionTokens"`
	TotalTokens      int64 `json:"totalTokens"`
}

// Tracing reports every model call made through a client to the host's
// execution log: the input messages, the generations, token usage and
// latency. It is attached to a client as an openai-go middleware.
type Tracing struct {
	execLog  node.ExecutionLog
	logger   log.Logger
	nodeName string
	metrics  *Metrics
}

// TracingOption configures Tracing.
type TracingOption func(*Tracing)

// WithTracingMetrics records each traced call in m.
func WithTracingMetrics(m *Metrics) TracingOption {
	return func(t *Tracing) {
		t.metrics = m
	}
}

// NewTracing returns a tracing callback bound to the execution context fn.
func NewTracing(fn node.SupplyDataFunctions, opts ...TracingOption) *Tracing {
	t := &Tracing{
		execLog:  fn,
		logger:   fn.Logger(),
		nodeName: fn.Node().Name,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Middleware returns the openai-go middleware that performs the tracing.
// The middleware runs once per attempt, so retried calls show up as
// separate runs.
func (t *Tracing) Middleware() option.Middleware {
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		runID := uuid.NewString()
		body, err := peekRequestBody(req)
		if err != nil {
			return nil, err
		}
		model := gjson.GetBytes(body, "model").String()

		input := node.ExecutionData{
			"runId":    runID,
			"messages": gjson.GetBytes(body, "messages").Value(),
			"options":  requestOptions(body),
		}
		index := t.execLog.AddInputData(node.ConnectionAILanguageModel, []node.ExecutionData{input})
		logger := t.logger.With("run_id", runID, "model", model)

		start := time.Now()
		res, err := next(req)
		latency := time.Since(start)

		if err != nil {
			t.metrics.RecordRequest(t.nodeName, model, "error", latency, TokenUsage{})
			t.execLog.AddOutputData(node.ConnectionAILanguageModel, index, nil, err)
			logger.Debug("model call failed", "error", err, "latency_ms", latency.Milliseconds())
			return res, err
		}

		status := strconv.Itoa(res.StatusCode)
		if res.StatusCode >= http.StatusBadRequest {
			callErr := fmt.Errorf("model call failed with status %d", res.StatusCode)
			t.metrics.RecordRequest(t.nodeName, model, status, latency, TokenUsage{})
			t.execLog.AddOutputData(node.ConnectionAILanguageModel, index, nil, callErr)
			logger.Debug("model call failed", "status", res.StatusCode, "latency_ms", latency.Milliseconds())
			return res, nil
		}

		output := node.ExecutionData{"runId": runID, "latencyMs": latency.Milliseconds()}
		var usage TokenUsage
		if strings.HasPrefix(res.Header.Get("Content-Type"), "text/event-stream") {
			output["streaming"] = true
		} else {
			data, err := peekResponseBody(res)
			if err != nil {
				return nil, err
			}
			usage = ParseTokenUsage(data)
			output["response"] = node.ExecutionData{
				"generations":  gjson.GetBytes(data, "choices.#.message.content").Value(),
				"finishReason": gjson.GetBytes(data, "choices.0.finish_reason").String(),
			}
			output["tokenUsage"] = usage
		}
		t.metrics.RecordRequest(t.nodeName, model, status, latency, usage)
		t.execLog.AddOutputData(node.ConnectionAILanguageModel, index, []node.ExecutionData{output}, nil)
		logger.Debug("model call completed",
			"latency_ms", latency.Milliseconds(),
			"prompt_tokens", usage.PromptTokens,
			"completion_tokens", usage.CompletionTokens)
		return res, nil
	}
}

// ParseTokenUsage extracts the usage block of a chat completion response.
func ParseTokenUsage(body []byte) TokenUsage {
	usage := gjson.GetBytes(body, "usage")
	return TokenUsage{
		PromptTokens:     usage.Get("prompt_tokens").Int(),
		CompletionTokens: usage.Get("completion_tokens").Int(),
		TotalTokens:      usage.Get("total_tokens").Int(),
	}
}

var tracedOptions = []string{
	"temperature", "top_p", "max_tokens", "max_completion_tokens",
	"frequency_penalty", "presence_penalty", "response_format", "reasoning_effort",
}

func requestOptions(body []byte) map[string]any {
	options := map[string]any{}
	for _, key := range tracedOptions {
		if v := gjson.GetBytes(body, key); v.Exists() {
			options[key] = v.Value()
		}
	}
	return options
}

// peekRequestBody reads the request body and leaves an unread copy in place.
func peekRequestBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		rc, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("error reading request body: %w", err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("error reading request body: %w", err)
	}
	req.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

// peekResponseBody reads the response body and leaves an unread copy in place.
func peekResponseBody(res *http.Response) ([]byte, error) {
	if res.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(res.Body)
	res.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	res.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}
