// Package llms holds the pieces shared by LLM nodes: the reasoning effort
// dropdown entries, the tracing callback that reports model calls to the
// host's execution log, the failed-attempt handler consulted by the client's
// retry loop, and Prometheus metrics for model traffic.
//
// Tracing and failed-attempt handling are openai-go middlewares; attach them
// with option.WithMiddleware when constructing a client.
package llms
