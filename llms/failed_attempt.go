package llms

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/deepnoodle-ai/lmnodes/node"
	"github.com/openai/openai-go/option"
)

// FailedAttempt describes one failed request attempt made by a model client.
type FailedAttempt struct {
	// Attempt is 1 for the first try.
	Attempt int

	// RetriesLeft is how many more attempts the client will make if the
	// failure is retried.
	RetriesLeft int

	// StatusCode is 0 when the request failed before a response arrived.
	StatusCode int

	// Err is the transport error, if any.
	Err error
}

// FailedAttemptHandler inspects a failed attempt. A non-nil return aborts
// further retries.
type FailedAttemptHandler func(ctx context.Context, attempt FailedAttempt) error

// Status codes that will not succeed on retry.
var nonRetryableStatus = map[int]bool{
	http.StatusBadRequest:        true, // 400
	http.StatusUnauthorized:      true, // 401
	http.StatusForbidden:         true, // 403
	http.StatusNotFound:          true, // 404
	http.StatusMethodNotAllowed:  true, // 405
	http.StatusNotAcceptable:     true, // 406
	http.StatusProxyAuthRequired: true, // 407
	http.StatusConflict:          true, // 409
}

// IsRetryableStatus reports whether a failed attempt with this status may
// succeed when retried.
func IsRetryableStatus(statusCode int) bool {
	return !nonRetryableStatus[statusCode]
}

// MakeFailedAttemptHandler returns the failed-attempt handler bound to the
// execution context fn. The optional custom handler runs first and may abort
// on its own. The default handling aborts with a *node.APIError when the
// status is not retryable or no retries remain.
func MakeFailedAttemptHandler(fn node.SupplyDataFunctions, custom FailedAttemptHandler) FailedAttemptHandler {
	logger := fn.Logger()
	return func(ctx context.Context, attempt FailedAttempt) error {
		if custom != nil {
			if err := custom(ctx, attempt); err != nil {
				return err
			}
		}
		logger.Warn("model request attempt failed",
			"attempt", attempt.Attempt,
			"retries_left", attempt.RetriesLeft,
			"status", attempt.StatusCode,
			"error", attempt.Err)

		if attempt.StatusCode > 0 && !IsRetryableStatus(attempt.StatusCode) {
			return &node.APIError{
				Node:       fn.Node(),
				StatusCode: attempt.StatusCode,
				Message:    describeStatus(attempt.StatusCode),
				Cause:      attempt.Err,
			}
		}
		if attempt.RetriesLeft <= 0 {
			msg := "Model request failed after all retries"
			if attempt.Err != nil {
				msg = fmt.Sprintf("%s: %v", msg, attempt.Err)
			}
			return &node.APIError{
				Node:       fn.Node(),
				StatusCode: attempt.StatusCode,
				Message:    msg,
				Cause:      attempt.Err,
			}
		}
		return nil
	}
}

// FailedAttemptMiddleware calls handler for every failed attempt. When the
// handler aborts, the response is marked so the client does not retry it.
func FailedAttemptMiddleware(handler FailedAttemptHandler, maxRetries int, metrics *Metrics, nodeName string) option.Middleware {
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		res, err := next(req)
		statusCode := 0
		if res != nil {
			statusCode = res.StatusCode
		}
		if err == nil && statusCode < http.StatusBadRequest {
			return res, err
		}

		retryCount, _ := strconv.Atoi(req.Header.Get("X-Stainless-Retry-Count"))
		attempt := FailedAttempt{
			Attempt:     retryCount + 1,
			RetriesLeft: max(maxRetries-retryCount, 0),
			StatusCode:  statusCode,
			Err:         err,
		}
		status := "error"
		if statusCode > 0 {
			status = strconv.Itoa(statusCode)
		}
		metrics.RecordFailedAttempt(nodeName, status)

		if abort := handler(req.Context(), attempt); abort != nil && res != nil {
			if res.Header == nil {
				res.Header = http.Header{}
			}
			res.Header.Set("X-Should-Retry", "false")
		}
		return res, err
	}
}

func describeStatus(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return "Bad request - please check your parameters"
	case http.StatusUnauthorized:
		return "Authorization failed - please check your credentials"
	case http.StatusForbidden:
		return "Forbidden - perhaps check your credentials?"
	case http.StatusNotFound:
		return "The resource you are requesting could not be found"
	case http.StatusConflict:
		return "The request conflicts with the current state of the resource"
	default:
		return fmt.Sprintf("Model request failed: %s", http.StatusText(statusCode))
	}
}
