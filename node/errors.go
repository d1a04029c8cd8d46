package node

import "fmt"

// OperationError is the structured error the host shows to the user when a
// node fails. Cause keeps the underlying error for logs and errors.Is/As.
type OperationError struct {
	Node        *Node
	Message     string
	Description string
	Cause       error
}

// NewOperationError returns an OperationError for node.
func NewOperationError(node *Node, message string, cause error) *OperationError {
	return &OperationError{Node: node, Message: message, Cause: cause}
}

func (e *OperationError) Error() string {
	return e.Message
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// WrapError passes an *OperationError through unchanged and wraps any other
// error, including one that merely wraps an *OperationError, as an
// OperationError whose message is "<prefix>: <err>".
func WrapError(node *Node, prefix string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*OperationError); ok {
		return err
	}
	return NewOperationError(node, fmt.Sprintf("%s: %s", prefix, err.Error()), err)
}

// APIError reports a failed call to an upstream API.
type APIError struct {
	Node       *Node
	StatusCode int
	Message    string
	Cause      error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Cause
}
