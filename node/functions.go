package node

import (
	"context"
	"errors"
	"fmt"

	"github.com/deepnoodle-ai/lmnodes/log"
)

var (
	// ErrParameterNotFound is returned when a parameter is absent and no
	// fallback was supplied.
	ErrParameterNotFound = errors.New("parameter not found")

	// ErrCredentialsNotFound is returned when no credentials of the requested
	// type are stored.
	ErrCredentialsNotFound = errors.New("credentials not found")
)

// ParameterOption adjusts a parameter lookup.
type ParameterOption func(*ParameterConfig)

// ParameterConfig holds the settings of a single parameter lookup.
type ParameterConfig struct {
	Fallback     any
	HasFallback  bool
	ExtractValue bool
}

// WithFallback returns fallback instead of ErrParameterNotFound when the
// parameter is absent.
func WithFallback(fallback any) ParameterOption {
	return func(c *ParameterConfig) {
		c.Fallback = fallback
		c.HasFallback = true
	}
}

// WithExtractValue resolves resource locator parameters to their id string.
func WithExtractValue() ParameterOption {
	return func(c *ParameterConfig) {
		c.ExtractValue = true
	}
}

// NewParameterConfig applies opts to a zero ParameterConfig.
func NewParameterConfig(opts ...ParameterOption) *ParameterConfig {
	c := &ParameterConfig{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExecutionData is one JSON item written to the execution log.
type ExecutionData map[string]any

// ExecutionLog receives the input and output entries of a sub-node run, which
// the host renders in its execution view.
type ExecutionLog interface {
	// AddInputData records the input of a run and returns its run index.
	AddInputData(conn ConnectionType, data []ExecutionData) int

	// AddOutputData records the output (or failure) of the run at index.
	AddOutputData(conn ConnectionType, index int, data []ExecutionData, err error)
}

// SupplyDataFunctions is the host API available while a node supplies data.
type SupplyDataFunctions interface {
	ExecutionLog

	Node() *Node
	Logger() log.Logger

	// NodeParameter returns the value of a parameter for the given item.
	NodeParameter(name string, itemIndex int, opts ...ParameterOption) (any, error)

	// Credentials returns the decrypted credentials of the given type.
	Credentials(ctx context.Context, credentialType string) (Credentials, error)
}

// LoadOptionsFunctions is the host API available while a dropdown loads.
type LoadOptionsFunctions interface {
	Node() *Node
	Logger() log.Logger

	// CurrentNodeParameter returns the value currently entered in the form.
	CurrentNodeParameter(name string, opts ...ParameterOption) (any, error)

	// Credentials returns the decrypted credentials of the given type.
	Credentials(ctx context.Context, credentialType string) (Credentials, error)
}

// LookupString reads a string parameter from the form being rendered. It
// reports false when the parameter is absent, cannot be extracted, is not a
// string, or is empty; it never returns an error.
func LookupString(fn LoadOptionsFunctions, name string, opts ...ParameterOption) (string, bool) {
	value, err := fn.CurrentNodeParameter(name, opts...)
	if err != nil {
		return "", false
	}
	s, ok := value.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// StringParameter reads a required string parameter for an item.
func StringParameter(fn SupplyDataFunctions, name string, itemIndex int, opts ...ParameterOption) (string, error) {
	value, err := fn.NodeParameter(name, itemIndex, opts...)
	if err != nil {
		return "", err
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string, got %T", name, value)
	}
	return s, nil
}
