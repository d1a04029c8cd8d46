package node

import (
	"context"
	"fmt"
	"sync"

	"github.com/deepnoodle-ai/lmnodes/log"
)

// Run is one execution-log entry recorded by Context.
type Run struct {
	Connection ConnectionType
	Input      []ExecutionData
	Output     []ExecutionData
	Err        error
}

// Context is an in-memory host. It serves parameters from maps, credentials
// from a CredentialSource and records the execution log in memory.
type Context struct {
	// NodeInfo identifies the node. A zero value is used when nil.
	NodeInfo *Node

	// Description, when set, supplies url extraction patterns for resource
	// locator parameters.
	Description *Description

	// Parameters are shared by all items.
	Parameters map[string]any

	// Items holds per-item overrides of Parameters.
	Items []map[string]any

	CredentialSource CredentialSource
	Log              log.Logger

	mu   sync.Mutex
	runs []Run
}

var (
	_ SupplyDataFunctions  = (*Context)(nil)
	_ LoadOptionsFunctions = (*Context)(nil)
)

// Node implements SupplyDataFunctions and LoadOptionsFunctions.
func (c *Context) Node() *Node {
	if c.NodeInfo == nil {
		return &Node{}
	}
	return c.NodeInfo
}

// Logger implements SupplyDataFunctions and LoadOptionsFunctions.
func (c *Context) Logger() log.Logger {
	if c.Log == nil {
		return log.NewNullLogger()
	}
	return c.Log
}

// NodeParameter implements SupplyDataFunctions.
func (c *Context) NodeParameter(name string, itemIndex int, opts ...ParameterOption) (any, error) {
	cfg := NewParameterConfig(opts...)
	value, ok := c.lookup(name, itemIndex)
	if !ok {
		if cfg.HasFallback {
			return cfg.Fallback, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrParameterNotFound, name)
	}
	if cfg.ExtractValue {
		return c.extract(name, value)
	}
	return value, nil
}

// CurrentNodeParameter implements LoadOptionsFunctions.
func (c *Context) CurrentNodeParameter(name string, opts ...ParameterOption) (any, error) {
	return c.NodeParameter(name, 0, opts...)
}

// Credentials implements SupplyDataFunctions and LoadOptionsFunctions.
func (c *Context) Credentials(ctx context.Context, credentialType string) (Credentials, error) {
	if c.CredentialSource == nil {
		return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, credentialType)
	}
	return c.CredentialSource.Get(credentialType)
}

// AddInputData implements ExecutionLog.
func (c *Context) AddInputData(conn ConnectionType, data []ExecutionData) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs = append(c.runs, Run{Connection: conn, Input: data})
	return len(c.runs) - 1
}

// AddOutputData implements ExecutionLog.
func (c *Context) AddOutputData(conn ConnectionType, index int, data []ExecutionData, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.runs) {
		c.runs = append(c.runs, Run{Connection: conn})
		index = len(c.runs) - 1
	}
	c.runs[index].Output = data
	c.runs[index].Err = err
}

// Runs returns a copy of the recorded execution log.
func (c *Context) Runs() []Run {
	c.mu.Lock()
	defer c.mu.Unlock()
	runs := make([]Run, len(c.runs))
	copy(runs, c.runs)
	return runs
}

func (c *Context) lookup(name string, itemIndex int) (any, bool) {
	if itemIndex >= 0 && itemIndex < len(c.Items) {
		if value, ok := c.Items[itemIndex][name]; ok {
			return value, true
		}
	}
	value, ok := c.Parameters[name]
	return value, ok
}

func (c *Context) extract(name string, value any) (any, error) {
	rl, err := ParseResourceLocator(value)
	if err != nil {
		return nil, fmt.Errorf("parameter %q: %w", name, err)
	}
	var pattern string
	if c.Description != nil {
		if prop, ok := c.Description.Property(name); ok {
			for _, mode := range prop.Modes {
				if mode.Name == rl.Mode {
					pattern = mode.ExtractValue
				}
			}
		}
	}
	id, err := rl.ExtractValue(pattern)
	if err != nil {
		return nil, fmt.Errorf("parameter %q: %w", name, err)
	}
	return id, nil
}
