// Package node defines the contract between the workflow host and the node
// adapters in this module.
//
// A node type publishes a [Description] and may implement one or both entry
// points the host invokes:
//
//   - [SupplyDataType] at run time, returning a handle (for example a chat
//     model) that downstream nodes consume.
//   - [LoadOptionsType] at render time, populating dynamic dropdowns.
//
// The host side is represented by [SupplyDataFunctions] and
// [LoadOptionsFunctions]. [Context] is an in-memory implementation of both,
// used by the lmnodes CLI and by tests.
package node

import "context"

// ConnectionType names the kind of data flowing over a node port.
type ConnectionType string

const (
	ConnectionMain            ConnectionType = "main"
	ConnectionAILanguageModel ConnectionType = "ai_languageModel"
)

// Node identifies the node instance being executed or rendered.
type Node struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	TypeVersion int    `json:"typeVersion" yaml:"typeVersion"`
}

// SupplyData is what a sub-node hands back to the host. Response is the
// handle consumed by the parent node.
type SupplyData struct {
	Response any

	// CloseFunction, when set, is called by the host once the handle is no
	// longer needed.
	CloseFunction func(ctx context.Context) error
}

// LoadOptionsMethod populates a dropdown for the current form state.
type LoadOptionsMethod func(ctx context.Context, fn LoadOptionsFunctions) ([]PropertyOption, error)

// Type is implemented by every node type.
type Type interface {
	Description() *Description
}

// SupplyDataType is a node type that supplies a handle at run time.
type SupplyDataType interface {
	Type
	SupplyData(ctx context.Context, fn SupplyDataFunctions, itemIndex int) (*SupplyData, error)
}

// LoadOptionsType is a node type with dynamic dropdowns.
type LoadOptionsType interface {
	Type
	LoadOptionsMethods() map[string]LoadOptionsMethod
}
