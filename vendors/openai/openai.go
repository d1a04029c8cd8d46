// Package openai is the generic OpenAI vendor node. It exposes the
// dropdown loaders the node's form uses: assistant files and reasoning
// effort levels.
package openai

import (
	_ "embed"

	"github.com/deepnoodle-ai/lmnodes/node"
)

//go:embed description.yaml
var descriptionYAML []byte

var description = node.MustParseDescription(descriptionYAML)

var _ node.LoadOptionsType = &Node{}

// Node is the OpenAI vendor node type.
type Node struct{}

func New() *Node {
	return &Node{}
}

func (n *Node) Description() *node.Description {
	return description
}

func (n *Node) LoadOptionsMethods() map[string]node.LoadOptionsMethod {
	return map[string]node.LoadOptionsMethod{
		"getFiles":                  GetFiles,
		"getReasoningEffortOptions": GetReasoningEffortOptions,
	}
}

func init() {
	node.Register(New())
}
