package azureopenai

import "github.com/deepnoodle-ai/lmnodes/node"

func init() {
	node.Register(New())
}
