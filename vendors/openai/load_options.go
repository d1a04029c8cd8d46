package openai

import (
	"context"
	"net/http"
	"regexp"

	"github.com/deepnoodle-ai/lmnodes/llms"
	"github.com/deepnoodle-ai/lmnodes/log"
	"github.com/deepnoodle-ai/lmnodes/node"
)

var minimalReasoningModel = regexp.MustCompile(`(?i)^gpt-5.*`)

type file struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

type fileList struct {
	Data []file `json:"data"`
}

// GetFiles lists the files uploaded for assistants, named by filename and
// valued by id.
func GetFiles(ctx context.Context, fn node.LoadOptionsFunctions) ([]node.PropertyOption, error) {
	ctx = log.WithLogger(ctx, fn.Logger())
	var list fileList
	err := APIRequest(ctx, fn, http.MethodGet, "/files", RequestOptions{
		Query: map[string]string{"purpose": "assistants"},
	}, &list)
	if err != nil {
		return nil, err
	}
	options := make([]node.PropertyOption, 0, len(list.Data))
	for _, f := range list.Data {
		options = append(options, node.PropertyOption{Name: f.Filename, Value: f.ID})
	}
	return options, nil
}

// GetReasoningEffortOptions offers Minimal for any gpt-5 model, ignoring
// case. The model comes from the modelId resource locator.
func GetReasoningEffortOptions(_ context.Context, fn node.LoadOptionsFunctions) ([]node.PropertyOption, error) {
	modelID, _ := node.LookupString(fn, "modelId", node.WithExtractValue())
	return llms.ReasoningEffortOptions(minimalReasoningModel.MatchString(modelID)), nil
}
