package llms

import "github.com/deepnoodle-ai/lmnodes/node"

// ReasoningEffort hints how much internal reasoning a model spends before
// answering.
type ReasoningEffort string

const (
	ReasoningEffortMinimal ReasoningEffort = "minimal"
	ReasoningEffortLow     ReasoningEffort = "low"
	ReasoningEffortMedium  ReasoningEffort = "medium"
	ReasoningEffortHigh    ReasoningEffort = "high"
)

// ReasoningEfforts lists the recognized values.
var ReasoningEfforts = []ReasoningEffort{
	ReasoningEffortMinimal,
	ReasoningEffortLow,
	ReasoningEffortMedium,
	ReasoningEffortHigh,
}

// IsValid reports whether e is one of the recognized values.
func (e ReasoningEffort) IsValid() bool {
	for _, v := range ReasoningEfforts {
		if e == v {
			return true
		}
	}
	return false
}

// ReasoningEffortOptions returns the dropdown entries for a reasoning effort
// field. Minimal comes first when includeMinimal is set.
func ReasoningEffortOptions(includeMinimal bool) []node.PropertyOption {
	options := make([]node.PropertyOption, 0, 4)
	if includeMinimal {
		options = append(options, node.PropertyOption{
			Name:        "Minimal",
			Value:       string(ReasoningEffortMinimal),
			Description: "Uses the fewest reasoning tokens for maximum speed",
		})
	}
	return append(options,
		node.PropertyOption{
			Name:        "Low",
			Value:       string(ReasoningEffortLow),
			Description: "Favors speed and economical token usage",
		},
		node.PropertyOption{
			Name:        "Medium",
			Value:       string(ReasoningEffortMedium),
			Description: "Balance between speed and reasoning accuracy",
		},
		node.PropertyOption{
			Name:        "High",
			Value:       string(ReasoningEffortHigh),
			Description: "Favors more complete reasoning at the cost of more tokens generated and slower responses",
		},
	)
}
