package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/deepnoodle-ai/lmnodes/node"
	"github.com/goccy/go-yaml"
)

// parseAssignments parses key=value pairs. Values are read as YAML, so
// numbers and booleans keep their types and a resource locator can be
// written as {mode: url, value: "https://..."}. Keys in stringKeys keep the
// raw text, so a deployment named 2024 stays a string.
func parseAssignments(pairs []string, stringKeys map[string]bool) (map[string]any, error) {
	result := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q (expected key=value)", pair)
		}
		if stringKeys[key] {
			result[key] = raw
		} else {
			result[key] = parseValue(raw)
		}
	}
	return result, nil
}

func parseValue(raw string) any {
	if strings.TrimSpace(raw) == "" {
		return raw
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
		return raw
	}
	return v
}

// stringProperties returns the names of the string-typed properties,
// including those nested in collections.
func stringProperties(properties []node.Property) map[string]bool {
	names := map[string]bool{}
	for _, prop := range properties {
		if prop.Type == node.PropertyTypeString {
			names[prop.Name] = true
		}
		for name := range stringProperties(prop.Collection) {
			names[name] = true
		}
	}
	return names
}

// applyDefaults fills parameters the user left out with the defaults of
// the node's top-level properties, the way the host's form would.
func applyDefaults(desc *node.Description, params map[string]any) map[string]any {
	merged := make(map[string]any, len(params))
	for _, prop := range desc.Properties {
		if prop.Type == node.PropertyTypeNotice || prop.Default == nil {
			continue
		}
		if s, ok := prop.Default.(string); ok && s == "" {
			continue
		}
		merged[prop.Name] = prop.Default
	}
	for k, v := range params {
		merged[k] = v
	}
	return merged
}

// maskCredentials hides secret-looking fields. Strings keep their last four
// characters.
func maskCredentials(creds node.Credentials) [][]string {
	keys := make([]string, 0, len(creds))
	for k := range creds {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		value := fmt.Sprint(creds[k])
		if isSecretField(k) {
			if _, ok := creds[k].(string); ok {
				value = mask(value)
			} else {
				value = "********"
			}
		}
		rows = append(rows, []string{k, value})
	}
	return rows
}

func isSecretField(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"key", "token", "secret", "password", "headervalue", "oauth"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func mask(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
