package node

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Resource locator modes.
const (
	LocatorModeList = "list"
	LocatorModeID   = "id"
	LocatorModeURL  = "url"
)

// ErrInvalidLocator is returned when a resource locator value cannot be
// resolved to an id.
var ErrInvalidLocator = errors.New("invalid resource locator")

// ResourceLocator is the stored value of a resourceLocator property.
type ResourceLocator struct {
	Mode             string `json:"mode"`
	Value            string `json:"value"`
	CachedResultName string `json:"cachedResultName,omitempty"`
}

// ParseResourceLocator interprets a raw parameter value. Plain strings are
// accepted as id-mode values, as older workflows store them that way.
func ParseResourceLocator(raw any) (ResourceLocator, error) {
	switch v := raw.(type) {
	case ResourceLocator:
		return v, nil
	case *ResourceLocator:
		if v == nil {
			return ResourceLocator{}, fmt.Errorf("%w: nil value", ErrInvalidLocator)
		}
		return *v, nil
	case string:
		return ResourceLocator{Mode: LocatorModeID, Value: v}, nil
	case map[string]any:
		rl := ResourceLocator{}
		rl.Mode, _ = v["mode"].(string)
		rl.CachedResultName, _ = v["cachedResultName"].(string)
		value, ok := v["value"].(string)
		if !ok {
			return ResourceLocator{}, fmt.Errorf("%w: value must be a string, got %T", ErrInvalidLocator, v["value"])
		}
		rl.Value = value
		return rl, nil
	default:
		return ResourceLocator{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidLocator, raw)
	}
}

// ExtractValue resolves the locator to its id. In url mode the id is taken
// from the first group of pattern, or the last path segment when pattern is
// empty.
func (rl ResourceLocator) ExtractValue(pattern string) (string, error) {
	switch rl.Mode {
	case LocatorModeList, LocatorModeID, "":
		return rl.Value, nil
	case LocatorModeURL:
		if pattern == "" {
			trimmed := strings.TrimRight(rl.Value, "/")
			idx := strings.LastIndex(trimmed, "/")
			if idx < 0 || idx == len(trimmed)-1 {
				return "", fmt.Errorf("%w: no id in url %q", ErrInvalidLocator, rl.Value)
			}
			return trimmed[idx+1:], nil
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return "", fmt.Errorf("%w: bad extraction pattern: %v", ErrInvalidLocator, err)
		}
		match := re.FindStringSubmatch(rl.Value)
		if len(match) < 2 {
			return "", fmt.Errorf("%w: url %q does not match %s", ErrInvalidLocator, rl.Value, pattern)
		}
		return match[1], nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidLocator, rl.Mode)
	}
}
