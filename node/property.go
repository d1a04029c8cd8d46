package node

// PropertyType is the form-field type of a node property.
type PropertyType string

const (
	PropertyTypeString          PropertyType = "string"
	PropertyTypeNumber          PropertyType = "number"
	PropertyTypeBoolean         PropertyType = "boolean"
	PropertyTypeOptions         PropertyType = "options"
	PropertyTypeMultiOptions    PropertyType = "multiOptions"
	PropertyTypeCollection      PropertyType = "collection"
	PropertyTypeResourceLocator PropertyType = "resourceLocator"
	PropertyTypeNotice          PropertyType = "notice"
)

// PropertyOption is one selectable dropdown entry.
type PropertyOption struct {
	Name        string `json:"name" yaml:"name"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// DisplayOptions controls when a property or credential is shown, keyed by
// the name of the property whose value is tested.
type DisplayOptions struct {
	Show map[string][]any `json:"show,omitempty" yaml:"show,omitempty"`
	Hide map[string][]any `json:"hide,omitempty" yaml:"hide,omitempty"`
}

// TypeOptions carries type-specific property settings.
type TypeOptions struct {
	LoadOptionsMethod    string   `json:"loadOptionsMethod,omitempty" yaml:"loadOptionsMethod,omitempty"`
	LoadOptionsDependsOn []string `json:"loadOptionsDependsOn,omitempty" yaml:"loadOptionsDependsOn,omitempty"`
	MinValue             *float64 `json:"minValue,omitempty" yaml:"minValue,omitempty"`
	MaxValue             *float64 `json:"maxValue,omitempty" yaml:"maxValue,omitempty"`
	NumberPrecision      int      `json:"numberPrecision,omitempty" yaml:"numberPrecision,omitempty"`
}

// ResourceLocatorMode is one way of entering a resource locator value.
type ResourceLocatorMode struct {
	DisplayName string `json:"displayName" yaml:"displayName"`
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`

	// ExtractValue is the regex whose first group holds the id in url mode.
	ExtractValue string `json:"extractValue,omitempty" yaml:"extractValue,omitempty"`

	// SearchListMethod names the load-options method that backs list mode.
	SearchListMethod string `json:"searchListMethod,omitempty" yaml:"searchListMethod,omitempty"`
}

// Property describes one node parameter shown in the host's form.
type Property struct {
	DisplayName    string                `json:"displayName" yaml:"displayName"`
	Name           string                `json:"name" yaml:"name"`
	Type           PropertyType          `json:"type" yaml:"type"`
	Default        any                   `json:"default" yaml:"default"`
	Description    string                `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholder    string                `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Required       bool                  `json:"required,omitempty" yaml:"required,omitempty"`
	Options        []PropertyOption      `json:"options,omitempty" yaml:"options,omitempty"`
	Collection     []Property            `json:"collection,omitempty" yaml:"collection,omitempty"`
	Modes          []ResourceLocatorMode `json:"modes,omitempty" yaml:"modes,omitempty"`
	TypeOptions    *TypeOptions          `json:"typeOptions,omitempty" yaml:"typeOptions,omitempty"`
	DisplayOptions *DisplayOptions       `json:"displayOptions,omitempty" yaml:"displayOptions,omitempty"`
}

// Find returns the property with the given name, searching collections too.
func Find(properties []Property, name string) (*Property, bool) {
	for i := range properties {
		if properties[i].Name == name {
			return &properties[i], true
		}
		if found, ok := Find(properties[i].Collection, name); ok {
			return found, true
		}
	}
	return nil, false
}
