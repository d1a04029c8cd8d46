package node

import "github.com/go-viper/mapstructure/v2"

// Decode copies a loosely typed value, typically a map read from the host's
// form or credential store, into the struct pointed to by v. Fields are
// matched by their json tag names. Scalars are converted where the host
// stores them with a different type, e.g. "3599" into an int64.
func Decode(input, v any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Squash:           true,
		Result:           v,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
