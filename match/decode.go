package match

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode copies a parse result into out, a pointer to a struct whose fields
// carry `strata:"name"` tags. String values are converted to the field type
// where possible, so a shot number can land in an int field.
func Decode(result Result, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "strata",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(map[string]string(result)); err != nil {
		return fmt.Errorf("failed to decode parse result: %w", err)
	}
	return nil
}
