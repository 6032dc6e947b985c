package trace

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// PayloadDecoder restores a step payload that came back from a serialized cache,
// where it arrives as generic JSON values.
type PayloadDecoder func(payload any) (any, error)

// PayloadAs returns a decoder that turns generic payloads back into T using
// T's json tags. Payloads that already are a T and nil payloads pass through.
func PayloadAs[T any]() PayloadDecoder {
	return func(payload any) (any, error) {
		if payload == nil {
			return nil, nil
		}
		if typed, ok := payload.(T); ok {
			return typed, nil
		}
		var out T
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:  &out,
			TagName: "json",
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(payload); err != nil {
			return nil, fmt.Errorf("decode %T payload: %w", out, err)
		}
		return out, nil
	}
}
