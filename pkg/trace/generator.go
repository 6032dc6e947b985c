package trace

import (
	"context"
	"fmt"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// GeneratorFunc adapts a plain function to ports.TraceGenerator.
type GeneratorFunc func(ctx context.Context, params domain.Params) (domain.Trace, error)

// Generate calls f and enforces the non-empty contract on its result.
func (f GeneratorFunc) Generate(ctx context.Context, params domain.Params) (domain.Trace, error) {
	t, err := f(ctx, params)
	if err != nil {
		return domain.Trace{}, err
	}
	if err := Validate(t); err != nil {
		return domain.Trace{}, err
	}
	return t, nil
}

// Typed builds a generator from a function over a typed parameter struct.
// Params are decoded with mapstructure using "param" struct tags; string values are
// weakly converted, so "3" decodes into an int field and "1,2,3" into a []int field.
func Typed[P any](fn func(ctx context.Context, p P) (domain.Trace, error)) ports.TraceGenerator {
	return GeneratorFunc(func(ctx context.Context, params domain.Params) (domain.Trace, error) {
		var p P
		if err := DecodeParams(params, &p); err != nil {
			return domain.Trace{}, err
		}
		return fn(ctx, p)
	})
}

// DecodeParams decodes generic params into out, which must be a pointer to a struct.
func DecodeParams(params domain.Params, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "param",
		WeaklyTypedInput: true,
		DecodeHook:       ListHook(),
	})
	if err != nil {
		return fmt.Errorf("build params decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(params)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidParams, err)
	}
	return nil
}

// Validate checks the generator contract on a compiled trace.
func Validate(t domain.Trace) error {
	if t.IsZero() || t.Len() == 0 {
		return domain.ErrEmptyTrace
	}
	return nil
}

// Must panics if err is not nil. Intended for tests and static fixtures.
func Must(t domain.Trace, err error) domain.Trace {
	if err != nil {
		panic(err)
	}
	return t
}
