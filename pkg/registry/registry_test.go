package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/registry"
	"github.com/aretw0/stepper/pkg/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echo() ports.TraceGenerator {
	return trace.GeneratorFunc(func(ctx context.Context, params domain.Params) (domain.Trace, error) {
		b := trace.NewBuilder(1)
		b.Push("echo", params)
		return b.Build()
	})
}

func TestRegistry(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register(registry.Algorithm{Name: "zeta", New: echo})
	reg.Register(registry.Algorithm{Name: "alpha", New: echo, Defaults: domain.Params{"size": 4, "seed": 1}})

	names := []string{}
	for _, alg := range reg.List() {
		names = append(names, alg.Name)
	}
	assert.Equal(t, []string{"alpha", "zeta"}, names)

	tr, err := reg.Generate(context.Background(), "alpha", domain.Params{"seed": 9})
	require.NoError(t, err)
	assert.Equal(t, domain.Params{"size": 4, "seed": 9}, tr.At(0).Payload)
}

func TestRegistry_Unknown(t *testing.T) {
	reg := registry.NewRegistry()

	_, err := reg.Get("nope")
	assert.ErrorIs(t, err, domain.ErrUnknownAlgorithm)

	_, err = reg.Generator("nope")
	assert.ErrorIs(t, err, domain.ErrUnknownAlgorithm)

	_, err = reg.Generate(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownAlgorithm)
}

func TestWithDefaults_DoesNotMutateDefaults(t *testing.T) {
	alg := registry.Algorithm{Defaults: domain.Params{"size": 4}}

	merged := alg.WithDefaults(domain.Params{"size": 10})

	assert.Equal(t, 10, merged["size"])
	assert.Equal(t, 4, alg.Defaults["size"])
}
