package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/stepper/pkg/domain"
)

// ParseParams merges a JSON object with key=value pairs; pairs win.
// Pair values stay strings and are converted by the generator, so
// "array=5,2,9" and "target=9" both work.
func ParseParams(raw string, pairs []string) (domain.Params, error) {
	params := domain.Params{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return nil, fmt.Errorf("%w: --params must be a JSON object: %v", domain.ErrInvalidParams, err)
		}
		if params == nil {
			params = domain.Params{}
		}
	}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: expected key=value, got %q", domain.ErrInvalidParams, pair)
		}
		params[k] = v
	}
	return params, nil
}
