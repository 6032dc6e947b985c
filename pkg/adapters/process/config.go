package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/stepper/pkg/domain"
	"gopkg.in/yaml.v3"
)

// GeneratorConfig describes an external trace generator.
type GeneratorConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
	Defaults    domain.Params     `yaml:"defaults" json:"defaults"`
}

// ConfigFile represents the structure of generators.yaml.
type ConfigFile struct {
	Generators []GeneratorConfig `yaml:"generators" json:"generators"`
}

// LoadGenerators reads a configuration file (YAML or JSON).
// A missing file yields no generators.
func LoadGenerators(path string) ([]GeneratorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read generators config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	out := make([]GeneratorConfig, 0, len(cfg.Generators))
	for _, g := range cfg.Generators {
		if g.Name == "" || g.Command == "" {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}
