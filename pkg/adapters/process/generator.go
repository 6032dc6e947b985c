package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/registry"
	"github.com/aretw0/stepper/pkg/trace"
)

// EnvPrefix prefixes the environment variables carrying params.
const EnvPrefix = "STEPPER_PARAM_"

var validKey = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Generator compiles traces by running an allow-listed command.
//
// Params reach the command twice: as a JSON object on stdin and as
// STEPPER_PARAM_<KEY> environment variables. The command must print either a
// {"steps": [...]} object or a bare array of steps on stdout. It is trusted to
// be deterministic; the contract of ports.TraceGenerator is on the script author.
type Generator struct {
	cfg     GeneratorConfig
	baseDir string
}

// Option configures a Generator.
type Option func(*Generator)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) Option {
	return func(g *Generator) {
		g.baseDir = dir
	}
}

// NewGenerator wraps cfg as a trace generator.
func NewGenerator(cfg GeneratorConfig, opts ...Option) *Generator {
	g := &Generator{cfg: cfg}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate runs the command and decodes its output into a trace.
func (g *Generator) Generate(ctx context.Context, params domain.Params) (domain.Trace, error) {
	input, err := json.Marshal(params)
	if err != nil {
		return domain.Trace{}, fmt.Errorf("%w: %v", domain.ErrInvalidParams, err)
	}

	cmd := exec.CommandContext(ctx, g.cfg.Command, g.cfg.Args...)
	cmd.Dir = g.baseDir
	cmd.Stdin = bytes.NewReader(input)
	cmd.Env = append(cmd.Environ(), environment(g.cfg.Environment, params)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return domain.Trace{}, fmt.Errorf("generator %s failed: %v. Stderr: %s", g.cfg.Name, err, strings.TrimSpace(stderr.String()))
	}

	t, err := decodeTrace(bytes.TrimSpace(stdout.Bytes()))
	if err != nil {
		return domain.Trace{}, fmt.Errorf("generator %s output: %w", g.cfg.Name, err)
	}
	if err := trace.Validate(t); err != nil {
		return domain.Trace{}, err
	}
	return t, nil
}

func environment(static map[string]string, params domain.Params) []string {
	env := make([]string, 0, len(static)+len(params))
	for k, v := range static {
		env = append(env, k+"="+v)
	}
	for k, v := range params {
		if !validKey.MatchString(k) {
			continue
		}
		var val string
		switch v.(type) {
		case string, int, int64, float64, bool:
			val = fmt.Sprintf("%v", v)
		case nil:
			val = ""
		default:
			if b, err := json.Marshal(v); err == nil {
				val = string(b)
			} else {
				val = fmt.Sprintf("%v", v)
			}
		}
		env = append(env, EnvPrefix+strings.ToUpper(k)+"="+val)
	}
	return env
}

func decodeTrace(out []byte) (domain.Trace, error) {
	if len(out) == 0 {
		return domain.Trace{}, domain.ErrEmptyTrace
	}
	if out[0] == '[' {
		var steps []domain.Step
		if err := json.Unmarshal(out, &steps); err != nil {
			return domain.Trace{}, err
		}
		return domain.NewTrace(steps)
	}
	var t domain.Trace
	if err := json.Unmarshal(out, &t); err != nil {
		return domain.Trace{}, err
	}
	return t, nil
}

// Register adds every configured generator to reg.
func Register(reg *registry.Registry, configs []GeneratorConfig, opts ...Option) {
	for _, cfg := range configs {
		reg.Register(registry.Algorithm{
			Name:        cfg.Name,
			Description: cfg.Description,
			Defaults:    cfg.Defaults,
			New:         func() ports.TraceGenerator { return NewGenerator(cfg, opts...) },
		})
	}
}
