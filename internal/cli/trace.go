package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/stepper/internal/presentation/tui"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/registry"
	"github.com/aretw0/stepper/pkg/share"
	"github.com/aretw0/stepper/pkg/trace"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// TraceOptions contains the configuration for the trace command.
type TraceOptions struct {
	App       AppOptions
	Algorithm string
	Params    string
	Set       []string
	// Format is "json" or "text".
	Format string
}

// RunTrace compiles a trace and prints it without starting playback.
func RunTrace(w io.Writer, opts TraceOptions) error {
	ctx := context.Background()
	app, err := NewApp(ctx, opts.App)
	if err != nil {
		return err
	}
	defer app.Close()

	params, err := ParseParams(opts.Params, opts.Set)
	if err != nil {
		return err
	}
	alg, err := app.Registry.Get(opts.Algorithm)
	if err != nil {
		return err
	}
	gen := alg.New()
	if app.Cache != nil {
		gen = trace.NewCachedGenerator(alg.Name, gen, app.Cache, trace.WithCacheLogger(app.Logger), trace.WithPayloadDecoder(alg.Payload))
	}
	t, err := gen.Generate(ctx, alg.WithDefaults(params))
	if err != nil {
		return err
	}
	return WriteTrace(w, t, opts.Format)
}

// WriteTrace prints t as indented JSON or as numbered text lines.
func WriteTrace(w io.Writer, t domain.Trace, format string) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	case "text":
		for i, step := range t.Steps() {
			line := fmt.Sprintf("%3d. %s", i+1, step.Description)
			if values := tui.Values(step.Payload); len(values) > 0 {
				line += "  " + tui.Cells(values, tui.Marks(step.Payload))
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q, use json or text", format)
	}
}

// WriteAlgorithms prints the registry as a table.
func WriteAlgorithms(w io.Writer, reg *registry.Registry) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "DEFAULTS", "DESCRIPTION")
	for _, alg := range reg.List() {
		defaults, _ := json.Marshal(alg.Defaults)
		desc, _, _ := strings.Cut(alg.Description, "\n")
		t.Row(alg.Name, string(defaults), desc)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// ListAlgorithms prints the algorithms available under the given config.
func ListAlgorithms(w io.Writer, opts AppOptions) error {
	app, err := NewApp(context.Background(), opts)
	if err != nil {
		return err
	}
	defer app.Close()
	return WriteAlgorithms(w, app.Registry)
}

// ShareOptions contains the configuration for the share command.
type ShareOptions struct {
	App AppOptions
	// Decode is a link or fragment to inspect. When empty, a link is encoded from the fields below.
	Decode    string
	Algorithm string
	Array     []int
	Step      int
	Speed     int
	Target    int
	HasTarget bool
}

// RunShare encodes a share link or decodes one into JSON.
func RunShare(w io.Writer, opts ShareOptions) error {
	app, err := NewApp(context.Background(), opts.App)
	if err != nil {
		return err
	}
	defer app.Close()

	if opts.Decode != "" {
		loc, err := linkLocation(app.Config.Share.BaseURL, opts.Decode)
		if err != nil {
			return err
		}
		state := app.Codec.Read(loc)
		if state == nil {
			return fmt.Errorf("no playback state in %q", opts.Decode)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}

	loc, err := share.NewLocation(app.Config.Share.BaseURL)
	if err != nil {
		return err
	}
	state := share.VisualizerState{
		Array:     opts.Array,
		Algorithm: opts.Algorithm,
		Step:      share.Int(opts.Step),
		Speed:     share.Int(domain.ClampSpeed(opts.Speed)),
	}
	if opts.HasTarget {
		state.Target = share.Int(opts.Target)
	}
	_, err = fmt.Fprintln(w, app.Codec.Write(loc, state))
	return err
}
