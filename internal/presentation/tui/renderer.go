package tui

import (
	"io"
	"strings"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// Renderer draws playback views on a terminal.
type Renderer struct {
	markdown  func(string) (string, error)
	width     int
	height    int
	rawMode   bool
	clear     bool
	showChart bool
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithStyle selects a glamour standard style ("dark", "light", "notty").
// The default detects the terminal background.
func WithStyle(style string) RendererOption {
	return func(r *Renderer) {
		r.markdown = newMarkdown(glamour.WithStandardStyle(style))
	}
}

// WithChartSize sets the chart dimensions. A zero width lets the chart fit the data.
func WithChartSize(width, height int) RendererOption {
	return func(r *Renderer) {
		r.width, r.height = width, height
	}
}

// WithChart toggles the line chart under the cells row.
func WithChart(on bool) RendererOption {
	return func(r *Renderer) {
		r.showChart = on
	}
}

// WithRawMode emits CRLF line endings, needed while the terminal is in raw mode.
func WithRawMode(on bool) RendererOption {
	return func(r *Renderer) {
		r.rawMode = on
	}
}

// WithClear clears the screen before every frame.
func WithClear(on bool) RendererOption {
	return func(r *Renderer) {
		r.clear = on
	}
}

// NewRenderer creates a Renderer with auto-detected markdown styling.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{height: 8, showChart: true}
	for _, opt := range opts {
		opt(r)
	}
	if r.markdown == nil {
		r.markdown = newMarkdown(glamour.WithAutoStyle())
	}
	return r
}

func newMarkdown(style glamour.TermRendererOption) func(string) (string, error) {
	tr, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(80))
	if err != nil {
		return func(s string) (string, error) { return s, nil }
	}
	return tr.Render
}

// Frame composes the full screen for a view.
func (r *Renderer) Frame(algorithm string, v domain.View) string {
	var b strings.Builder
	b.WriteString(StatusLine(algorithm, v))
	b.WriteString("\n")

	desc, err := r.markdown(v.CurrentStep.Description)
	if err != nil {
		desc = v.CurrentStep.Description + "\n"
	}
	b.WriteString(desc)

	if values := Values(v.CurrentStep.Payload); len(values) > 0 {
		b.WriteString("\n  ")
		b.WriteString(Cells(values, Marks(v.CurrentStep.Payload)))
		b.WriteString("\n")
		if r.showChart && len(values) > 1 {
			b.WriteString("\n")
			b.WriteString(Chart(values, r.width, r.height, ""))
			b.WriteString("\n")
		}
	}
	b.WriteString(Help())
	b.WriteString("\n")
	return b.String()
}

// Render writes the frame for v to w.
func (r *Renderer) Render(w io.Writer, algorithm string, v domain.View) error {
	if r.clear {
		out := termenv.NewOutput(w)
		out.ClearScreen()
	}
	frame := r.Frame(algorithm, v)
	if r.rawMode {
		frame = strings.ReplaceAll(frame, "\n", "\r\n")
	}
	_, err := io.WriteString(w, frame)
	return err
}
