package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

type valued interface {
	Values() []int
}

type marked interface {
	Marks() []int
}

// Values extracts the array a step payload shows. Payloads read back from a
// JSON cache arrive as generic maps and are handled too.
func Values(payload any) []int {
	switch p := payload.(type) {
	case valued:
		return p.Values()
	case []int:
		return p
	case map[string]any:
		return ints(p["array"])
	}
	return nil
}

// Marks extracts the highlighted indices of a step payload.
func Marks(payload any) []int {
	switch p := payload.(type) {
	case marked:
		return p.Marks()
	case map[string]any:
		for _, key := range []string{"found", "probe"} {
			if n, ok := p[key].(float64); ok && n >= 0 {
				return []int{int(n)}
			}
		}
		return ints(p["active"])
	}
	return nil
}

func ints(v any) []int {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, item := range raw {
		if n, ok := item.(float64); ok {
			out = append(out, int(n))
		}
	}
	return out
}

// Chart plots values as a line graph. It returns "" when there is nothing to plot.
func Chart(values []int, width, height int, caption string) string {
	if len(values) == 0 {
		return ""
	}
	data := make([]float64, len(values))
	for i, v := range values {
		data[i] = float64(v)
	}
	if len(data) == 1 {
		data = append(data, data[0])
	}
	opts := []asciigraph.Option{asciigraph.Height(height)}
	if width > 0 {
		opts = append(opts, asciigraph.Width(width))
	}
	if caption != "" {
		opts = append(opts, asciigraph.Caption(caption))
	}
	return asciigraph.Plot(data, opts...)
}

var (
	cellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).PaddingRight(1)
	markedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).PaddingRight(1)
)

// Cells renders values in a row, highlighting the marked indices with brackets.
func Cells(values, marks []int) string {
	hot := make(map[int]bool, len(marks))
	for _, m := range marks {
		hot[m] = true
	}
	var b strings.Builder
	for i, v := range values {
		s := strconv.Itoa(v)
		if hot[i] {
			b.WriteString(markedStyle.Render("[" + s + "]"))
			continue
		}
		b.WriteString(cellStyle.Render(s))
	}
	return b.String()
}
