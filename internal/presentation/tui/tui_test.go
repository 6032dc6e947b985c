package tui

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/stepper/pkg/algorithms"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValuesAndMarks(t *testing.T) {
	frame := algorithms.SearchFrame{Array: []int{1, 3, 5}, Target: 5, Probe: 1, Found: -1}
	assert.Equal(t, []int{1, 3, 5}, Values(frame))
	assert.Equal(t, []int{1}, Marks(frame))

	assert.Equal(t, []int{4, 2}, Values([]int{4, 2}))
	assert.Nil(t, Values("text"))
	assert.Nil(t, Marks(42))

	// A payload that went through a JSON cache.
	raw, err := json.Marshal(frame)
	require.NoError(t, err)
	var generic any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, []int{1, 3, 5}, Values(generic))
	assert.Equal(t, []int{1}, Marks(generic))

	raw, err = json.Marshal(algorithms.ArrayFrame{Array: []int{3, 1}, Active: []int{0, 1}})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, []int{0, 1}, Marks(generic))
}

func TestChart(t *testing.T) {
	assert.Empty(t, Chart(nil, 0, 4, ""))
	assert.NotEmpty(t, Chart([]int{7}, 0, 4, ""))

	out := Chart([]int{1, 9, 4, 6}, 20, 4, "values")
	assert.Contains(t, out, "values")
	assert.GreaterOrEqual(t, strings.Count(out, "\n"), 4)
}

func TestCells(t *testing.T) {
	out := Cells([]int{4, 8, 15}, []int{1})
	assert.Contains(t, out, "[8]")
	assert.Contains(t, out, "4")
	assert.NotContains(t, out, "[4]")
}

func TestStatusLine(t *testing.T) {
	v := domain.View{Cursor: 1, TotalSteps: 5, Speed: 40, Status: domain.StatusPaused}
	out := StatusLine("bubble-sort", v)
	assert.Contains(t, out, "bubble-sort")
	assert.Contains(t, out, "paused")
	assert.Contains(t, out, "step 2/5")
	assert.Contains(t, out, "speed 40")

	v.Status, v.IsPlaying = domain.StatusPlaying, true
	assert.Contains(t, StatusLine("bubble-sort", v), "playing")

	assert.Equal(t, strings.Repeat("█", progressWidth), progress(0, 1))
}

func TestRendererFrame(t *testing.T) {
	r := NewRenderer(WithStyle("notty"), WithChartSize(30, 4))
	v := domain.View{
		CurrentStep: domain.Step{
			Description: "Compare a[0] and a[1].",
			Payload:     algorithms.ArrayFrame{Array: []int{5, 2, 9}, Active: []int{0, 1}},
		},
		TotalSteps: 3,
		Speed:      25,
		Status:     domain.StatusIdle,
	}
	out := r.Frame("bubble-sort", v)
	assert.Contains(t, out, "Compare a[0] and a[1].")
	assert.Contains(t, out, "[5]")
	assert.Contains(t, out, "[2]")
	assert.Contains(t, out, "copy link")

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(WithStyle("notty"), WithRawMode(true), WithChart(false)).Render(&buf, "bubble-sort", v))
	assert.Contains(t, buf.String(), "\r\n")
	assert.NotContains(t, strings.ReplaceAll(buf.String(), "\r\n", ""), "\n")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|___/")
}
