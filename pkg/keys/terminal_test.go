package keys

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Event
	}{
		{"plain", "p]", []Event{{Key: 'p'}, {Key: ']'}}},
		{"ctrl", "\x12\x03", []Event{{Key: 'r', Ctrl: true}, CtrlC}},
		{"meta", "\x1br", []Event{{Key: 'r', Meta: true}}},
		{"arrow keys skipped", "\x1b[A[\x1bOB", []Event{{Key: '['}}},
		{"lone escape", "\x1b", []Event{{Key: 0x1b}}},
		{"enter", "\r", []Event{{Key: '\r'}}},
		{"utf8", "é", []Event{{Key: 'é'}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse([]byte(tt.in)))
		})
	}
}

func TestLoop_StopsWhenHandlerDeclines(t *testing.T) {
	src := &TerminalSource{}
	var got []rune
	err := src.loop(context.Background(), strings.NewReader("pr]q[["), func(ev Event) bool {
		if ev.Key == 'q' {
			return false
		}
		got = append(got, ev.Key)
		return true
	})

	require.NoError(t, err)
	assert.Equal(t, []rune{'p', 'r', ']'}, got)
}

func TestLoop_MarksTextEntry(t *testing.T) {
	prompt := true
	src := &TerminalSource{textEntry: func() bool { return prompt }}

	var events []Event
	err := src.loop(context.Background(), strings.NewReader("r"), func(ev Event) bool {
		events = append(events, ev)
		return true
	})

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].TextEntry)
}

func TestLoop_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := (&TerminalSource{}).loop(ctx, pr, func(Event) bool { return true })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_RequiresTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "input")
	require.NoError(t, err)
	defer f.Close()

	err = NewTerminalSource(f).Run(context.Background(), func(Event) bool { return true })
	assert.ErrorIs(t, err, ErrNotTerminal)
}
