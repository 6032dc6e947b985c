package keys

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/term"
)

// ErrNotTerminal is returned when the input of a TerminalSource is not a terminal.
var ErrNotTerminal = errors.New("keys: input is not a terminal")

// CtrlC is the event produced by Ctrl+C. Raw mode swallows SIGINT, so readers
// have to treat it as an interrupt themselves.
var CtrlC = Event{Key: 'c', Ctrl: true}

// TerminalSource reads key presses from a terminal in raw mode.
type TerminalSource struct {
	in        *os.File
	textEntry func() bool
}

// SourceOption configures a TerminalSource.
type SourceOption func(*TerminalSource)

// WithTextEntry marks events as typed into a text field while fn reports true,
// e.g. while a prompt is open.
func WithTextEntry(fn func() bool) SourceOption {
	return func(s *TerminalSource) {
		s.textEntry = fn
	}
}

// NewTerminalSource reads from in, usually os.Stdin.
func NewTerminalSource(in *os.File, opts ...SourceOption) *TerminalSource {
	s := &TerminalSource{in: in}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run puts the terminal in raw mode and calls handle for every key until handle
// returns false, the input ends or ctx is cancelled. The terminal is restored on return.
func (s *TerminalSource) Run(ctx context.Context, handle func(Event) bool) error {
	fd := int(s.in.Fd())
	if !term.IsTerminal(fd) {
		return ErrNotTerminal
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	defer term.Restore(fd, old)

	return s.loop(ctx, s.in, handle)
}

type chunk struct {
	data []byte
	err  error
}

func (s *TerminalSource) loop(ctx context.Context, r io.Reader, handle func(Event) bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The reader goroutine outlives a cancelled Run until the next byte arrives;
	// a blocking terminal read cannot be interrupted portably.
	chunks := make(chan chunk)
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := r.Read(buf)
			data := append([]byte(nil), buf[:n]...)
			select {
			case chunks <- chunk{data: data, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-chunks:
			for _, ev := range Parse(c.data) {
				if s.textEntry != nil && s.textEntry() {
					ev.TextEntry = true
				}
				if !handle(ev) {
					return nil
				}
			}
			if errors.Is(c.err, io.EOF) {
				return nil
			}
			if c.err != nil {
				return fmt.Errorf("read key: %w", c.err)
			}
		}
	}
}

// Parse decodes raw terminal input into key events.
// Control bytes become Ctrl+letter, ESC followed by a key becomes Meta+key,
// and escape sequences for cursor keys are skipped.
func Parse(b []byte) []Event {
	var events []Event
	for len(b) > 0 {
		switch {
		case b[0] == 0x1b:
			if len(b) == 1 {
				events = append(events, Event{Key: 0x1b})
				b = b[1:]
				continue
			}
			if b[1] == '[' || b[1] == 'O' {
				b = skipSequence(b[2:])
				continue
			}
			r, size := utf8.DecodeRune(b[1:])
			events = append(events, Event{Key: r, Meta: true})
			b = b[1+size:]
		case b[0] == '\r' || b[0] == '\n' || b[0] == '\t' || b[0] == 0x7f:
			events = append(events, Event{Key: rune(b[0])})
			b = b[1:]
		case b[0] < 0x20:
			events = append(events, Event{Key: rune(b[0]) + 'a' - 1, Ctrl: true})
			b = b[1:]
		default:
			r, size := utf8.DecodeRune(b)
			events = append(events, Event{Key: r})
			b = b[size:]
		}
	}
	return events
}

// skipSequence drops the parameters and final byte of a CSI or SS3 sequence.
func skipSequence(b []byte) []byte {
	for i, c := range b {
		if c >= 0x40 && c <= 0x7e {
			return b[i+1:]
		}
	}
	return nil
}
