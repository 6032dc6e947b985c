package share

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ErrNoTerminal is returned by OSC52 when its output is not a terminal.
var ErrNoTerminal = errors.New("clipboard: output is not a terminal")

// Clipboard writes text to a system clipboard.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// ClipboardFunc adapts a function to Clipboard.
type ClipboardFunc func(ctx context.Context, text string) error

func (f ClipboardFunc) WriteText(ctx context.Context, text string) error {
	return f(ctx, text)
}

// OSC52 writes to the terminal clipboard through the OSC 52 escape sequence.
// It is the native path: no helper binary is involved and it works over SSH.
type OSC52 struct {
	Out io.Writer
	// Force skips the terminal check, for multiplexers and tests.
	Force bool
}

func (c OSC52) WriteText(ctx context.Context, text string) error {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	if !c.Force {
		f, ok := out.(*os.File)
		if !ok || !term.IsTerminal(int(f.Fd())) {
			return ErrNoTerminal
		}
	}
	termenv.NewOutput(out).Copy(text)
	return nil
}

// Command pipes text into a clipboard helper program such as pbcopy or xclip.
type Command struct {
	Name string
	Args []string
}

func (c Command) WriteText(ctx context.Context, text string) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", c.Name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// helperCommands lists clipboard programs per platform, in preference order.
func helperCommands() []Command {
	switch runtime.GOOS {
	case "darwin":
		return []Command{{Name: "pbcopy"}}
	case "windows":
		return []Command{{Name: "clip"}}
	default:
		return []Command{
			{Name: "wl-copy"},
			{Name: "xclip", Args: []string{"-selection", "clipboard"}},
			{Name: "xsel", Args: []string{"--clipboard", "--input"}},
			{Name: "clip.exe"},
		}
	}
}

// Helpers returns the clipboard programs installed on this machine.
func Helpers() []Clipboard {
	var found []Clipboard
	for _, c := range helperCommands() {
		if _, err := exec.LookPath(c.Name); err == nil {
			found = append(found, c)
		}
	}
	return found
}

// Chain tries each clipboard in order until one succeeds.
type Chain []Clipboard

func (ch Chain) WriteText(ctx context.Context, text string) error {
	if len(ch) == 0 {
		return errors.New("clipboard: no clipboard available")
	}
	var errs []error
	for _, cb := range ch {
		if cb == nil {
			continue
		}
		err := cb.WriteText(ctx, text)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// DefaultClipboard is the native terminal clipboard followed by the installed helpers.
func DefaultClipboard() Clipboard {
	return append(Chain{OSC52{}}, Helpers()...)
}

// CopyToClipboard writes text with cb and reports whether it worked.
// It never fails: errors and panics from the clipboard are folded into false.
func CopyToClipboard(ctx context.Context, cb Clipboard, text string) (ok bool) {
	if cb == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return cb.WriteText(ctx, text) == nil
}

// Copy writes the share link for state into the fragment of loc and copies the link.
func (c *Codec[T]) Copy(ctx context.Context, cb Clipboard, loc *Location, state T) bool {
	return CopyToClipboard(ctx, cb, c.Write(loc, state))
}
