package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/stepper/internal/presentation/tui"
	"github.com/aretw0/stepper/pkg/algorithms"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/keys"
	"github.com/aretw0/stepper/pkg/session"
	"github.com/aretw0/stepper/pkg/share"
)

// speedStep is how much + and - move the speed dial.
const speedStep = 10

// PlayOptions contains the configuration for the play command.
type PlayOptions struct {
	App       AppOptions
	Algorithm string
	Params    string
	Set       []string
	// Link is a share link or a bare fragment to restore.
	Link     string
	Autoplay bool
	NoChart  bool
}

// RunPlay opens an interactive terminal player.
func RunPlay(opts PlayOptions) error {
	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	app, err := NewApp(sigCtx, opts.App)
	if err != nil {
		return err
	}
	defer app.Close()

	renderer := tui.NewRenderer(tui.WithRawMode(true), tui.WithClear(true), tui.WithChart(!opts.NoChart))
	p, err := newPlayer(sigCtx, app, opts, renderer, os.Stdout, share.DefaultClipboard())
	if err != nil {
		return err
	}
	defer p.close()

	if opts.Autoplay {
		p.sess.Controller.Play()
	}

	src := keys.NewTerminalSource(os.Stdin)
	err = src.Run(sigCtx, p.handle)
	fmt.Fprint(os.Stdout, "\r\n")
	if errors.Is(err, keys.ErrNotTerminal) {
		return fmt.Errorf("play needs an interactive terminal; use 'stepper trace' for scripted output")
	}
	if sigCtx.Signal() != nil {
		printSystemMessage(os.Stdout, "Interrupted at step %d.", p.sess.Controller.State().Cursor+1)
	}
	return handleExecutionError(err)
}

// player binds one session to the terminal: keys in, frames out.
type player struct {
	ctx       context.Context
	app       *App
	sess      *session.Session
	router    *keys.Router
	scope     *keys.Scope
	renderer  *tui.Renderer
	clipboard share.Clipboard
	loc       *share.Location

	mu     sync.Mutex
	out    io.Writer
	notice string
	unsub  func()
}

func newPlayer(ctx context.Context, app *App, opts PlayOptions, renderer *tui.Renderer, out io.Writer, cb share.Clipboard) (*player, error) {
	params, err := ParseParams(opts.Params, opts.Set)
	if err != nil {
		return nil, err
	}

	loc, err := share.NewLocation(app.Config.Share.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("share.base_url: %w", err)
	}
	if opts.Link != "" {
		if loc, err = linkLocation(app.Config.Share.BaseURL, opts.Link); err != nil {
			return nil, err
		}
	}

	algorithm := opts.Algorithm
	if algorithm == "" {
		if s := app.Codec.Read(loc); s != nil && s.Algorithm != "" {
			algorithm = s.Algorithm
		} else {
			algorithm = app.Config.Playback.Algorithm
		}
	}

	sess, err := app.Sessions.Create(ctx, algorithm, params)
	if err != nil {
		return nil, err
	}

	p := &player{
		ctx:       ctx,
		app:       app,
		sess:      sess,
		renderer:  renderer,
		clipboard: cb,
		loc:       loc,
		out:       out,
	}

	if opts.Link != "" {
		restored, err := share.Restore(ctx, app.Codec, loc, sess.Controller,
			share.WithRegenerate(func(ctx context.Context, s share.VisualizerState) error {
				merged := algorithms.ParamsFromShare(s)
				for k, v := range params {
					merged[k] = v
				}
				return app.Sessions.Reinitialize(ctx, sess.ID, s.Algorithm, merged)
			}),
			share.WithFocus(func() { p.notify("Restored from link.") }),
		)
		if err != nil {
			_ = app.Sessions.Close(sess.ID)
			return nil, fmt.Errorf("restore link: %w", err)
		}
		if restored == nil {
			p.notice = "The link held no playback state."
		}
	}

	p.router = keys.NewRouter(
		keys.WithLogger(app.Logger),
		keys.WithBinding('+', p.faster),
		keys.WithBinding('=', p.faster),
		keys.WithBinding('-', p.slower),
		keys.WithBinding('c', p.copyLink),
		keys.WithBinding('C', p.copyLink),
	)
	p.scope = p.router.Register(sess.Controller)
	p.unsub = sess.Controller.Subscribe(func(v domain.View) { p.draw(v) })
	p.draw(sess.Controller.View())
	return p, nil
}

// linkLocation accepts an absolute link or a bare fragment resolved against base.
func linkLocation(base, link string) (*share.Location, error) {
	if strings.Contains(link, "://") {
		return share.NewLocation(link)
	}
	loc, err := share.NewLocation(base)
	if err != nil {
		return nil, err
	}
	loc.ReplaceFragment(strings.TrimPrefix(link, "#"))
	return loc, nil
}

// handle routes one key press. It returns false to quit.
func (p *player) handle(ev keys.Event) bool {
	if ev == keys.CtrlC || (!ev.Ctrl && !ev.Meta && (ev.Key == 'q' || ev.Key == 'Q')) {
		return false
	}
	p.router.Dispatch(ev)
	return true
}

func (p *player) faster(keys.Controller) error {
	c := p.sess.Controller
	c.SetSpeed(c.State().Speed + speedStep)
	return nil
}

func (p *player) slower(keys.Controller) error {
	c := p.sess.Controller
	c.SetSpeed(c.State().Speed - speedStep)
	return nil
}

func (p *player) copyLink(keys.Controller) error {
	state := algorithms.ShareState(p.sess.Algorithm(), p.sess.Controller.Params(), p.sess.Controller.State())
	if p.app.Codec.Copy(p.ctx, p.clipboard, p.loc, state) {
		p.notify("Copied " + p.loc.Href())
	} else {
		p.notify("Clipboard unavailable, link: " + p.loc.Href())
	}
	return nil
}

// notify shows msg under the next frames until another notice replaces it.
func (p *player) notify(msg string) {
	p.mu.Lock()
	p.notice = msg
	p.mu.Unlock()
	p.draw(p.sess.Controller.View())
}

func (p *player) draw(v domain.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.renderer.Render(p.out, p.sess.Algorithm(), v); err != nil {
		p.app.Logger.Debug("Render failed", "err", err)
		return
	}
	if p.notice != "" {
		fmt.Fprintf(p.out, "%s\r\n", p.notice)
	}
}

func (p *player) close() {
	if p.unsub != nil {
		p.unsub()
	}
	if p.scope != nil {
		p.scope.Unregister()
	}
	_ = p.app.Sessions.Close(p.sess.ID)
}
