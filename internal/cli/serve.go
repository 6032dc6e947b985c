package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aretw0/stepper"
	httpAdapter "github.com/aretw0/stepper/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServeOptions contains the configuration for the serve command.
type ServeOptions struct {
	App AppOptions
}

// RunServe starts the HTTP API and blocks until SIGINT or SIGTERM.
func RunServe(opts ServeOptions) error {
	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	app, err := NewApp(sigCtx, opts.App)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              app.Config.HTTP.Addr,
		Handler:           newHandler(app),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(sigCtx, app, srv)
}

func newHandler(app *App) http.Handler {
	handlerOpts := []httpAdapter.Option{
		httpAdapter.WithLogger(app.Logger),
		httpAdapter.WithShareBase(app.Config.Share.BaseURL),
		httpAdapter.WithShareCodec(app.Codec),
		httpAdapter.WithVersion(strings.TrimSpace(stepper.Version)),
	}
	if app.Config.HTTP.Metrics {
		handlerOpts = append(handlerOpts, httpAdapter.WithMetrics(promhttp.HandlerFor(app.Metrics, promhttp.HandlerOpts{})))
	}
	return httpAdapter.NewHandler(app.Sessions, handlerOpts...)
}

func serve(sigCtx *SignalContext, app *App, srv *http.Server) error {
	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(os.Stdout, "Starting stepper server on %s", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-sigCtx.Done():
		app.Logger.Info("Shutdown requested", "signal", sigCtx.Signal())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			app.Logger.Warn("Graceful shutdown did not complete", "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		printSystemMessage(os.Stdout, "Stepper server stopped gracefully")
		return nil
	}
}
