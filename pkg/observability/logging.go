package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/stepper/pkg/domain"
)

// LogHooks logs every playback event. Timer advances are frequent and go to
// debug; everything else is logged at info.
func LogHooks(logger *slog.Logger) domain.PlaybackHooks {
	return domain.PlaybackHooks{
		OnChange: func(e *domain.PlaybackEvent) {
			level := slog.LevelInfo
			if e.Type == domain.EventAdvance {
				level = slog.LevelDebug
			}
			attrs := []any{
				"session_id", e.Session,
				"algorithm", e.Algorithm,
				"cursor", e.After.Cursor,
				"total", e.Total,
				"playing", e.After.IsPlaying,
			}
			if e.Duration > 0 {
				attrs = append(attrs, "duration", e.Duration)
			}
			logger.Log(context.Background(), level, string(e.Type), attrs...)
		},
	}
}
