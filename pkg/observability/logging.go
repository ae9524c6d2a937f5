package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/cutline/pkg/domain"
)

// LoggingHooks logs status changes at info and group progress at debug.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStatusChange: func(ctx context.Context, e *domain.StatusEvent) {
			attrs := []slog.Attr{
				slog.String("job_id", e.JobID),
				slog.String("device", e.Device),
				slog.String("from", string(e.From)),
				slog.String("status", string(e.To)),
			}
			level := slog.LevelInfo
			if e.Reason != "" {
				attrs = append(attrs, slog.String("reason", e.Reason))
			}
			if e.To == domain.StatusFailed {
				level = slog.LevelWarn
			}
			logger.LogAttrs(ctx, level, "job status", attrs...)
		},
		OnGroupSent: func(ctx context.Context, e *domain.GroupEvent) {
			logger.LogAttrs(ctx, slog.LevelDebug, "group sent",
				slog.String("job_id", e.JobID),
				slog.String("device", e.Device),
				slog.Int("group", e.Index),
				slog.Int("total", e.Total),
				slog.Int("bytes", e.Bytes),
			)
		},
	}
}
