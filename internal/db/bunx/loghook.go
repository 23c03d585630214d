package bunx

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
)

// LogHook logs every query at debug level and failed queries at warn.
type LogHook struct {
	Log logrus.FieldLogger
	// SlowThreshold promotes slow queries to info level. Zero disables.
	SlowThreshold time.Duration
}

var _ bun.QueryHook = (*LogHook)(nil)

func (h *LogHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *LogHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	elapsed := time.Since(event.StartTime)
	entry := h.Log.WithFields(logrus.Fields{
		"operation": event.Operation(),
		"duration":  elapsed.String(),
	})

	switch {
	case event.Err != nil && !isNoRows(event.Err):
		entry.WithError(event.Err).Warn(event.Query)
	case h.SlowThreshold > 0 && elapsed >= h.SlowThreshold:
		entry.Info("slow query: " + event.Query)
	default:
		entry.Debug(event.Query)
	}
}
