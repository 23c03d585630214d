// Package logging configures the logrus logger and carries request-scoped
// fields through context.
package logging

import (
	"context"
	"io"
	"os"
	"sync"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Log formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New returns a root logger writing to stderr.
func New(format string, debug bool) *logrus.Logger {
	return NewWithOutput(os.Stderr, format, debug)
}

// NewWithOutput returns a root logger writing to out.
func NewWithOutput(out io.Writer, format string, debug bool) *logrus.Logger {
	log := logrus.New()
	log.Out = out

	if format == FormatJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	log.SetLevel(logrus.InfoLevel)
	if debug {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

type ctxKey struct{}

// WithLogger stores a request-scoped logger in ctx.
func WithLogger(ctx context.Context, log logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the logger stored in ctx, or inner enriched with the
// chi request id when none was stored.
func FromContext(ctx context.Context, inner logrus.FieldLogger) logrus.FieldLogger {
	if log, ok := ctx.Value(ctxKey{}).(logrus.FieldLogger); ok {
		return log
	}
	if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
		return inner.WithField("request_id", reqID)
	}
	return inner
}

type fieldsKey struct{}

type requestFields struct {
	mu     sync.Mutex
	fields logrus.Fields
}

// WithRequestFields installs a holder for fields that inner handlers learn
// about the request, such as the authenticated user.
func WithRequestFields(ctx context.Context) context.Context {
	return context.WithValue(ctx, fieldsKey{}, &requestFields{fields: logrus.Fields{}})
}

// AddRequestFields records fields in the holder installed by
// WithRequestFields. It is a no-op when ctx carries no holder.
func AddRequestFields(ctx context.Context, fields logrus.Fields) {
	h, ok := ctx.Value(fieldsKey{}).(*requestFields)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for k, v := range fields {
		h.fields[k] = v
	}
}

// RequestFields returns a copy of the fields recorded in ctx.
func RequestFields(ctx context.Context) logrus.Fields {
	out := logrus.Fields{}
	h, ok := ctx.Value(fieldsKey{}).(*requestFields)
	if !ok {
		return out
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for k, v := range h.fields {
		out[k] = v
	}
	return out
}
