package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ServerMetrics holds metric instruments for HTTP server telemetry.
type ServerMetrics struct {
	RequestCounter  metric.Int64Counter
	RequestDuration metric.Float64Histogram
	ErrorCounter    metric.Int64Counter
}

// NewServerMetrics creates HTTP instruments on the global meter provider.
func NewServerMetrics() (*ServerMetrics, error) {
	meter := otel.Meter("hospitality/http")

	requestCounter, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"http.server.error.count",
		metric.WithDescription("Total number of HTTP server errors (5xx)"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &ServerMetrics{
		RequestCounter:  requestCounter,
		RequestDuration: requestDuration,
		ErrorCounter:    errorCounter,
	}, nil
}

// RecordRequest records an HTTP request. Safe on a nil receiver.
func (m *ServerMetrics) RecordRequest(ctx context.Context, method, route string, status int, durationMs float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPRoute, route),
		attribute.Int(AttrHTTPStatusCode, status),
	)
	m.RequestCounter.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, durationMs, attrs)
	if status >= 500 {
		m.ErrorCounter.Add(ctx, 1, attrs)
	}
}

// DomainMetrics counts the outcomes of the core operations.
// All methods are safe on a nil receiver so tests can pass nil.
type DomainMetrics struct {
	CheckinTransitions   metric.Int64Counter
	TokenValidations     metric.Int64Counter
	GuestUpdateConflicts metric.Int64Counter
	BlacklistPurged      metric.Int64Counter
}

// NewDomainMetrics creates the domain instruments on the global meter provider.
func NewDomainMetrics() (*DomainMetrics, error) {
	meter := otel.Meter("hospitality/domain")

	transitions, err := meter.Int64Counter(
		"checkin.transitions",
		metric.WithDescription("Presence transitions by access type and outcome"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	validations, err := meter.Int64Counter(
		"auth.token.validations",
		metric.WithDescription("Token validations by token type and result code"),
		metric.WithUnit("{validation}"),
	)
	if err != nil {
		return nil, err
	}

	conflicts, err := meter.Int64Counter(
		"guest.update.conflicts",
		metric.WithDescription("Guest updates rejected because of a stale version"),
		metric.WithUnit("{conflict}"),
	)
	if err != nil {
		return nil, err
	}

	purged, err := meter.Int64Counter(
		"auth.blacklist.purged",
		metric.WithDescription("Expired blacklist entries removed"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	return &DomainMetrics{
		CheckinTransitions:   transitions,
		TokenValidations:     validations,
		GuestUpdateConflicts: conflicts,
		BlacklistPurged:      purged,
	}, nil
}

// RecordTransition counts a checkin/checkout attempt. outcome is "ok" or an error code.
func (m *DomainMetrics) RecordTransition(ctx context.Context, accessType, outcome string) {
	if m == nil {
		return
	}
	m.CheckinTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrAccessType, accessType),
		attribute.String(AttrOutcome, outcome),
	))
}

// RecordValidation counts a token validation. outcome is "ok" or an error code.
func (m *DomainMetrics) RecordValidation(ctx context.Context, tokenType, outcome string) {
	if m == nil {
		return
	}
	m.TokenValidations.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrTokenType, tokenType),
		attribute.String(AttrOutcome, outcome),
	))
}

// RecordConflict counts a rejected optimistic update.
func (m *DomainMetrics) RecordConflict(ctx context.Context, entity string) {
	if m == nil {
		return
	}
	m.GuestUpdateConflicts.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", entity)))
}

// RecordPurge counts removed blacklist rows.
func (m *DomainMetrics) RecordPurge(ctx context.Context, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.BlacklistPurged.Add(ctx, n)
}

// DatabaseMetrics holds metric instruments for database operations.
type DatabaseMetrics struct {
	QueryCounter  metric.Int64Counter
	QueryDuration metric.Float64Histogram
	QueryErrors   metric.Int64Counter
}

// NewDatabaseMetrics creates metric instruments for database telemetry.
func NewDatabaseMetrics() (*DatabaseMetrics, error) {
	meter := otel.Meter("hospitality/database")

	queryCounter, err := meter.Int64Counter(
		"db.query.count",
		metric.WithDescription("Total number of database queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, err
	}

	queryDuration, err := meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Database query duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2000),
	)
	if err != nil {
		return nil, err
	}

	queryErrors, err := meter.Int64Counter(
		"db.query.error.count",
		metric.WithDescription("Total number of database query errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &DatabaseMetrics{
		QueryCounter:  queryCounter,
		QueryDuration: queryDuration,
		QueryErrors:   queryErrors,
	}, nil
}

var _ bun.QueryHook = (*DatabaseMetrics)(nil)

func (d *DatabaseMetrics) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

// AfterQuery records every bun query with its operation type.
func (d *DatabaseMetrics) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	attrs := metric.WithAttributes(attribute.String(AttrDBOperation, event.Operation()))
	durationMs := float64(time.Since(event.StartTime).Microseconds()) / 1000

	d.QueryCounter.Add(ctx, 1, attrs)
	d.QueryDuration.Record(ctx, durationMs, attrs)
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		d.QueryErrors.Add(ctx, 1, attrs)
	}
}

// Metric attribute keys
const (
	AttrHTTPMethod     = "http.method"
	AttrHTTPRoute      = "http.route"
	AttrHTTPStatusCode = "http.status_code"
	AttrDBOperation    = "db.operation"
	AttrOutcome        = "outcome"
)
