package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer names per service.
const (
	TracerIAM     = "hospitality/services/iam"
	TracerCheckin = "hospitality/services/checkin"
	TracerGuest   = "hospitality/services/guest"
)

// StartSpan creates a new span for a service operation.
//
//	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerCheckin, "checkin.Checkin",
//	    attribute.String(telemetry.AttrGuestID, guestID),
//	)
//	defer span.End()
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// RecordError records an error on the span and sets the span status to error.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// AddEvent adds a named event to the span.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// Span attribute keys
const (
	AttrPrincipalID   = "principal.id"
	AttrPrincipalRole = "principal.role"
	AttrStadiumID     = "stadium.id"

	AttrGuestID     = "guest.id"
	AttrRoomID      = "room.id"
	AttrAccessType  = "access.type"
	AttrTokenType   = "token.type"
	AttrFingerprint = "token.fingerprint"
)
