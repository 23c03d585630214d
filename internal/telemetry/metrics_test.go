package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainMetrics_NilReceiverIsNoop(t *testing.T) {
	var m *DomainMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordTransition(ctx, "entry", "ok")
		m.RecordValidation(ctx, "access", "TOKEN_REVOKED")
		m.RecordConflict(ctx, "guest")
		m.RecordPurge(ctx, 3)
	})
}

func TestNewInstrumentsOnNoopProvider(t *testing.T) {
	domain, err := NewDomainMetrics()
	require.NoError(t, err)
	server, err := NewServerMetrics()
	require.NoError(t, err)
	db, err := NewDatabaseMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		domain.RecordTransition(ctx, "exit", "ok")
		server.RecordRequest(ctx, "POST", "/guests/{id}/checkin", 201, 12.5)
		_ = db
	})
}
