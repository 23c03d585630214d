package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput_JSON(t *testing.T) {
	out := bytes.NewBuffer(nil)
	log := NewWithOutput(out, FormatJSON, false)

	log.WithField("pkg", "checkin").Info("guest entered")
	log.Debug("suppressed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.Split(out.Bytes(), []byte("\n"))[0], &line))
	assert.Equal(t, "guest entered", line["msg"])
	assert.Equal(t, "checkin", line["pkg"])
	assert.NotContains(t, out.String(), "suppressed")
}

func TestFromContext(t *testing.T) {
	out := bytes.NewBuffer(nil)
	root := NewWithOutput(out, FormatText, true)

	h := chimiddleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context(), root).Warn("test")
	}))

	req := httptest.NewRequest(http.MethodGet, "http://example.org", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "1234")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, out.String(), "request_id=1234")
}

func TestFromContext_StoredLoggerWins(t *testing.T) {
	out := bytes.NewBuffer(nil)
	root := NewWithOutput(out, FormatText, true)

	ctx := WithLogger(context.Background(), root.WithField("user_id", "u-1"))
	FromContext(ctx, root).Info("hello")

	assert.Contains(t, out.String(), "user_id=u-1")
}

func TestRequestFields(t *testing.T) {
	t.Run("without holder", func(t *testing.T) {
		ctx := context.Background()
		AddRequestFields(ctx, logrus.Fields{"user_id": "u-1"})
		assert.Empty(t, RequestFields(ctx))
	})

	t.Run("inner additions visible to outer context", func(t *testing.T) {
		outer := WithRequestFields(context.Background())
		inner := context.WithValue(outer, struct{}{}, "child")
		AddRequestFields(inner, logrus.Fields{"user_id": "u-1", "role": "hostess"})

		fields := RequestFields(outer)
		assert.Equal(t, "u-1", fields["user_id"])
		assert.Equal(t, "hostess", fields["role"])

		fields["user_id"] = "mutated"
		assert.Equal(t, "u-1", RequestFields(outer)["user_id"])
	})
}
