package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/apperr"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   apperr.Code
		wantMsg    string
	}{
		{"conflict with details", apperr.New(apperr.CodeAlreadyCheckedIn, "guest inside").WithDetail("hostess_id", "h-1"), http.StatusConflict, apperr.CodeAlreadyCheckedIn, "guest inside"},
		{"revoked", apperr.New(apperr.CodeTokenRevoked, "token revoked"), http.StatusUnauthorized, apperr.CodeTokenRevoked, "token revoked"},
		{"validation", apperr.Validation("bad"), http.StatusUnprocessableEntity, apperr.CodeValidationFailed, "bad"},
		{"plain error hides message", errors.New("dial tcp: refused"), http.StatusInternalServerError, apperr.CodeInternal, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			Error(rec, req, quietLogger(), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantMsg, body.Error.Message)
		})
	}
}

func TestErrorAuthSetsChallenge(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), quietLogger(), apperr.New(apperr.CodeTokenExpired, "expired"))
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
}

func TestDecode(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, Decode(req, &v))
	assert.Equal(t, "x", v.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nope":1}`))
	err := Decode(req, &v)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidationFailed))
}

func TestDecodeOptional(t *testing.T) {
	var v struct {
		Device string `json:"device_type"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	require.NoError(t, DecodeOptional(req, &v))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	require.NoError(t, DecodeOptional(req, &v))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"device_type":"tablet"}`))
	require.NoError(t, DecodeOptional(req, &v))
	assert.Equal(t, "tablet", v.Device)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.Error(t, DecodeOptional(req, &v))
}
