// Package respond writes JSON bodies and translates domain errors into
// HTTP responses. It is the only place that maps apperr kinds to status codes.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/apperr"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/logging"
)

// ErrorBody is the envelope of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failure to clients.
type ErrorDetail struct {
	Kind    apperr.Kind    `json:"kind"`
	Code    apperr.Code    `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes err as an error envelope. Non-domain errors are logged and
// reported as INTERNAL without their message.
func Error(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	e, ok := apperr.As(err)
	if !ok {
		logging.FromContext(r.Context(), log).WithError(err).
			WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).
			Error("request failed")
		e = apperr.New(apperr.CodeInternal, "internal server error")
	} else if e.Kind() == apperr.KindInternal {
		logging.FromContext(r.Context(), log).WithError(err).Error("request failed")
		e = apperr.New(e.Code, "internal server error")
	}

	if e.Kind() == apperr.KindAuth {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}

	JSON(w, e.Kind().HTTPStatus(), ErrorBody{Error: ErrorDetail{
		Kind:    e.Kind(),
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}})
}

const maxBodyBytes = 1 << 20

// Decode reads a JSON request body into v, rejecting unknown fields.
func Decode(r *http.Request, v any) error {
	if err := decode(r, v); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}

// DecodeOptional is Decode for endpoints whose body may be empty.
func DecodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	if err := decode(r, v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
