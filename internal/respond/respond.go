package respond

import (
	"encoding/json"
	"net/http"

	"github.com/ayush/feed-api/internal/apperr"
	"github.com/ayush/feed-api/internal/logger"
	"github.com/ayush/feed-api/internal/metrics"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string              `json:"message"`
	Data    []apperr.FieldError `json:"data,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error is the single place errors become HTTP responses. Unclassified
// errors are reported as 500 without leaking their text.
func Error(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	if err == nil {
		return
	}

	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Internal(err)
	}
	status := e.Status()
	metrics.ErrorsTotal.WithLabelValues(string(e.Kind)).Inc()

	entry := log.WithFields(r.Context(), logger.Fields{
		"kind":   e.Kind,
		"status": status,
		"method": r.Method,
		"path":   r.URL.Path,
	})
	if status >= http.StatusInternalServerError {
		entry.Errorf("request failed: %v", err)
	} else {
		entry.Debug(e.Error())
	}

	JSON(w, status, ErrorBody{Message: e.Message, Data: e.Details})
}

// DecodeJSON decodes the request body into v.
func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
