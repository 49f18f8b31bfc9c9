// internal/component/respond.go
//
// JSON helpers shared by component handlers.  Error bodies carry a short
// public message only; the underlying error goes to the request logger.

package component

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/yanizio/demosite/internal/logger"
)

// MaxBody caps JSON request bodies.
const MaxBody = 1 << 20

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Fail writes {"error": msg}.  For 5xx statuses err is logged with the
// request logger.
func Fail(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	if status >= http.StatusInternalServerError && err != nil {
		logger.From(r.Context()).Errorw(msg, "status", status, "path", r.URL.Path, "err", err)
	} else if err != nil {
		logger.From(r.Context()).Debugw(msg, "status", status, "path", r.URL.Path, "err", err)
	}
	JSON(w, status, map[string]string{"error": msg})
}

// Invalid writes 422 with per-field messages.
func Invalid(w http.ResponseWriter, fields map[string]string) {
	JSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":  "validation failed",
		"fields": fields,
	})
}

// ReadBody returns the request body, capped at MaxBody.
func ReadBody(r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r.Body, MaxBody+1))
	if err != nil {
		return nil, err
	}
	if len(b) > MaxBody {
		return nil, errors.New("request body too large")
	}
	return b, nil
}

// Decode reads a JSON body into dst, rejecting unknown fields.
func Decode(r *http.Request, dst any) error {
	b, err := ReadBody(r)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	return nil
}
