package portal

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/voicedesk/pkg/logger"
)

// Response renders itself to an http.ResponseWriter.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Envelope is the body of every JSON response.
type Envelope struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type jsonResponse struct {
	status int
	body   Envelope
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON wraps v in the data envelope with status 200 unless overridden.
func JSON(v any, status ...int) Response {
	r := jsonResponse{status: http.StatusOK, body: Envelope{Data: v}}
	if len(status) > 0 {
		r.status = status[0]
	}
	return r
}

// JSONError maps err to a status and error code.
func JSONError(err error) Response {
	status, code, message := classify(err)
	return jsonResponse{status: status, body: Envelope{Error: &ErrorDetail{Code: code, Message: message}}}
}

type noContent struct{}

func (noContent) Render(w http.ResponseWriter, _ *http.Request) error {
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Component matches github.com/a-h/templ.Component.
type Component interface {
	Render(ctx context.Context, w io.Writer) error
}

type htmlResponse struct {
	status    int
	component Component
}

func (h htmlResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(h.status)
	return h.component.Render(r.Context(), w)
}

// HTML renders a templ component.
func HTML(c Component, status ...int) Response {
	h := htmlResponse{status: http.StatusOK, component: c}
	if len(status) > 0 {
		h.status = status[0]
	}
	return h
}

// handle adapts a Response-returning function to http.HandlerFunc. Server errors
// and render failures are logged.
func handle(log *slog.Logger, fn func(r *http.Request) Response) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := fn(r)
		if resp == nil {
			resp = JSONError(errNilResponse)
		}
		if j, ok := resp.(jsonResponse); ok && j.status >= http.StatusInternalServerError {
			log.ErrorContext(r.Context(), "request failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", j.status),
				slog.String("code", j.body.Error.Code),
			)
		}
		if err := resp.Render(w, r); err != nil {
			log.ErrorContext(r.Context(), "failed to render response", logger.Error(err))
		}
	}
}
