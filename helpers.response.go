package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

var EmptyData = struct{}{}

// APIError is the data model sent when an error occurred during request processing.
type APIError struct {
	RequestID string      `json:"requestid"`
	Status    int         `json:"status"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
}

// APIResponse is the data model sent when a request succeed. The omitempty
// flag on the `total` field keeps it for list-shaped replies only.
type APIResponse struct {
	RequestID string      `json:"requestid"`
	Status    int         `json:"status"`
	Message   string      `json:"message"`
	Total     *int        `json:"total,omitempty"`
	Data      interface{} `json:"data"`
}

func NewAPIError(requestid string, status int, message string, data interface{}) *APIError {
	return &APIError{
		RequestID: requestid,
		Status:    status,
		Message:   message,
		Data:      data,
	}
}

func GenericResponse(requestid string, status int, message string, total *int, data interface{}) *APIResponse {
	return &APIResponse{
		RequestID: requestid,
		Status:    status,
		Message:   message,
		Total:     total,
		Data:      data,
	}
}

// WriteErrorResponse is used to send error response to client. When the request
// context is already done the timeout handler or the client took care of the
// connection, so only the stats-relevant status is recorded: 504 on processing
// timeout and the Nginx non standard 499 (Client Closed Request) otherwise.
func WriteErrorResponse(ctx context.Context, w http.ResponseWriter, errResp *APIError) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			w.WriteHeader(http.StatusGatewayTimeout)
		} else {
			w.WriteHeader(499)
		}
		return ctx.Err()
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(errResp.Status)
	return json.NewEncoder(w).Encode(errResp)
}

// WriteResponse is used to send success api response to client. It sets the
// status code to 499 in case client cancelled the request, and to 504 if the
// request processing timed out.
func WriteResponse(ctx context.Context, w http.ResponseWriter, resp *APIResponse) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			w.WriteHeader(http.StatusGatewayTimeout)
		} else {
			w.WriteHeader(499)
		}
		return ctx.Err()
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(resp.Status)
	return json.NewEncoder(w).Encode(resp)
}

// statsResponseWriter wraps http.ResponseWriter to record the status code
// and body size for the logging middleware and the stats counters.
type statsResponseWriter struct {
	http.ResponseWriter
	code  int
	bytes int
	wrote bool
}

func newStatsResponseWriter(rw http.ResponseWriter) *statsResponseWriter {
	return &statsResponseWriter{ResponseWriter: rw, code: http.StatusOK}
}

// WriteHeader records the first status code written.
func (sw *statsResponseWriter) WriteHeader(code int) {
	if !sw.wrote {
		sw.code = code
		sw.wrote = true
		sw.ResponseWriter.WriteHeader(code)
	}
}

// Write implements io.Writer and accumulates the body size.
func (sw *statsResponseWriter) Write(b []byte) (int, error) {
	if !sw.wrote {
		sw.WriteHeader(sw.code)
	}
	n, err := sw.ResponseWriter.Write(b)
	sw.bytes += n
	return n, err
}

// Status returns the written status code.
func (sw *statsResponseWriter) Status() int {
	return sw.code
}

// Bytes returns bytes written as response body.
func (sw *statsResponseWriter) Bytes() int {
	return sw.bytes
}

// Unwrap returns the native response writer, used by
// the http.ResponseController during its operation.
func (sw *statsResponseWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}
