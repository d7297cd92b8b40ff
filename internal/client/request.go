package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// StatusTokenMismatch is the status Laravel answers with when the CSRF token
// sent does not match the session's.
const StatusTokenMismatch = 419

// Request describes one logical API call. A Request may be replayed once after
// a token mismatch; Retried reports whether that happened during the last Do.
// Each call to Do starts with the marker cleared.
type Request struct {
	Method string
	// Path is resolved against the backend origin and may carry a query string.
	Path   string
	Header http.Header
	Body   []byte

	retried bool
}

func NewRequest(method, path string, body []byte) *Request {
	return &Request{
		Method: method,
		Path:   path,
		Header: make(http.Header),
		Body:   body,
	}
}

func (r *Request) Retried() bool { return r.retried }

// markRetried flips the retried marker and reports whether it was still unset.
func (r *Request) markRetried() bool {
	if r.retried {
		return false
	}
	r.retried = true
	return true
}

func (r *Request) mutating() bool {
	switch strings.ToUpper(r.Method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace, "":
		return false
	default:
		return true
	}
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r *Response) Decode(out any) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// StatusError is returned for any response with a status of 400 or above.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	msg := e.Message()
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, msg)
}

// Message returns the "message" field of a Laravel JSON error body, if any.
func (e *StatusError) Message() string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Body, &payload); err != nil {
		return ""
	}
	return payload.Message
}

// FieldErrors returns the per-field messages of a 422 validation response.
func (e *StatusError) FieldErrors() map[string][]string {
	var payload struct {
		Errors map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(e.Body, &payload); err != nil {
		return nil
	}
	return payload.Errors
}
