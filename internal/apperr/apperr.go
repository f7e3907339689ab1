// Package apperr is the error taxonomy shared by the API client, the repositories
// and the views. Callers match with errors.Is against the sentinels and use
// errors.As to get at status codes or field messages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrRequestFailed      = errors.New("request failed")
	ErrNotFound           = errors.New("not found")
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrEncoding           = errors.New("request could not be encoded")
)

// ValidationError lists the fields that failed a local pre-condition.
// No request is sent when one of these is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// RequestError is a non-2xx response. A 404 also matches ErrNotFound.
type RequestError struct {
	Op      string
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s: %s %s: status %d: %s", e.Op, e.Method, e.Path, e.Status, msg)
}

func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrRequestFailed:
		return true
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// NetworkError is a request that could not be sent or completed.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network unavailable: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetworkUnavailable
}

// EncodeError is a request body that could not be built. Nothing was sent.
type EncodeError struct {
	Op  string
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("%s: encode request: %v", e.Op, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

func (e *EncodeError) Is(target error) bool {
	return target == ErrEncoding
}

// Status returns the HTTP status carried by err, or 0.
func Status(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	return 0
}

// UserMessage renders err as the one line shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var valErr *ValidationError
	var reqErr *RequestError
	switch {
	case errors.As(err, &valErr):
		return strings.TrimPrefix(valErr.Error(), "validation failed: ")
	case errors.Is(err, ErrNotFound):
		return "it no longer exists"
	case errors.As(err, &reqErr):
		if reqErr.Message != "" {
			return fmt.Sprintf("the server rejected the request (%d): %s", reqErr.Status, reqErr.Message)
		}
		return fmt.Sprintf("the server rejected the request (%d)", reqErr.Status)
	case errors.Is(err, ErrNetworkUnavailable):
		return "the server could not be reached"
	case errors.Is(err, ErrEncoding):
		return "the request could not be built"
	default:
		return err.Error()
	}
}
