package fetch

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrDataUnavailable matches every failure where no transport produced
	// a usable JSON body.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrMalformedResponse matches valid JSON that lacks the expected shape.
	ErrMalformedResponse = errors.New("malformed response")
)

// NetworkError means the transport failed before a response was received.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", verb(e.Method), e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError means the upstream answered with a non-2xx status.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", verb(e.Method), e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// ParseError means a 2xx body was not valid JSON.
type ParseError struct {
	Method  string
	URL     string
	Snippet string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %s: body is not valid JSON: %q", verb(e.Method), e.URL, e.Snippet)
}

func verb(method string) string {
	if method == "" {
		return http.MethodGet
	}
	return method
}

// DataUnavailableError carries the cause from each transport that was tried.
// Fallback is nil when no fallback was configured.
type DataUnavailableError struct {
	Resource string
	Primary  error
	Fallback error
}

func (e *DataUnavailableError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "data unavailable for %s: primary: %v", e.Resource, e.Primary)
	if e.Fallback != nil {
		fmt.Fprintf(&b, "; fallback: %v", e.Fallback)
	} else {
		b.WriteString("; no fallback")
	}
	return b.String()
}

func (e *DataUnavailableError) Is(target error) bool { return target == ErrDataUnavailable }

func (e *DataUnavailableError) Unwrap() []error {
	var errs []error
	if e.Primary != nil {
		errs = append(errs, e.Primary)
	}
	if e.Fallback != nil {
		errs = append(errs, e.Fallback)
	}
	return errs
}

// MalformedResponseError is returned verbatim and never retried.
type MalformedResponseError struct {
	Resource string
	Missing  []string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("malformed response for %s: missing %s", e.Resource, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("malformed response for %s: %v", e.Resource, e.Err)
}

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Malformed builds a MalformedResponseError for callers that validate the
// decoded payload themselves.
func Malformed(resource string, err error) error {
	return &MalformedResponseError{Resource: resource, Err: err}
}

// UserMessage maps an error from Resolve to a message fit for display.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedResponse):
		return "The data source changed its format. Some information cannot be shown right now."
	case errors.Is(err, ErrDataUnavailable):
		return "Data is temporarily unavailable. Please try again in a moment."
	default:
		return "Something went wrong loading this data."
	}
}

// Retryable reports whether a later attempt may succeed: network failures,
// 408, 429 and 5xx. Malformed responses never are.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, ErrMalformedResponse) {
		return false
	}
	var nerr *NetworkError
	if errors.As(err, &nerr) {
		return true
	}
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.StatusCode == http.StatusRequestTimeout ||
			herr.StatusCode == http.StatusTooManyRequests ||
			herr.StatusCode >= 500
	}
	return false
}
