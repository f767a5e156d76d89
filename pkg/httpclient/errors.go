package httpclient

import (
	"errors"
	"fmt"
	"time"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrClientUsage = errors.New("client usage error")
	ErrResponse    = errors.New("response error")
	ErrTimeout     = errors.New("request timed out")
)

// ClientUsageError reports invalid caller input. It is raised before any
// network activity.
type ClientUsageError struct {
	Method Method
	Reason string
}

func (e *ClientUsageError) Error() string {
	if e.Method == "" {
		return "rest client usage: " + e.Reason
	}
	return fmt.Sprintf("rest client usage: %s request: %s", e.Method, e.Reason)
}

func (e *ClientUsageError) Is(target error) bool { return target == ErrClientUsage }

// ResponseError reports a reply whose status is not acceptable. Response is the
// normalized reply that produced it.
type ResponseError struct {
	Method   Method
	URL      string
	Response *Response
}

func (e *ResponseError) Error() string {
	code := 0
	if e.Response != nil {
		code = e.Response.StatusCode
	}
	return fmt.Sprintf("rest client response: %s %s returned status %d", e.Method, e.URL, code)
}

func (e *ResponseError) Is(target error) bool { return target == ErrResponse }

// TimeoutError reports that the timeout budget elapsed before a reply arrived.
type TimeoutError struct {
	Method  Method
	URL     string
	Timeout time.Duration
	Cause   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("rest client timeout: %s %s: server not responding after %dms: %v",
		e.Method, e.URL, e.Timeout.Milliseconds(), e.Cause)
}

func (e *TimeoutError) Unwrap() error { return e.Cause }

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

func usageError(m Method, format string, args ...any) error {
	return &ClientUsageError{Method: m, Reason: fmt.Sprintf(format, args...)}
}
