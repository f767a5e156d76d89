package httpclient

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Transport performs exactly one HTTP exchange. Implementations must report
// connect/read timeouts as errors satisfying errors.Is(err, context.DeadlineExceeded)
// or net.Error.Timeout().
type Transport interface {
	Do(ctx context.Context, req *TransportRequest) (*TransportResponse, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *TransportRequest) (*TransportResponse, error)

func (f TransportFunc) Do(ctx context.Context, req *TransportRequest) (*TransportResponse, error) {
	return f(ctx, req)
}

// TransportRequest is the transport-level view of a dispatch.
type TransportRequest struct {
	URL        string
	Method     Method
	Headers    map[string]string
	Query      map[string]string
	Payload    Payload
	ExpectJSON bool
	Decompress bool
	Timeout    time.Duration
}

// TransportResponse is the raw reply handed back by a Transport.
type TransportResponse struct {
	Headers    http.Header
	Body       []byte
	StatusCode int
}

// Payload is one of JSONPayload, FormPayload or MultipartPayload.
type Payload interface {
	payload()
}

// JSONPayload is serialized by the transport's JSON codec. A []byte Value is
// sent as-is, already encoded.
type JSONPayload struct {
	Value any
}

// FormPayload is sent as application/x-www-form-urlencoded.
type FormPayload struct {
	Fields map[string]string
}

// MultipartPayload is sent as multipart/form-data.
type MultipartPayload struct {
	Fields map[string]string
	Files  []FilePart
}

// FilePart is a resolved multipart file entry.
type FilePart struct {
	Field       string
	FileName    string
	ContentType string
	Reader      io.Reader
}

func (JSONPayload) payload()      {}
func (FormPayload) payload()      {}
func (MultipartPayload) payload() {}

// Operation is one verb of the client, bound to its method.
type Operation func(ctx context.Context, spec RequestSpec) (*Response, error)

// Dispatcher abstracts the verb surface so callers can inject fakes.
type Dispatcher interface {
	Get(ctx context.Context, spec RequestSpec) (*Response, error)
	Post(ctx context.Context, spec RequestSpec) (*Response, error)
	Put(ctx context.Context, spec RequestSpec) (*Response, error)
	Delete(ctx context.Context, spec RequestSpec) (*Response, error)
	Do(ctx context.Context, method Method, spec RequestSpec) (*Response, error)
}

// Logger defines the logging surface used by transport decorators.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
