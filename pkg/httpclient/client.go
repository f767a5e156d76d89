package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"

	"github.com/samvad-hq/restclient/pkg/status"
)

// Client dispatches GET/POST/PUT/DELETE calls through a Transport and maps the
// outcome onto Response, ClientUsageError, ResponseError or TimeoutError.
// Any other transport failure is returned unchanged. A Client holds no mutable
// state and is safe for concurrent use.
type Client struct {
	transport Transport
	validate  *validator.Validate
}

// Option customizes a Client.
type Option func(*Client)

// WithTransport replaces the default resty transport.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// NewClient builds a Client. Without WithTransport it uses a RestyTransport.
func NewClient(opts ...Option) *Client {
	c := &Client{validate: validator.New()}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = NewRestyTransport()
	}
	return c
}

// Get sends a GET request described by spec.
func (c *Client) Get(ctx context.Context, spec RequestSpec) (*Response, error) {
	return c.Do(ctx, MethodGet, spec)
}

// Post sends a POST request described by spec.
func (c *Client) Post(ctx context.Context, spec RequestSpec) (*Response, error) {
	return c.Do(ctx, MethodPost, spec)
}

// Put sends a PUT request described by spec.
func (c *Client) Put(ctx context.Context, spec RequestSpec) (*Response, error) {
	return c.Do(ctx, MethodPut, spec)
}

// Delete sends a DELETE request described by spec.
func (c *Client) Delete(ctx context.Context, spec RequestSpec) (*Response, error) {
	return c.Do(ctx, MethodDelete, spec)
}

// Verbs exposes the client as a verb-name to operation table.
func (c *Client) Verbs() map[Method]Operation {
	return map[Method]Operation{
		MethodGet:    c.Get,
		MethodPost:   c.Post,
		MethodPut:    c.Put,
		MethodDelete: c.Delete,
	}
}

// Do performs a single attempt of method against spec.
func (c *Client) Do(ctx context.Context, method Method, spec RequestSpec) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := c.check(method, spec); err != nil {
		return nil, err
	}

	payload, closeFiles, err := buildPayload(method, spec)
	if err != nil {
		return nil, err
	}
	defer closeFiles()

	timeout := spec.EffectiveTimeout()
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := c.transport.Do(callCtx, &TransportRequest{
		URL:        spec.URL,
		Method:     method,
		Headers:    copyMap(spec.Headers),
		Query:      copyMap(spec.Query),
		Payload:    payload,
		ExpectJSON: spec.JSONMode(),
		Decompress: true,
		Timeout:    timeout,
	})
	if err != nil {
		if isTimeout(err) {
			return nil, &TimeoutError{Method: method, URL: spec.URL, Timeout: timeout, Cause: err}
		}
		return nil, err
	}

	resp := normalize(raw, spec.JSONMode())
	if !status.IsAcceptable(resp.StatusCode) {
		return nil, &ResponseError{Method: method, URL: spec.URL, Response: resp}
	}
	return resp, nil
}

// check runs every validation that must fail before the transport is touched.
func (c *Client) check(method Method, spec RequestSpec) error {
	if _, err := ParseMethod(string(method)); err != nil {
		return usageError(method, "%v", err)
	}
	if strings.TrimSpace(spec.URL) == "" {
		return usageError(method, "url parameter cannot be empty")
	}
	if err := c.validate.Struct(spec); err != nil {
		return usageError(method, "invalid request: %s", describeValidation(err))
	}

	enc := spec.EncodingType()
	switch {
	case enc == Multipart && !method.allowsMultipart():
		return usageError(method, "permitted encoding types are: %s", URLEncoded)
	case enc != URLEncoded && enc != Multipart:
		return usageError(method, "permitted encoding types are: %s - %s", URLEncoded, Multipart)
	case len(spec.Files) > 0 && enc != Multipart:
		return usageError(method, "files require %s encoding", Multipart)
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("field %q failed on %q", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, ", ")
}

// buildPayload selects the encoding path. The returned cleanup func is never nil.
func buildPayload(method Method, spec RequestSpec) (Payload, func(), error) {
	noop := func() {}

	switch spec.EncodingType() {
	case Multipart:
		return buildMultipart(method, spec)
	default:
		if method == MethodGet {
			return nil, noop, nil
		}
		if spec.JSONMode() {
			body := spec.Body
			if body == nil {
				body = map[string]any{}
			}
			return JSONPayload{Value: body}, noop, nil
		}
		fields, err := stringFields(spec.Body)
		if err != nil {
			return nil, noop, usageError(method, "form body: %v", err)
		}
		return FormPayload{Fields: fields}, noop, nil
	}
}

func buildMultipart(method Method, spec RequestSpec) (Payload, func(), error) {
	fields, err := stringFields(spec.Body)
	if err != nil {
		return nil, func() {}, usageError(method, "multipart body: %v", err)
	}

	closers := make([]io.Closer, 0, len(spec.Files))
	cleanup := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	parts := make([]FilePart, 0, len(spec.Files))
	for i, f := range spec.Files {
		part, closer, err := f.open()
		if err != nil {
			cleanup()
			return nil, func() {}, usageError(method, "files[%d]: %v", i, err)
		}
		closers = append(closers, closer)
		parts = append(parts, part)
	}
	return MultipartPayload{Fields: fields, Files: parts}, cleanup, nil
}

// stringFields flattens a structured body into string form fields.
func stringFields(body any) (map[string]string, error) {
	if body == nil {
		return map[string]string{}, nil
	}
	m, err := cast.ToStringMapE(body)
	if err != nil {
		// structs and other JSON-shaped values
		raw, mErr := json.Marshal(body)
		if mErr != nil {
			return nil, fmt.Errorf("body of type %T cannot be encoded as fields", body)
		}
		m = map[string]any{}
		if uErr := json.Unmarshal(raw, &m); uErr != nil {
			return nil, fmt.Errorf("body of type %T cannot be encoded as fields", body)
		}
	}

	out := make(map[string]string, len(m))
	for k, v := range m {
		s, err := cast.ToStringE(v)
		if err != nil {
			raw, mErr := json.Marshal(v)
			if mErr != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			s = string(raw)
		}
		out[k] = s
	}
	return out, nil
}

// isTimeout reports whether err is a connect/read timeout rather than another
// transport failure. Cancellation by the caller is not a timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
