package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// RestyTransport adapts resty.Client to the Transport interface.
type RestyTransport struct {
	client *resty.Client
}

// TransportOption customizes the underlying resty.Client.
type TransportOption func(*resty.Client)

// WithFollowRedirects toggles automatic redirect following. When disabled a 3xx
// reply is returned as-is and surfaces as a ResponseError.
func WithFollowRedirects(follow bool) TransportOption {
	return func(c *resty.Client) {
		if follow {
			return
		}
		c.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}))
	}
}

// WithUserAgent sets a default User-Agent; request headers still override it.
func WithUserAgent(ua string) TransportOption {
	return func(c *resty.Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.SetHeader("User-Agent", ua)
		}
	}
}

// WithTransportLogger routes resty's internal warnings to log.
func WithTransportLogger(log Logger) TransportOption {
	return func(c *resty.Client) {
		c.SetLogger(restyLogger{log: ensureLogger(log)})
	}
}

// WithHTTPClient builds on a caller-provided *http.Client.
func WithHTTPClient(hc *http.Client) TransportOption {
	return func(c *resty.Client) {
		if hc == nil {
			return
		}
		if hc.Transport != nil {
			c.SetTransport(hc.Transport)
		}
		if hc.Jar != nil {
			c.SetCookieJar(hc.Jar)
		}
	}
}

// NewRestyTransport creates a RestyTransport. Timeouts are applied per request
// through the context, so the client itself carries none.
func NewRestyTransport(opts ...TransportOption) *RestyTransport {
	return &RestyTransport{client: newRestyBaseClient(opts...)}
}

// newRestyBaseClient creates a new resty.Client with the given options applied.
func newRestyBaseClient(opts ...TransportOption) *resty.Client {
	c := resty.New()
	c.SetLogger(restyLogger{log: noopLogger{}})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs one exchange. Transport errors are returned exactly as resty reports them.
func (r *RestyTransport) Do(ctx context.Context, tr *TransportRequest) (*TransportResponse, error) {
	req := r.client.R().SetContext(ctx)
	if len(tr.Headers) > 0 {
		req.SetHeaders(tr.Headers)
	}
	if len(tr.Query) > 0 {
		req.SetQueryParams(tr.Query)
	}
	if !tr.Decompress {
		req.SetHeader("Accept-Encoding", "identity")
	}
	if tr.ExpectJSON && req.Header.Get("Accept") == "" {
		req.SetHeader("Accept", "application/json")
	}

	switch p := tr.Payload.(type) {
	case nil:
	case JSONPayload:
		if req.Header.Get("Content-Type") == "" {
			req.SetHeader("Content-Type", "application/json")
		}
		body, err := jsonBody(p.Value)
		if err != nil {
			return nil, err
		}
		req.SetBody(body)
	case FormPayload:
		req.SetFormData(p.Fields)
	case MultipartPayload:
		if len(p.Fields) == 0 && len(p.Files) == 0 {
			emptyMultipart(req)
			break
		}
		req.SetMultipartFormData(p.Fields)
		for _, f := range p.Files {
			req.SetMultipartField(f.Field, f.FileName, f.ContentType, f.Reader)
		}
	default:
		return nil, fmt.Errorf("unsupported payload type %T", p)
	}

	resp, err := req.Execute(string(tr.Method), tr.URL)
	if err != nil {
		return nil, err
	}
	return &TransportResponse{
		Headers:    resp.Header(),
		Body:       resp.Body(),
		StatusCode: resp.StatusCode(),
	}, nil
}

// jsonBody encodes string values itself because resty sends strings raw.
// A []byte value is taken as already-encoded JSON.
func jsonBody(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode json body: %w", err)
	}
	return raw, nil
}

// emptyMultipart sends a closed multipart body with no parts. resty only
// switches to multipart when it has fields or files to write.
func emptyMultipart(req *resty.Request) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.Close()
	req.SetHeader("Content-Type", w.FormDataContentType())
	req.SetBody(buf.Bytes())
}

// restyLogger adapts Logger to resty.Logger.
type restyLogger struct {
	log Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.log.ErrorObj("resty error", "transport_message", fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.log.WarnObj("resty warning", "transport_message", fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.log.DebugObj("resty debug", "transport_message", fmt.Sprintf(format, v...))
}
