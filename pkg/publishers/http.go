package publishers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/restclient/pkg/httpclient"
)

type httpPublisher struct {
	id      string
	method  httpclient.Method
	url     string
	headers map[string]string
	timeout time.Duration
	client  httpclient.Dispatcher
	typ     string
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	method, err := httpclient.ParseMethod(cfg.HTTP.Method)
	if err != nil {
		return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}

	transport := httpclient.NewLoggingTransport(httpclient.NewRestyTransport(), ensureLogger(log))

	return &httpPublisher{
		id:      cfg.ID,
		typ:     TypeHTTP,
		method:  method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		client:  httpclient.NewClient(httpclient.WithTransport(transport)),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return h.typ }

func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	_, err := h.client.Do(ctx, h.method, httpclient.RequestSpec{
		URL:     h.url,
		Headers: h.headers,
		Body:    evt,
		Timeout: h.timeout,
	})
	if err == nil {
		return nil
	}

	var respErr *httpclient.ResponseError
	if errors.As(err, &respErr) {
		return fmt.Errorf("http response status %d: %s", respErr.Response.StatusCode, readBodySnippet(respErr.Response.Raw()))
	}
	return fmt.Errorf("http request: %w", err)
}

func readBodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
