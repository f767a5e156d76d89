package httpclient

import (
	"context"
	"time"
)

// LoggingTransport decorates a Transport with one structured log line per exchange.
type LoggingTransport struct {
	next Transport
	log  Logger
}

// NewLoggingTransport wraps next. A nil logger disables output.
func NewLoggingTransport(next Transport, log Logger) *LoggingTransport {
	if next == nil {
		next = NewRestyTransport()
	}
	return &LoggingTransport{next: next, log: ensureLogger(log)}
}

func (l *LoggingTransport) Do(ctx context.Context, req *TransportRequest) (*TransportResponse, error) {
	start := time.Now()
	resp, err := l.next.Do(ctx, req)
	meta := map[string]any{
		"method":     string(req.Method),
		"url":        req.URL,
		"timeout_ms": req.Timeout.Milliseconds(),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		meta["error"] = err.Error()
		meta["timeout"] = isTimeout(err)
		l.log.WarnObj("http exchange failed", "http_exchange", meta)
		return nil, err
	}
	meta["status_code"] = resp.StatusCode
	meta["response_bytes"] = len(resp.Body)
	l.log.DebugObj("http exchange completed", "http_exchange", meta)
	return resp, nil
}
