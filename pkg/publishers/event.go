package publishers

import (
	"strconv"
	"time"

	"github.com/samvad-hq/restclient/internal/domain"
)

// Event represents the payload published downstream.
type Event struct {
	RunID       string          `json:"run_id"`
	Exchange    domain.Exchange `json:"exchange"`
	PublishedAt time.Time       `json:"published_at"`
}

// NewEvent constructs an Event for one finished exchange.
func NewEvent(runID string, ex domain.Exchange) Event {
	return Event{
		RunID:       runID,
		Exchange:    ex,
		PublishedAt: time.Now().UTC(),
	}
}

// Attributes returns routing metadata for brokers. Empty values are omitted.
func (e Event) Attributes() map[string]string {
	attrs := map[string]string{
		"run_id":     e.RunID,
		"request_id": e.Exchange.RequestID,
		"method":     e.Exchange.Method,
		"outcome":    string(e.Exchange.Outcome),
	}
	if e.Exchange.StatusCode != 0 {
		attrs["status_code"] = strconv.Itoa(e.Exchange.StatusCode)
	}
	for k, v := range attrs {
		if v == "" {
			delete(attrs, k)
		}
	}
	return attrs
}
