package domain

import "time"

// Domain contains core models shared by the runner, the journal and publishers.

// Outcome classifies how a dispatch ended.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeResponseError  Outcome = "response_error"
	OutcomeTimeout        Outcome = "timeout"
	OutcomeUsageError     Outcome = "usage_error"
	OutcomeTransportError Outcome = "transport_error"
)

// Outcomes lists every outcome in reporting order.
var Outcomes = []Outcome{
	OutcomeOK,
	OutcomeResponseError,
	OutcomeTimeout,
	OutcomeUsageError,
	OutcomeTransportError,
}

// Exchange is the record of one dispatched request.
type Exchange struct {
	ID            string        `json:"id"`
	RunID         string        `json:"run_id,omitempty"`
	RequestID     string        `json:"request_id,omitempty"`
	Method        string        `json:"method"`
	URL           string        `json:"url"`
	StatusCode    int           `json:"status_code,omitempty"`
	Outcome       Outcome       `json:"outcome"`
	Error         string        `json:"error,omitempty"`
	ResponseBytes int           `json:"response_bytes"`
	Duration      time.Duration `json:"duration_ns"`
	StartedAt     time.Time     `json:"started_at"`
}

// OK reports whether the exchange succeeded.
func (e Exchange) OK() bool {
	return e.Outcome == OutcomeOK
}
