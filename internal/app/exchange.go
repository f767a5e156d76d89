package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/restclient/internal/domain"
	"github.com/samvad-hq/restclient/pkg/httpclient"
)

// OutcomeOf maps a dispatch error onto the journal outcome.
func OutcomeOf(err error) domain.Outcome {
	switch {
	case err == nil:
		return domain.OutcomeOK
	case errors.Is(err, httpclient.ErrClientUsage):
		return domain.OutcomeUsageError
	case errors.Is(err, httpclient.ErrTimeout):
		return domain.OutcomeTimeout
	case errors.Is(err, httpclient.ErrResponse):
		return domain.OutcomeResponseError
	default:
		return domain.OutcomeTransportError
	}
}

// Dispatch performs one call and describes it as an Exchange. The response is
// the normalized reply, also when the status was rejected.
func Dispatch(ctx context.Context, client httpclient.Dispatcher, method httpclient.Method, spec httpclient.RequestSpec) (*httpclient.Response, domain.Exchange, error) {
	start := time.Now()
	resp, err := client.Do(ctx, method, spec)

	ex := domain.Exchange{
		ID:        uuid.NewString(),
		Method:    string(method),
		URL:       spec.URL,
		Outcome:   OutcomeOf(err),
		Duration:  time.Since(start),
		StartedAt: start.UTC(),
	}

	var respErr *httpclient.ResponseError
	if errors.As(err, &respErr) {
		resp = respErr.Response
	}
	if resp != nil {
		ex.StatusCode = resp.StatusCode
		ex.ResponseBytes = len(resp.Raw())
	}
	if err != nil {
		ex.Error = err.Error()
	}
	return resp, ex, err
}
