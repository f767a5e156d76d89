package cli

import (
	"github.com/samvad-hq/restclient/internal/domain"
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitResponse  = 1
	ExitTimeout   = 2
	ExitConfig    = 3
	ExitTransport = 4
	ExitUsage     = 64
)

// ExitError carries the exit code a command finished with. A nil Err means the
// command already reported the failure.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit status"
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func exitWith(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}

// exitCodeFor maps an exchange outcome onto the process exit code.
func exitCodeFor(o domain.Outcome) int {
	switch o {
	case domain.OutcomeOK:
		return ExitOK
	case domain.OutcomeResponseError:
		return ExitResponse
	case domain.OutcomeTimeout:
		return ExitTimeout
	case domain.OutcomeUsageError:
		return ExitUsage
	default:
		return ExitTransport
	}
}
