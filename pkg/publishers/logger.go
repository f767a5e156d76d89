package publishers

import "github.com/samvad-hq/restclient/pkg/httpclient"

// Logger is the logging surface publishers rely on. It is shared with the
// http client so one adapter serves both.
type Logger = httpclient.Logger

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
