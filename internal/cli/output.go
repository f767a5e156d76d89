package cli

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/samvad-hq/restclient/internal/domain"
	"github.com/samvad-hq/restclient/pkg/status"
)

var (
	okStyle   = color.New(color.FgGreen).SprintFunc()
	warnStyle = color.New(color.FgYellow).SprintFunc()
	failStyle = color.New(color.FgRed).SprintFunc()
	infoStyle = color.New(color.FgCyan).SprintFunc()
	dimStyle  = color.New(color.Faint).SprintFunc()
	boldStyle = color.New(color.Bold).SprintFunc()
)

// styleForCode colors a status code by its class.
func styleForCode(code int) func(a ...interface{}) string {
	class, ok := status.ClassOf(code)
	if !ok {
		return failStyle
	}
	switch class {
	case status.Success:
		return okStyle
	case status.Informational, status.Redirection:
		return infoStyle
	case status.ClientError:
		return warnStyle
	default:
		return failStyle
	}
}

func statusLine(code int) string {
	name := "Unknown"
	if st, ok := status.Lookup(code); ok {
		name = st.Name
	}
	return styleForCode(code)(fmt.Sprintf("%d %s", code, name))
}

func styleForOutcome(o domain.Outcome) func(a ...interface{}) string {
	switch o {
	case domain.OutcomeOK:
		return okStyle
	case domain.OutcomeResponseError:
		return warnStyle
	default:
		return failStyle
	}
}

func writeHeaders(w io.Writer, h http.Header) {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %s\n", boldStyle(k), strings.Join(h[k], ", "))
	}
}
