package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/restclient/internal/app"
	"github.com/samvad-hq/restclient/internal/domain"
	"github.com/samvad-hq/restclient/pkg/extract"
	"github.com/samvad-hq/restclient/pkg/httpclient"
)

type requestFlags struct {
	headers   []string
	query     []string
	data      string
	form      bool
	multipart bool
	files     []string
	timeout   time.Duration
	selector  string
	meta      bool
	include   bool
	noJournal bool
}

func newRequestCommand(env *environment, verb string) *cobra.Command {
	f := &requestFlags{}
	cmd := &cobra.Command{
		Use:   verb + " <url>",
		Short: fmt.Sprintf("Send a %s request", strings.ToUpper(verb)),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			method, err := httpclient.ParseMethod(verb)
			if err != nil {
				return exitWith(ExitUsage, err)
			}
			spec, err := f.spec(args[0])
			if err != nil {
				return exitWith(ExitUsage, err)
			}
			return env.send(cmd, method, spec, f)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&f.headers, "header", "H", nil, "Request header as 'Name: value' (repeatable)")
	flags.StringArrayVarP(&f.query, "query", "q", nil, "Query parameter as name=value (repeatable)")
	flags.StringVarP(&f.data, "data", "d", "", "Request body; JSON by default, name=value&... with --form/--multipart; @path reads a file")
	flags.BoolVar(&f.form, "form", false, "Send the body URL-encoded instead of JSON")
	flags.BoolVar(&f.multipart, "multipart", false, "Send the body as multipart/form-data")
	flags.StringArrayVarP(&f.files, "file", "F", nil, "Attach a file as field=@path or @path (repeatable, needs --multipart)")
	flags.DurationVarP(&f.timeout, "timeout", "t", 0, "Request timeout (default from TIMEOUT_MS)")
	flags.StringVarP(&f.selector, "select", "s", "", "Print only the matches of a JSON path or a CSS selector (sel@attr)")
	flags.BoolVar(&f.meta, "meta", false, "Print title, description and preview image of an HTML reply")
	flags.BoolVarP(&f.include, "include", "i", false, "Print the status line and headers")
	flags.BoolVar(&f.noJournal, "no-journal", false, "Do not record the exchange in the journal")
	return cmd
}

// spec turns the flags into a RequestSpec. It does not validate what the
// client validates itself.
func (f *requestFlags) spec(rawURL string) (httpclient.RequestSpec, error) {
	spec := httpclient.RequestSpec{URL: rawURL, Timeout: f.timeout}

	headers, err := splitPairs(f.headers, ":")
	if err != nil {
		return spec, fmt.Errorf("header: %w", err)
	}
	query, err := splitPairs(f.query, "=")
	if err != nil {
		return spec, fmt.Errorf("query: %w", err)
	}
	spec.Headers = headers
	spec.Query = query

	if f.form || f.multipart {
		spec.JSON = httpclient.Bool(false)
	}
	if f.multipart {
		spec.Encoding = httpclient.Multipart
	}

	body, err := f.body(spec.JSONMode())
	if err != nil {
		return spec, err
	}
	spec.Body = body

	for _, raw := range f.files {
		file, err := parseFileFlag(raw)
		if err != nil {
			return spec, err
		}
		spec.Files = append(spec.Files, file)
	}
	return spec, nil
}

func (f *requestFlags) body(jsonMode bool) (any, error) {
	raw := f.data
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(raw, "@"))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		raw = string(data)
	}

	if jsonMode {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("body is not valid JSON: %w", err)
		}
		return v, nil
	}

	values, err := url.ParseQuery(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("form body: %w", err)
	}
	fields := make(map[string]any, len(values))
	for k, v := range values {
		fields[k] = v[len(v)-1]
	}
	return fields, nil
}

func parseFileFlag(raw string) (httpclient.File, error) {
	field, path, named := strings.Cut(raw, "=@")
	if !named {
		if !strings.HasPrefix(raw, "@") {
			return httpclient.File{}, fmt.Errorf("file %q must be field=@path or @path", raw)
		}
		return httpclient.FileFromPath(strings.TrimPrefix(raw, "@")), nil
	}
	if strings.TrimSpace(field) == "" || strings.TrimSpace(path) == "" {
		return httpclient.File{}, fmt.Errorf("file %q must be field=@path or @path", raw)
	}
	return httpclient.NamedFile(field, httpclient.FileFromPath(path)), nil
}

func splitPairs(items []string, sep string) (map[string]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(items))
	for _, item := range items {
		k, v, ok := strings.Cut(item, sep)
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%q is not a name%svalue pair", item, sep)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// send dispatches one request, prints the reply and journals the exchange.
func (env *environment) send(cmd *cobra.Command, method httpclient.Method, spec httpclient.RequestSpec, f *requestFlags) error {
	if spec.Timeout <= 0 {
		spec.Timeout = env.cfg.Timeout
	}

	client := app.NewClient(env.cfg, env.log)
	resp, ex, callErr := app.Dispatch(cmd.Context(), client, method, spec)
	ex.RequestID = "cli"

	if !f.noJournal && ex.Outcome != domain.OutcomeUsageError {
		if err := env.journal(ex); err != nil {
			env.log.WarnObj("journal write failed", "error", err.Error())
		}
	}

	out := cmd.OutOrStdout()
	if resp != nil {
		if f.include {
			fmt.Fprintln(out, statusLine(resp.StatusCode))
			writeHeaders(out, resp.Headers)
			fmt.Fprintln(out)
		}
		if err := printBody(out, resp, f); err != nil {
			return exitWith(ExitResponse, err)
		}
	}

	if callErr != nil {
		return exitWith(exitCodeFor(ex.Outcome), callErr)
	}
	return nil
}

func (env *environment) journal(ex domain.Exchange) error {
	store, err := app.OpenJournal(env.cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Record(ex)
}

func printBody(w io.Writer, resp *httpclient.Response, f *requestFlags) error {
	switch {
	case f.meta:
		meta, err := extract.Meta(resp.Raw())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "title:       %s\n", meta.Title)
		fmt.Fprintf(w, "description: %s\n", meta.Description)
		fmt.Fprintf(w, "image:       %s\n", meta.ImageURL)
		return nil
	case f.selector != "":
		matches, err := extract.Select(resp.Raw(), f.selector)
		if errors.Is(err, extract.ErrNoMatch) {
			return fmt.Errorf("select %q: no match", f.selector)
		}
		if err != nil {
			return err
		}
		for _, m := range matches {
			fmt.Fprintln(w, m)
		}
		return nil
	default:
		text := resp.Text()
		fmt.Fprint(w, text)
		if text != "" && !strings.HasSuffix(text, "\n") {
			fmt.Fprintln(w)
		}
		return nil
	}
}
