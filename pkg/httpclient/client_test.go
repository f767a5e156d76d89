package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport records calls and replays a canned reply.
type fakeTransport struct {
	calls int
	last  *TransportRequest
	resp  *TransportResponse
	err   error
}

func (f *fakeTransport) Do(_ context.Context, req *TransportRequest) (*TransportResponse, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	if f.resp == nil {
		return &TransportResponse{StatusCode: http.StatusOK}, nil
	}
	return f.resp, nil
}

// timeoutNetErr mimics a dial/read timeout reported by the network stack.
type timeoutNetErr struct{}

func (timeoutNetErr) Error() string   { return "i/o timeout" }
func (timeoutNetErr) Timeout() bool   { return true }
func (timeoutNetErr) Temporary() bool { return true }

func echoJSONServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMissingURLFailsForEveryVerbWithoutNetwork(t *testing.T) {
	transport := &fakeTransport{}
	client := NewClient(WithTransport(transport))

	for method, op := range client.Verbs() {
		for _, url := range []string{"", "   "} {
			_, err := op(context.Background(), RequestSpec{URL: url})
			var usage *ClientUsageError
			require.ErrorAsf(t, err, &usage, "%s with url %q", method, url)
			assert.Equal(t, method, usage.Method)
			assert.ErrorIs(t, err, ErrClientUsage)
		}
	}
	assert.Zero(t, transport.calls)
}

func TestGetAndDeleteRejectMultipart(t *testing.T) {
	transport := &fakeTransport{}
	client := NewClient(WithTransport(transport))

	for _, method := range []Method{MethodGet, MethodDelete} {
		_, err := client.Do(context.Background(), method, RequestSpec{
			URL:      "http://example.invalid/upload",
			Encoding: Multipart,
		})
		var usage *ClientUsageError
		require.ErrorAs(t, err, &usage)
		assert.Contains(t, usage.Reason, string(URLEncoded))
	}
	assert.Zero(t, transport.calls)
}

func TestUnknownEncodingAndMethodAreUsageErrors(t *testing.T) {
	transport := &fakeTransport{}
	client := NewClient(WithTransport(transport))

	_, err := client.Post(context.Background(), RequestSpec{URL: "http://example.invalid", Encoding: "text/plain"})
	assert.ErrorIs(t, err, ErrClientUsage)

	_, err = client.Do(context.Background(), Method("PATCH"), RequestSpec{URL: "http://example.invalid"})
	assert.ErrorIs(t, err, ErrClientUsage)

	_, err = client.Post(context.Background(), RequestSpec{
		URL:   "http://example.invalid",
		Files: []File{FileFromBytes("a.txt", []byte("a"))},
	})
	assert.ErrorIs(t, err, ErrClientUsage)

	assert.Zero(t, transport.calls)
}

func TestPostAndPutRoundTripJSONBody(t *testing.T) {
	srv := echoJSONServer(t)
	client := NewClient()

	for _, op := range []Operation{client.Post, client.Put} {
		resp, err := op(context.Background(), RequestSpec{
			URL:  srv.URL + "/echo",
			Body: map[string]any{"name": "x"},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		if diff := cmp.Diff(map[string]any{"name": "x"}, resp.Body); diff != "" {
			t.Fatalf("body mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestJSONModeSendsJSONHeaders(t *testing.T) {
	var contentType, accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		accept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	resp, err := NewClient().Post(context.Background(), RequestSpec{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, contentType, "application/json")
	assert.Equal(t, "application/json", accept)
	assert.Equal(t, map[string]any{}, resp.Body)
}

func TestJSONModeEncodesStringBody(t *testing.T) {
	bodies := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		bodies <- string(raw)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	_, err := NewClient().Post(context.Background(), RequestSpec{URL: srv.URL, Body: "hello"})
	require.NoError(t, err)
	got := <-bodies
	assert.Equal(t, `"hello"`, got)
	assert.True(t, json.Valid([]byte(got)))

	// raw bytes are taken as already-encoded JSON
	_, err = NewClient().Put(context.Background(), RequestSpec{URL: srv.URL, Body: []byte(`{"a":1}`)})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, <-bodies)
}

func TestFormEncodingWhenJSONDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), string(URLEncoded))
		assert.NoError(t, r.ParseForm())
		_, _ = w.Write([]byte("name=" + r.PostForm.Get("name") + "&count=" + r.PostForm.Get("count")))
	}))
	defer srv.Close()

	resp, err := NewClient().Put(context.Background(), RequestSpec{
		URL:  srv.URL,
		Body: map[string]any{"name": "x", "count": 3},
		JSON: Bool(false),
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("name=x&count=3"), resp.Body)
	assert.Equal(t, "name=x&count=3", resp.Text())
}

func TestFormEncodingRejectsScalarBody(t *testing.T) {
	transport := &fakeTransport{}
	_, err := NewClient(WithTransport(transport)).Post(context.Background(), RequestSpec{
		URL:  "http://example.invalid",
		Body: 42,
		JSON: Bool(false),
	})
	assert.ErrorIs(t, err, ErrClientUsage)
	assert.Zero(t, transport.calls)
}

func TestGetForwardsQueryAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "abc", r.Header.Get("X-Trace"))
		assert.Zero(t, r.ContentLength)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[1,2]}`))
	}))
	defer srv.Close()

	resp, err := NewClient().Get(context.Background(), RequestSpec{
		URL:     srv.URL,
		Headers: map[string]string{"X-Trace": "abc"},
		Query:   map[string]string{"page": "1"},
		Body:    map[string]any{"ignored": true},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"items": []any{float64(1), float64(2)}}, resp.Body)
	assert.Equal(t, "application/json", resp.Headers.Get("Content-Type"))

	var decoded struct {
		Items []int `json:"items"`
	}
	require.NoError(t, resp.JSON(&decoded))
	assert.Equal(t, []int{1, 2}, decoded.Items)
}

func TestDeleteSendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "42", body["id"])
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := NewClient().Delete(context.Background(), RequestSpec{
		URL:  srv.URL,
		Body: map[string]string{"id": "42"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestNonJSONReplyInJSONModeStaysRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain text"))
	}))
	defer srv.Close()

	resp, err := NewClient().Get(context.Background(), RequestSpec{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, []byte("plain text"), resp.Body)
}

func TestResponseErrorCarriesNormalizedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad"}`))
	}))
	defer srv.Close()

	resp, err := NewClient().Post(context.Background(), RequestSpec{URL: srv.URL, Body: map[string]any{}})
	assert.Nil(t, resp)

	var respErr *ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.ErrorIs(t, err, ErrResponse)
	require.NotNil(t, respErr.Response)
	assert.Equal(t, http.StatusBadRequest, respErr.Response.StatusCode)
	assert.Equal(t, map[string]any{"message": "bad"}, respErr.Response.Body)
	assert.Equal(t, MethodPost, respErr.Method)
	assert.Equal(t, srv.URL, respErr.URL)
}

func TestRedirectIsNotSuccessWhenNotFollowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/final" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		http.Redirect(w, r, "/final", http.StatusFound)
	}))
	defer srv.Close()

	noFollow := NewClient(WithTransport(NewRestyTransport(WithFollowRedirects(false))))
	_, err := noFollow.Get(context.Background(), RequestSpec{URL: srv.URL + "/start"})
	var respErr *ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, http.StatusFound, respErr.Response.StatusCode)

	resp, err := NewClient().Get(context.Background(), RequestSpec{URL: srv.URL + "/start"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnrespondingServerTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewClient().Get(context.Background(), RequestSpec{
		URL:     srv.URL,
		Timeout: 50 * time.Millisecond,
	})
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 50*time.Millisecond, timeoutErr.Timeout)
	assert.Equal(t, MethodGet, timeoutErr.Method)
	assert.Equal(t, srv.URL, timeoutErr.URL)
	assert.NotNil(t, timeoutErr.Cause)
}

func TestNetTimeoutIsMappedButOtherFailuresPropagate(t *testing.T) {
	timeoutTransport := &fakeTransport{err: timeoutNetErr{}}
	_, err := NewClient(WithTransport(timeoutTransport)).Put(context.Background(), RequestSpec{URL: "http://example.invalid"})
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, DefaultTimeout, timeoutErr.Timeout)
	assert.Equal(t, timeoutNetErr{}, timeoutErr.Cause)

	boom := errors.New("connection reset by peer")
	failing := &fakeTransport{err: boom}
	_, err = NewClient(WithTransport(failing)).Put(context.Background(), RequestSpec{URL: "http://example.invalid"})
	assert.Same(t, boom, err)

	cancelled := &fakeTransport{err: context.Canceled}
	_, err = NewClient(WithTransport(cancelled)).Get(context.Background(), RequestSpec{URL: "http://example.invalid"})
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUnreachableHostIsNotReclassified(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient().Get(context.Background(), RequestSpec{URL: url, Timeout: time.Second})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrResponse)
	assert.NotErrorIs(t, err, ErrClientUsage)
}

func TestNormalizeAppliesDefaults(t *testing.T) {
	transport := &fakeTransport{resp: &TransportResponse{}}
	_, err := NewClient(WithTransport(transport)).Get(context.Background(), RequestSpec{URL: "http://example.invalid"})

	var respErr *ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, http.StatusInternalServerError, respErr.Response.StatusCode)
	assert.NotNil(t, respErr.Response.Headers)
	assert.Equal(t, map[string]any{}, respErr.Response.Body)
}

func TestTransportRequestIsBuiltFromSpec(t *testing.T) {
	transport := &fakeTransport{resp: &TransportResponse{StatusCode: http.StatusAccepted}}
	headers := map[string]string{"X-A": "1"}
	spec := RequestSpec{
		URL:     "http://example.invalid/items",
		Headers: headers,
		Body:    map[string]any{"name": "x"},
		Timeout: 2 * time.Second,
	}

	resp, err := NewClient(WithTransport(transport)).Post(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	req := transport.last
	require.NotNil(t, req)
	assert.Equal(t, MethodPost, req.Method)
	assert.Equal(t, spec.URL, req.URL)
	assert.True(t, req.Decompress)
	assert.True(t, req.ExpectJSON)
	assert.Equal(t, 2*time.Second, req.Timeout)
	assert.Equal(t, map[string]string{}, req.Query)
	assert.Equal(t, JSONPayload{Value: map[string]any{"name": "x"}}, req.Payload)

	// the caller's maps are never shared with the transport
	req.Headers["X-B"] = "2"
	assert.Len(t, headers, 1)
}

func TestMultipartNamedAndUnnamedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "named.txt")
	require.NoError(t, os.WriteFile(path, []byte("named content"), 0o644))

	type seen struct {
		fields map[string][]string
		files  map[string][]string
	}
	got := make(chan seen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s := seen{fields: r.MultipartForm.Value, files: map[string][]string{}}
		for field, headers := range r.MultipartForm.File {
			for _, fh := range headers {
				f, err := fh.Open()
				if err != nil {
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
				raw, _ := io.ReadAll(f)
				f.Close()
				s.files[field] = append(s.files[field], string(raw))
			}
		}
		got <- s
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	resp, err := NewClient().Post(context.Background(), RequestSpec{
		URL:      srv.URL + "/upload",
		Encoding: Multipart,
		Body:     map[string]any{"title": "report"},
		Files: []File{
			FileFromBytes("one.txt", []byte("first")),
			FileFromReader("two.txt", strings.NewReader("second")),
			NamedFile("myFile", FileFromPath(path)),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, resp.Body)

	s := <-got
	assert.Equal(t, []string{"report"}, s.fields["title"])
	assert.Equal(t, []string{"named content"}, s.files["myFile"])
	assert.ElementsMatch(t, []string{"first", "second"}, s.files[DefaultFileField])
}

func TestEmptyMultipartStillSendsMultipartContentType(t *testing.T) {
	type seen struct {
		contentType string
		parseErr    error
	}
	got := make(chan seen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- seen{contentType: r.Header.Get("Content-Type"), parseErr: r.ParseMultipartForm(1 << 20)}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := NewClient().Put(context.Background(), RequestSpec{URL: srv.URL, Encoding: Multipart})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	s := <-got
	assert.True(t, strings.HasPrefix(s.contentType, "multipart/form-data; boundary="), s.contentType)
	assert.NoError(t, s.parseErr)
}

func TestMultipartMissingFileIsUsageError(t *testing.T) {
	transport := &fakeTransport{}
	_, err := NewClient(WithTransport(transport)).Put(context.Background(), RequestSpec{
		URL:      "http://example.invalid",
		Encoding: Multipart,
		Files:    []File{FileFromPath(filepath.Join(t.TempDir(), "missing.bin"))},
	})
	assert.ErrorIs(t, err, ErrClientUsage)
	assert.Zero(t, transport.calls)
}

func TestVerbsAndParseMethod(t *testing.T) {
	transport := &fakeTransport{}
	client := NewClient(WithTransport(transport))

	for _, name := range []string{"get", "POST", " put ", "Delete"} {
		m, err := ParseMethod(name)
		require.NoError(t, err)
		op, ok := client.Verbs()[m]
		require.True(t, ok)
		_, err = op(context.Background(), RequestSpec{URL: "http://example.invalid"})
		require.NoError(t, err)
		assert.Equal(t, m, transport.last.Method)
	}

	_, err := ParseMethod("TRACE")
	assert.Error(t, err)
}

func TestParseEncoding(t *testing.T) {
	enc, err := ParseEncoding("")
	require.NoError(t, err)
	assert.Equal(t, URLEncoded, enc)

	enc, err = ParseEncoding("multipart")
	require.NoError(t, err)
	assert.Equal(t, Multipart, enc)

	_, err = ParseEncoding("xml")
	assert.Error(t, err)
}
