package httpclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tidwall/gjson"
)

const defaultStatusCode = http.StatusInternalServerError

// Response is the normalized reply of a dispatch.
type Response struct {
	Headers    http.Header
	Body       any // decoded JSON, raw []byte, or an empty object when absent
	StatusCode int

	raw []byte
}

// Raw returns the undecoded response payload.
func (r *Response) Raw() []byte {
	if r == nil {
		return nil
	}
	return r.raw
}

// Text returns the undecoded payload as a string.
func (r *Response) Text() string {
	return string(r.Raw())
}

// JSON decodes the raw payload into v.
func (r *Response) JSON(v any) error {
	if v == nil {
		return errors.New("target cannot be nil")
	}
	return json.Unmarshal(r.Raw(), v)
}

// normalize applies the response defaults: empty headers, empty-object body, status 500.
func normalize(raw *TransportResponse, jsonMode bool) *Response {
	resp := &Response{
		Headers:    http.Header{},
		Body:       map[string]any{},
		StatusCode: defaultStatusCode,
	}
	if raw == nil {
		return resp
	}
	if raw.Headers != nil {
		resp.Headers = raw.Headers
	}
	if raw.StatusCode != 0 {
		resp.StatusCode = raw.StatusCode
	}
	resp.raw = raw.Body
	if len(bytes.TrimSpace(raw.Body)) == 0 {
		return resp
	}

	resp.Body = raw.Body
	if jsonMode && gjson.ValidBytes(raw.Body) {
		var decoded any
		if err := json.Unmarshal(raw.Body, &decoded); err == nil && decoded != nil {
			resp.Body = decoded
		}
	}
	return resp
}
