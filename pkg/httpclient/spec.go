package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EncodingType selects how a request body is serialized on the wire.
type EncodingType string

const (
	URLEncoded EncodingType = "application/x-www-form-urlencoded"
	Multipart  EncodingType = "multipart/form-data"
)

const (
	// DefaultTimeoutMs is the per-call budget used when a RequestSpec leaves Timeout unset.
	DefaultTimeoutMs = 15000
	DefaultTimeout   = DefaultTimeoutMs * time.Millisecond

	// DefaultFileField is the multipart field shared by files that carry no explicit name.
	DefaultFileField = "files"

	defaultFileName    = "file"
	defaultContentType = "application/octet-stream"
)

// ParseEncoding maps user input to an EncodingType. Short aliases are accepted.
func ParseEncoding(raw string) (EncodingType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "urlencoded", "form", string(URLEncoded):
		return URLEncoded, nil
	case "multipart", string(Multipart):
		return Multipart, nil
	default:
		return "", fmt.Errorf("unsupported encoding type %q", raw)
	}
}

// Method is the verb tag of a dispatch.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// Methods lists the verbs the client dispatches.
var Methods = []Method{MethodGet, MethodPost, MethodPut, MethodDelete}

// ParseMethod resolves a verb name case-insensitively.
func ParseMethod(raw string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unsupported method %q", raw)
}

// allowsMultipart reports whether the verb may carry a multipart payload.
func (m Method) allowsMultipart() bool {
	return m == MethodPost || m == MethodPut
}

// RequestSpec is the normalized parameter set of a single dispatch.
// The zero values of optional fields select the documented defaults.
type RequestSpec struct {
	URL      string            `validate:"required"`
	Headers  map[string]string `validate:"omitempty,dive,keys,required,endkeys"`
	Query    map[string]string
	Body     any
	Encoding EncodingType  `validate:"omitempty,oneof=application/x-www-form-urlencoded multipart/form-data"`
	JSON     *bool         // nil means true
	Files    []File        // multipart only
	Timeout  time.Duration `validate:"gte=0"`
}

// Bool returns a pointer to v, for RequestSpec.JSON.
func Bool(v bool) *bool { return &v }

// JSONMode reports whether the body and response are handled as JSON.
func (s RequestSpec) JSONMode() bool {
	return s.JSON == nil || *s.JSON
}

// EncodingType returns the encoding, defaulting to URLEncoded.
func (s RequestSpec) EncodingType() EncodingType {
	if s.Encoding == "" {
		return URLEncoded
	}
	return s.Encoding
}

// EffectiveTimeout returns the timeout budget, defaulting to DefaultTimeout.
func (s RequestSpec) EffectiveTimeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultTimeout
	}
	return s.Timeout
}

// File is one file reference attached to a multipart request. Exactly one of
// Reader, Data or Path supplies the content.
type File struct {
	Field       string
	FileName    string
	ContentType string
	Reader      io.Reader
	Data        []byte
	Path        string
}

// FileFromBytes attaches an in-memory payload.
func FileFromBytes(fileName string, data []byte) File {
	return File{FileName: fileName, Data: data}
}

// FileFromReader attaches a stream; it is consumed by the dispatch.
func FileFromReader(fileName string, r io.Reader) File {
	return File{FileName: fileName, Reader: r}
}

// FileFromPath attaches a file from disk, opened at dispatch time.
func FileFromPath(path string) File {
	return File{Path: path}
}

// NamedFile places f under an explicit multipart field.
func NamedFile(field string, f File) File {
	f.Field = field
	return f
}

func (f File) field() string {
	if name := strings.TrimSpace(f.Field); name != "" {
		return name
	}
	return DefaultFileField
}

// open resolves the file into a transport part. The returned closer is never nil.
func (f File) open() (FilePart, io.Closer, error) {
	part := FilePart{
		Field:       f.field(),
		FileName:    strings.TrimSpace(f.FileName),
		ContentType: strings.TrimSpace(f.ContentType),
	}
	if part.ContentType == "" {
		part.ContentType = defaultContentType
	}

	var closer io.Closer = io.NopCloser(nil)
	switch {
	case f.Reader != nil:
		part.Reader = f.Reader
	case f.Data != nil:
		part.Reader = bytes.NewReader(f.Data)
	case strings.TrimSpace(f.Path) != "":
		file, err := os.Open(f.Path)
		if err != nil {
			return FilePart{}, nil, fmt.Errorf("open file %q: %w", f.Path, err)
		}
		part.Reader = file
		closer = file
		if part.FileName == "" {
			part.FileName = filepath.Base(f.Path)
		}
	default:
		return FilePart{}, nil, fmt.Errorf("file for field %q has no content", part.Field)
	}

	if part.FileName == "" {
		part.FileName = defaultFileName
	}
	return part, closer, nil
}
