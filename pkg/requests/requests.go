// Package requests loads named request definitions from YAML or JSON files.
package requests

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/restclient/pkg/httpclient"
)

// Entry is one named request of a request file.
type Entry struct {
	ID        string            `json:"id" yaml:"id" validate:"required"`
	Name      string            `json:"name" yaml:"name"`
	Method    string            `json:"method" yaml:"method" validate:"required,oneof=GET POST PUT DELETE"`
	URL       string            `json:"url" yaml:"url" validate:"required,url"`
	Headers   map[string]string `json:"headers" yaml:"headers" validate:"omitempty,dive,keys,required,endkeys"`
	Query     map[string]string `json:"query" yaml:"query"`
	Body      any               `json:"body" yaml:"body"`
	Encoding  string            `json:"encoding" yaml:"encoding" validate:"oneof=application/x-www-form-urlencoded multipart/form-data"`
	JSON      *bool             `json:"json" yaml:"json"`
	Files     []FileRef         `json:"files" yaml:"files" validate:"omitempty,dive"`
	TimeoutMs int               `json:"timeout_ms" yaml:"timeout_ms" validate:"gte=0"`
}

// FileRef points a multipart field at a file on disk.
type FileRef struct {
	Field string `json:"field" yaml:"field"`
	Path  string `json:"path" yaml:"path" validate:"required"`
}

type document struct {
	Requests []Entry `json:"requests" yaml:"requests"`
}

// Registry is an immutable, validated set of entries in file order.
type Registry struct {
	entries []Entry
	idx     map[string]int
}

// Entries returns a copy of the loaded entries.
func (r *Registry) Entries() []Entry {
	if r == nil || len(r.entries) == 0 {
		return nil
	}
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// ByID returns the entry for the given id, if loaded.
func (r *Registry) ByID(id string) (Entry, bool) {
	id = strings.TrimSpace(id)
	if r == nil || id == "" {
		return Entry{}, false
	}
	i, ok := r.idx[id]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Len reports the number of entries.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// LoadFile reads a request file. Relative file paths inside it resolve
// against the file's directory.
func LoadFile(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("requests file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open requests file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read requests file: %w", err)
	}

	return Parse(raw, filepath.Ext(path), filepath.Dir(path))
}

// Parse decodes and validates request definitions. ext selects the decoder
// (".yaml", ".yml", ".json"); an empty ext tries each in turn.
func Parse(data []byte, ext, baseDir string) (*Registry, error) {
	doc, err := parseDocument(data, ext)
	if err != nil {
		return nil, err
	}
	if len(doc.Requests) == 0 {
		return nil, errors.New("requests file contains no requests entries")
	}

	v := validator.New()
	reg := &Registry{
		entries: make([]Entry, 0, len(doc.Requests)),
		idx:     make(map[string]int, len(doc.Requests)),
	}
	for i := range doc.Requests {
		e := sanitizeEntry(doc.Requests[i], baseDir)
		if err := validateEntry(v, e); err != nil {
			return nil, fmt.Errorf("request[%d]: %w", i, err)
		}
		if _, exists := reg.idx[e.ID]; exists {
			return nil, fmt.Errorf("duplicate request id %q", e.ID)
		}
		reg.idx[e.ID] = len(reg.entries)
		reg.entries = append(reg.entries, e)
	}
	return reg, nil
}

func parseDocument(data []byte, ext string) (document, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		doc, err := unmarshalDocument(d.name, data, d.fn)
		if err == nil {
			return doc, nil
		}
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return document{}, fmt.Errorf("requests file extension %q not recognized (expected YAML or JSON)", ext)
	}
	return document{}, fmt.Errorf("requests file format not recognized: %w", errors.Join(errs...))
}

type unmarshalFn func([]byte, any) error

func unmarshalDocument(name string, data []byte, fn unmarshalFn) (document, error) {
	var doc document
	if err := fn(data, &doc); err != nil {
		return document{}, fmt.Errorf("decode %s requests: %w", name, err)
	}
	return doc, nil
}

func sanitizeEntry(e Entry, baseDir string) Entry {
	e.ID = strings.TrimSpace(e.ID)
	e.Name = strings.TrimSpace(e.Name)
	e.Method = strings.ToUpper(strings.TrimSpace(e.Method))
	e.URL = strings.TrimSpace(e.URL)
	if e.Name == "" {
		e.Name = e.ID
	}

	if enc, err := httpclient.ParseEncoding(e.Encoding); err == nil {
		e.Encoding = string(enc)
	}

	files := make([]FileRef, 0, len(e.Files))
	for _, f := range e.Files {
		f.Field = strings.TrimSpace(f.Field)
		f.Path = strings.TrimSpace(f.Path)
		if f.Path != "" && !filepath.IsAbs(f.Path) && baseDir != "" {
			f.Path = filepath.Join(baseDir, f.Path)
		}
		files = append(files, f)
	}
	e.Files = files
	return e
}

func validateEntry(v *validator.Validate, e Entry) error {
	if err := v.Struct(e); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s is invalid for request %q (rule %q)", strings.ToLower(fe.Field()), e.ID, fe.Tag())
		}
		return err
	}

	m := e.Verb()
	if httpclient.EncodingType(e.Encoding) == httpclient.Multipart && m != httpclient.MethodPost && m != httpclient.MethodPut {
		return fmt.Errorf("request %q: %s only supports %s", e.ID, m, httpclient.URLEncoded)
	}
	if len(e.Files) > 0 && httpclient.EncodingType(e.Encoding) != httpclient.Multipart {
		return fmt.Errorf("request %q: files require %s encoding", e.ID, httpclient.Multipart)
	}
	return nil
}

// Verb returns the entry's method tag.
func (e Entry) Verb() httpclient.Method {
	return httpclient.Method(e.Method)
}

// Timeout returns the entry's timeout, or zero when it defers to the client default.
func (e Entry) Timeout() time.Duration {
	return time.Duration(e.TimeoutMs) * time.Millisecond
}

// Spec converts the entry into a dispatcher request. Files are opened at dispatch time.
func (e Entry) Spec() httpclient.RequestSpec {
	files := make([]httpclient.File, 0, len(e.Files))
	for _, f := range e.Files {
		file := httpclient.FileFromPath(f.Path)
		if f.Field != "" {
			file = httpclient.NamedFile(f.Field, file)
		}
		files = append(files, file)
	}

	return httpclient.RequestSpec{
		URL:      e.URL,
		Headers:  copyMap(e.Headers),
		Query:    copyMap(e.Query),
		Body:     e.Body,
		Encoding: httpclient.EncodingType(e.Encoding),
		JSON:     e.JSON,
		Files:    files,
		Timeout:  e.Timeout(),
	}
}

func copyMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
