// Package extract pulls values out of response payloads for display.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

const maxHTMLBodyBytes = 1 << 20 // 1 MiB

// ErrNoMatch is returned when an expression selects nothing.
var ErrNoMatch = errors.New("expression matched nothing")

// JSON evaluates a gjson path against body and returns the raw JSON of the
// result (strings are returned unquoted).
func JSON(body []byte, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("json path is empty")
	}
	if !gjson.ValidBytes(body) {
		return "", errors.New("body is not valid JSON")
	}
	res := gjson.GetBytes(body, path)
	if !res.Exists() {
		return "", fmt.Errorf("%w: %s", ErrNoMatch, path)
	}
	if res.Type == gjson.String {
		return res.String(), nil
	}
	return res.Raw, nil
}

// HTML evaluates a CSS selector against body. A trailing "@attr" returns that
// attribute instead of the element text. Empty values are skipped.
func HTML(body []byte, selector string) ([]string, error) {
	sel, attr := splitSelector(selector)
	if sel == "" {
		return nil, errors.New("css selector is empty")
	}

	doc, err := document(body)
	if err != nil {
		return nil, err
	}

	var out []string
	doc.Find(sel).Each(func(_ int, node *goquery.Selection) {
		var val string
		if attr != "" {
			val, _ = node.Attr(attr)
		} else {
			val = node.Text()
		}
		if val = strings.TrimSpace(val); val != "" {
			out = append(out, val)
		}
	})
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, selector)
	}
	return out, nil
}

// Select picks the evaluator from the payload: JSON bodies take a gjson path,
// anything else a CSS selector.
func Select(body []byte, expr string) ([]string, error) {
	if gjson.ValidBytes(body) {
		v, err := JSON(body, expr)
		if err != nil {
			return nil, err
		}
		return []string{v}, nil
	}
	return HTML(body, expr)
}

// PageMeta is the title, description and preview image advertised by an HTML page.
type PageMeta struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Meta reads OpenGraph tags, falling back to <title> and the description meta.
func Meta(body []byte) (PageMeta, error) {
	doc, err := document(body)
	if err != nil {
		return PageMeta{}, err
	}

	content := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	return PageMeta{
		Title: firstNonEmpty(
			content(`meta[property="og:title"]`),
			doc.Find("title").First().Text(),
		),
		Description: firstNonEmpty(
			content(`meta[property="og:description"]`),
			content(`meta[name="description"]`),
		),
		ImageURL: content(`meta[property="og:image"]`),
	}, nil
}

func document(body []byte) (*goquery.Document, error) {
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

func splitSelector(raw string) (sel, attr string) {
	raw = strings.TrimSpace(raw)
	if i := strings.LastIndex(raw, "@"); i > 0 {
		return strings.TrimSpace(raw[:i]), strings.TrimSpace(raw[i+1:])
	}
	return raw, ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
