package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `
<html>
  <head>
    <title>Fallback</title>
    <meta property="og:title" content="OG Title">
    <meta name="description" content="Plain Desc">
    <meta property="og:image" content="/img/og.png">
  </head>
  <body>
    <ul>
      <li><a href="/a">First</a></li>
      <li><a href="/b">Second</a></li>
      <li><a href="/c"> </a></li>
    </ul>
  </body>
</html>`

func TestJSONPaths(t *testing.T) {
	body := []byte(`{"user":{"name":"x","tags":["a","b"]},"count":2}`)

	v, err := JSON(body, "user.name")
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	v, err = JSON(body, "user.tags")
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	v, err = JSON(body, "count")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	_, err = JSON(body, "user.email")
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = JSON([]byte("<p>"), "a")
	assert.Error(t, err)
}

func TestHTMLSelectors(t *testing.T) {
	texts, err := HTML([]byte(page), "li a")
	require.NoError(t, err)
	assert.Equal(t, []string{"First", "Second"}, texts)

	hrefs, err := HTML([]byte(page), "li a@href")
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b", "/c"}, hrefs)

	_, err = HTML([]byte(page), "table")
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = HTML([]byte(page), "  ")
	assert.Error(t, err)
}

func TestSelectPicksEvaluator(t *testing.T) {
	got, err := Select([]byte(`{"id":7}`), "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, got)

	got, err = Select([]byte(page), "title")
	require.NoError(t, err)
	assert.Equal(t, []string{"Fallback"}, got)
}

func TestMetaPrefersOGTags(t *testing.T) {
	meta, err := Meta([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, PageMeta{Title: "OG Title", Description: "Plain Desc", ImageURL: "/img/og.png"}, meta)

	meta, err = Meta([]byte(`<html><head><title> Only </title></head></html>`))
	require.NoError(t, err)
	assert.Equal(t, PageMeta{Title: "Only"}, meta)
}
