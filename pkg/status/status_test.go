package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAcceptableForInformationalAndSuccess(t *testing.T) {
	for _, code := range append(InformationalCodes(), SuccessCodes()...) {
		assert.Truef(t, IsAcceptable(code), "code %d should be acceptable", code)
	}
}

func TestIsAcceptableRejectsEverythingElse(t *testing.T) {
	accepted := map[int]bool{}
	for _, code := range append(InformationalCodes(), SuccessCodes()...) {
		accepted[code] = true
	}
	for code := 100; code <= 599; code++ {
		if accepted[code] {
			continue
		}
		assert.Falsef(t, IsAcceptable(code), "code %d should not be acceptable", code)
	}
	assert.False(t, IsAcceptable(0))
	assert.False(t, IsAcceptable(-1))
	assert.False(t, IsAcceptable(700))
}

func TestRedirectsAreNotSuccess(t *testing.T) {
	for _, code := range RedirectionCodes() {
		assert.False(t, IsAcceptable(code))
	}
}

func TestCodesAreDeterministicAndOrdered(t *testing.T) {
	first := Codes(Success)
	second := Codes(Success)
	assert.Equal(t, first, second)
	assert.Equal(t, []int{200, 201, 202, 203, 204, 205, 206, 207, 208, 226}, first)
	assert.Equal(t, []int{100, 101, 102}, InformationalCodes())

	// callers get their own copy
	first[0] = 999
	assert.Equal(t, 200, Codes(Success)[0])
}

func TestEveryCodeMapsToExactlyOneClass(t *testing.T) {
	seen := map[int]Class{}
	for _, c := range Classes {
		for _, s := range Statuses(c) {
			prev, dup := seen[s.Code]
			require.Falsef(t, dup, "code %d in both %s and %s", s.Code, prev, c)
			seen[s.Code] = c
			assert.Equal(t, c, s.Class)
			assert.Equalf(t, int(c), s.Code/100, "code %d filed under %s", s.Code, c)
		}
	}
}

func TestLookup(t *testing.T) {
	s, ok := Lookup(404)
	require.True(t, ok)
	assert.Equal(t, "Not Found", s.Name)
	assert.Equal(t, ClientError, s.Class)
	assert.Equal(t, "CLIENT_ERROR", s.Class.String())

	_, ok = Lookup(299)
	assert.False(t, ok)

	c, ok := ClassOf(599)
	require.True(t, ok)
	assert.Equal(t, ServerError, c)
}
