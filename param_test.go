package ddns_test

import (
	"errors"
	"testing"

	"gotest.tools/v3/assert"

	ddns "github.com/Travis-Britz/ddnsd"
)

func TestParseParam(t *testing.T) {
	tests := []struct {
		raw      string
		expected ddns.Param
	}{
		{"host=home:example.com", ddns.HostParam{Host: "home", Domain: "example.com"}},
		{"host=:example.com", ddns.HostParam{Domain: "example.com"}},
		{"key=abc123:example.com", ddns.KeyParam{Key: "abc123", Domain: "example.com"}},
		{"key=abc:123:example.com", ddns.KeyParam{Key: "abc:123", Domain: "example.com"}},
		{"url=https://dyn.example.com/update?x=1", ddns.URLParam("https://dyn.example.com/update?x=1")},
		{"url=", ddns.URLParam("")},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			p, err := ddns.ParseParam(tt.raw)
			assert.NilError(t, err)
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestParseParamErrors(t *testing.T) {
	var invalid *ddns.InvalidParamFormatError
	var unknown *ddns.UnknownParamError

	for _, raw := range []string{"host", "", "host=example.com", "key=abc"} {
		_, err := ddns.ParseParam(raw)
		assert.Assert(t, errors.As(err, &invalid), "%q: got %v", raw, err)
		assert.Equal(t, raw, invalid.Raw)
	}

	_, err := ddns.ParseParam("token=abc")
	assert.Assert(t, errors.As(err, &unknown), "got %v", err)
	assert.Equal(t, "token", unknown.Name)
}

func TestParamsProfiles(t *testing.T) {
	params, err := ddns.ParseParams([]string{
		"host=home:example.com",
		"key=k1:example.com",
		"host=nas:example.org",
		"key=k2:example.org",
		"url=https://dyn.example.com/a",
		"url=https://dyn.example.com/b",
	})
	assert.NilError(t, err)

	profiles, err := params.Profiles()
	assert.NilError(t, err)
	assert.DeepEqual(t, []ddns.Profile{
		{Host: "home", Domain: "example.com", APIKey: "k1"},
		{Host: "nas", Domain: "example.org", APIKey: "k2"},
	}, profiles)

	u, ok := params.URL()
	assert.Assert(t, ok)
	assert.Equal(t, "https://dyn.example.com/b", u)
}

func TestParamsProfilesMissingKey(t *testing.T) {
	params, err := ddns.ParseParams([]string{"host=home:example.com", "key=k1:example.org"})
	assert.NilError(t, err)

	_, err = params.Profiles()
	var missing *ddns.MissingArgError
	assert.Assert(t, errors.As(err, &missing), "got %v", err)
	assert.Equal(t, "api_key", missing.Field)

	_, ok := params.URL()
	assert.Assert(t, !ok)
}

func TestParseParamsStopsAtFirstError(t *testing.T) {
	_, err := ddns.ParseParams([]string{"host=home:example.com", "bogus", "nope=1"})
	var invalid *ddns.InvalidParamFormatError
	assert.Assert(t, errors.As(err, &invalid))
	assert.Equal(t, "bogus", invalid.Raw)
}
