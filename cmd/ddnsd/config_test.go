package main

import (
	"errors"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"golang.org/x/term"
	"gotest.tools/v3/assert"

	ddns "github.com/Travis-Britz/ddnsd"
)

func noenv(string) string { return "" }

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig([]string{
		"-e", "https://a.example/ip",
		"-e", "stun://stun.example.com",
		"-p", "host=home:example.com",
		"-i", "10m",
		"-keep-going",
		"x:nas:example.org:k1",
	}, noenv, io.Discard)
	assert.NilError(t, err)

	assert.DeepEqual(t, []string{"https://a.example/ip", "stun://stun.example.com"}, cfg.Endpoints)
	assert.DeepEqual(t, []string{"host=home:example.com"}, cfg.Params)
	assert.DeepEqual(t, []string{"x:nas:example.org:k1"}, cfg.Profiles)
	assert.Equal(t, 10*time.Minute, cfg.Interval)
	assert.Equal(t, ddns.DefaultTimeout, cfg.Timeout)
	assert.Assert(t, cfg.KeepGoing)
	assert.Equal(t, "", cfg.KeyFile)
}

func TestLoadConfigEnvironment(t *testing.T) {
	env := map[string]string{"DDNSD_ENDPOINTS": "https://a.example/ip, https://b.example/ip,,"}
	getenv := func(k string) string { return env[k] }

	cfg, err := LoadConfig(nil, getenv, io.Discard)
	assert.NilError(t, err)
	assert.DeepEqual(t, []string{"https://a.example/ip", "https://b.example/ip"}, cfg.Endpoints)

	// flags win over the environment
	cfg, err = LoadConfig([]string{"-e", "https://c.example/ip"}, getenv, io.Discard)
	assert.NilError(t, err)
	assert.DeepEqual(t, []string{"https://c.example/ip"}, cfg.Endpoints)
}

func TestLoadConfigHelp(t *testing.T) {
	_, err := LoadConfig([]string{"-h"}, noenv, io.Discard)
	assert.Assert(t, errors.Is(err, flag.ErrHelp))
}

func TestValidate(t *testing.T) {
	valid := Config{Endpoints: []string{"https://a.example/ip"}, Timeout: time.Second, Interval: time.Minute}
	assert.NilError(t, valid.Validate())

	staticIP := Config{IP: "10.0.0.1", Timeout: time.Second, Interval: time.Minute}
	assert.NilError(t, staticIP.Validate())

	noEndpoints := Config{Timeout: time.Second, Interval: time.Minute}
	assert.ErrorContains(t, noEndpoints.Validate(), "at least one endpoint is required")

	badProvider := valid
	badProvider.Provider = "route53"
	assert.ErrorContains(t, badProvider.Validate(), "unknown provider")

	badTimeout := valid
	badTimeout.Timeout = 0
	assert.ErrorContains(t, badTimeout.Validate(), "timeout")

	badInterval := valid
	badInterval.Interval = 0
	assert.ErrorContains(t, badInterval.Validate(), "interval must be positive")

	scheduled := badInterval
	scheduled.Schedule = "@every 10m"
	assert.NilError(t, scheduled.Validate())
}

func TestBuildProfiles(t *testing.T) {
	params, err := ddns.ParseParams([]string{"host=home:example.com", "key=k2:example.com"})
	assert.NilError(t, err)

	profiles, err := buildProfiles([]string{"x:nas:example.org:k1"}, params)
	assert.NilError(t, err)
	assert.DeepEqual(t, []ddns.Profile{
		{Host: "nas", Domain: "example.org", APIKey: "k1"},
		{Host: "home", Domain: "example.com", APIKey: "k2"},
	}, profiles)

	_, err = buildProfiles([]string{"x:nas"}, params)
	var missing *ddns.MissingArgError
	assert.Assert(t, errors.As(err, &missing))
	assert.Equal(t, "domain", missing.Field)
}

func TestSelectProvider(t *testing.T) {
	withURL := ddns.Params{ddns.URLParam("https://dyn.example.com")}
	assert.Equal(t, "cloudflare", selectProvider("", nil))
	assert.Equal(t, "webhook", selectProvider("", withURL))
	assert.Equal(t, "log", selectProvider("log", withURL))
}

func TestNeedsKey(t *testing.T) {
	assert.Assert(t, !needsKey([]ddns.Profile{{Host: "a", Domain: "example.com", APIKey: "k"}}))
	assert.Assert(t, needsKey([]ddns.Profile{{Host: "a", Domain: "example.com", APIKey: "k"}, {Host: "b", Domain: "example.com"}}))
}

func baseConfig() Config {
	return Config{
		Endpoints: []string{"https://a.example/ip"},
		Timeout:   time.Second,
		Interval:  time.Minute,
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.Profiles = []string{"x:home"}
	assert.ErrorContains(t, run(cfg, discardLogger), "missing required argument: domain")

	cfg = baseConfig()
	cfg.Params = []string{"bogus=1"}
	assert.ErrorContains(t, run(cfg, discardLogger), "unknown parameter")

	cfg = baseConfig()
	cfg.Endpoints = nil
	assert.ErrorContains(t, run(cfg, discardLogger), "at least one endpoint is required")

	cfg = baseConfig()
	cfg.Provider = "webhook"
	cfg.Profiles = []string{"x:home:example.com:k"}
	assert.ErrorContains(t, run(cfg, discardLogger), "requires a url= parameter")
}

func TestRunWebhookWithEmptyKey(t *testing.T) {
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "10.0.0.1")
	}))
	defer endpoint.Close()

	queries := make(chan url.Values, 1)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Query()
	}))
	defer hook.Close()

	cfg := baseConfig()
	cfg.Endpoints = []string{endpoint.URL}
	cfg.Params = []string{"url=" + hook.URL}
	cfg.Profiles = []string{"x:home:example.com:"}
	cfg.KeyFile = filepath.Join(t.TempDir(), "missing")
	cfg.Once = true
	assert.NilError(t, run(cfg, discardLogger))

	q := <-queries
	assert.Assert(t, q.Has("key"))
	assert.Equal(t, "", q.Get("key"))
	assert.Equal(t, "home", q.Get("host"))
	assert.Equal(t, "10.0.0.1", q.Get("ip"))
}

func TestRunCloudflareMissingKeyFile(t *testing.T) {
	if term.IsTerminal(int(syscall.Stdin)) {
		t.Skip("stdin is a terminal; setup would prompt for a token")
	}
	cfg := baseConfig()
	cfg.Provider = "cloudflare"
	cfg.Profiles = []string{"x:home:example.com:"}
	cfg.KeyFile = filepath.Join(t.TempDir(), "missing")
	assert.ErrorContains(t, run(cfg, discardLogger), "does not exist")
}

func TestRunCloudflareWithoutKeyFile(t *testing.T) {
	cfg := baseConfig()
	cfg.Provider = "cloudflare"
	cfg.Profiles = []string{"x:home:example.com:"}
	cfg.Endpoints = []string{"unsupported://endpoint"}

	// the empty key is passed through and startup continues to the resolver
	assert.ErrorContains(t, run(cfg, discardLogger), "unsupported endpoint scheme")
}
