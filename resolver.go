package ddns

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

// DefaultTimeout bounds a single endpoint lookup.
const DefaultTimeout = 15 * time.Second

// ErrNoEndpoints is returned when a resolver is configured without any endpoints.
var ErrNoEndpoints = errors.New("no public IP endpoints were provided")

// Endpoint is a single source of the public IP address.
type Endpoint interface {
	Lookup(ctx context.Context) (string, error)
	String() string
}

// EndpointError is the failure of a single endpoint during a discovery round.
type EndpointError struct {
	Endpoint string
	Err      error
}

func (e EndpointError) Error() string {
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Err)
}

func (e EndpointError) Unwrap() error {
	return e.Err
}

// DiscoveryError is returned when every endpoint failed.
// Attempts holds one entry per endpoint in the order they were tried.
type DiscoveryError struct {
	Attempts []EndpointError
}

func (e *DiscoveryError) Error() string {
	if len(e.Attempts) == 0 {
		return "failed to get public IP: no endpoints were attempted"
	}
	msgs := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		msgs[i] = a.Error()
	}
	return fmt.Sprintf("failed to get public IP: [%s]", strings.Join(msgs, "; "))
}

func (e *DiscoveryError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a
	}
	return errs
}

// WebResolver constructs a resolver which looks up the public IP address from a list of endpoints.
//
// Endpoints are tried strictly in the order given and the first one to answer wins,
// so the order is a priority, not a vote.
// The supported URL schemes are:
//
//	http, https   GET request; any 2xx response body is returned as is
//	stun          STUN binding request over UDP, e.g. stun://stun.l.google.com:19302
//	iface         address of a local interface, e.g. iface://eth0 (iface:// for any interface)
//
// An empty list is an error.
// The body of an http endpoint is not trimmed or validated;
// returning a usable address is the endpoint's responsibility.
func WebResolver(serviceURL ...string) (*FallbackResolver, error) {
	if len(serviceURL) == 0 {
		return nil, ErrNoEndpoints
	}
	r := &FallbackResolver{}
	for _, s := range serviceURL {
		u, err := url.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("error parsing URL: %w", err)
		}
		e, err := newEndpoint(u)
		if err != nil {
			return nil, err
		}
		r.Endpoints = append(r.Endpoints, e)
	}
	return r, nil
}

func newEndpoint(u *url.URL) (Endpoint, error) {
	switch u.Scheme {
	case "http", "https":
		return &httpEndpoint{url: u, timeout: DefaultTimeout}, nil
	case "stun":
		return newSTUNEndpoint(u), nil
	case "iface":
		return ifaceEndpoint{name: u.Host}, nil
	default:
		return nil, fmt.Errorf("unsupported endpoint scheme %q in %s", u.Scheme, u)
	}
}

// FallbackResolver tries each of its endpoints in order until one answers.
//
// It does not cache or retry; a resolver that fails completely
// is expected to be called again on the next round.
type FallbackResolver struct {
	Endpoints []Endpoint
	logger    logr.Logger
	metrics   *Metrics
}

// Resolve implements ddns.Resolver.
//
// The error is always a *DiscoveryError, holding every endpoint's failure.
func (r *FallbackResolver) Resolve(ctx context.Context) (string, error) {
	attempts := []EndpointError{}
	for _, e := range r.Endpoints {
		ip, err := e.Lookup(ctx)
		if err == nil {
			r.metrics.endpointAttempt(e.String(), nil)
			r.logger.V(1).Info("endpoint answered", "endpoint", e.String())
			return ip, nil
		}
		r.metrics.endpointAttempt(e.String(), err)
		r.logger.V(1).Info("endpoint failed", "endpoint", e.String(), "error", err.Error())
		attempts = append(attempts, EndpointError{Endpoint: e.String(), Err: err})
	}
	return "", &DiscoveryError{Attempts: attempts}
}

// SetLogger sets the logger used to report each endpoint attempt.
func (r *FallbackResolver) SetLogger(logger logr.Logger) {
	r.logger = logger
}

// SetMetrics records each endpoint attempt in m.
func (r *FallbackResolver) SetMetrics(m *Metrics) {
	r.metrics = m
}

// SetHTTPClient sets the client used by http endpoints.
func (r *FallbackResolver) SetHTTPClient(c *http.Client) {
	for _, e := range r.Endpoints {
		if he, ok := e.(*httpEndpoint); ok {
			he.client = c
		}
	}
}

// SetTimeout sets the time limit of a single endpoint lookup.
// Zero or negative values restore DefaultTimeout.
func (r *FallbackResolver) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultTimeout
	}
	for _, e := range r.Endpoints {
		switch te := e.(type) {
		case *httpEndpoint:
			te.timeout = d
		case *stunEndpoint:
			te.timeout = d
		}
	}
}
