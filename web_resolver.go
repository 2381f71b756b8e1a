package ddns

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

const userAgent = "ddnsd (+https://github.com/Travis-Britz/ddnsd)"

var defaultHTTPClient = cleanhttp.DefaultPooledClient()

type httpEndpoint struct {
	url     *url.URL
	client  *http.Client
	timeout time.Duration
}

func (e *httpEndpoint) String() string {
	return e.url.String()
}

func (e *httpEndpoint) Lookup(ctx context.Context) (string, error) {
	// the timeout ensures every lookup eventually completes even if the caller supplied context.Background
	// and a client without a timeout.
	timeout := e.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url.String(), nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("User-Agent", userAgent)

	httpclient := e.client
	if httpclient == nil {
		httpclient = defaultHTTPClient
	}

	resp, err := httpclient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("http request returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}
	return string(body), nil
}
