package ddns

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/go-querystring/query"
	"github.com/hashicorp/go-retryablehttp"
)

// webhookQuery is appended to the webhook URL on every update.
type webhookQuery struct {
	Host   string `url:"host"`
	Domain string `url:"domain"`
	Key    string `url:"key"`
	IP     string `url:"ip"`
}

// webhookUpdater implements ddns.Updater by calling a dyndns style update URL.
type webhookUpdater struct {
	url    *url.URL
	client *retryablehttp.Client
}

func newWebhookUpdater(rawURL string) (*webhookUpdater, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing webhook URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("webhook URL must be http or https; got %q", rawURL)
	}
	c := retryablehttp.NewClient()
	c.RetryMax = 2
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 5 * time.Second
	c.Logger = leveledLogger{logr.Discard()}
	return &webhookUpdater{url: u, client: c}, nil
}

func (w *webhookUpdater) SetLogger(logger logr.Logger) {
	w.client.Logger = leveledLogger{logger}
}

func (w *webhookUpdater) SetHTTPClient(c *http.Client) {
	w.client.HTTPClient = c
}

// Update implements ddns.Updater.
//
// The address is passed through as the endpoint returned it.
func (w *webhookUpdater) Update(ctx context.Context, p Profile, ip string) error {
	q, err := query.Values(webhookQuery{
		Host:   p.Host,
		Domain: p.Domain,
		Key:    p.APIKey,
		IP:     ip,
	})
	if err != nil {
		return fmt.Errorf("error encoding webhook query: %w", err)
	}
	u := *w.url
	values := u.Query()
	for k, v := range q {
		values[k] = v
	}
	u.RawQuery = values.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("error creating webhook request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request for %s failed: %w", p, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook for %s returned %s", p, resp.Status)
	}
	return nil
}

// leveledLogger lets retryablehttp log through logr.
type leveledLogger struct {
	log logr.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error(nil, msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.V(1).Info(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Info(msg, keysAndValues...)
}
