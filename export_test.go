package ddns

import "time"

// NewCloudflareUpdaterWithBaseURL points the Cloudflare updater at a fake API.
func NewCloudflareUpdaterWithBaseURL(baseURL string) Updater {
	cf := newCloudflareUpdater()
	cf.baseURL = baseURL
	return cf
}

// NewWebhookUpdaterWithRetryWait shortens the wait between webhook retries.
func NewWebhookUpdaterWithRetryWait(rawURL string, wait time.Duration) (Updater, error) {
	w, err := newWebhookUpdater(rawURL)
	if err != nil {
		return nil, err
	}
	w.client.RetryWaitMin = wait
	w.client.RetryWaitMax = wait
	return w, nil
}
