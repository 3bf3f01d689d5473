package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/meridianhq/meridian/internal/shared"
)

// Client is the user service's HTTP client for the notify service. It
// implements users.Notifier.
type Client struct {
	baseURL string
	from    string
	client  *http.Client
}

// NewClient constructs a Client. httpClient may be nil, in which case
// http.DefaultClient is used; callers set their own to control timeouts.
func NewClient(baseURL, from string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, from: from, client: httpClient}
}

// Send invokes POST /notify/send. Any transport error or non-2xx response
// maps to shared.ErrNotification; the caller decides whether that is fatal.
func (c *Client) Send(ctx context.Context, recipient, subject, body string) error {
	q := url.Values{}
	q.Set("emailId", recipient)
	q.Set("subject", subject)
	q.Set("message", body)
	if c.from != "" {
		q.Set("senderEmail", c.from)
	}

	endpoint := c.baseURL + "/notify/send?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", shared.ErrNotification, err)
	}
	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotification, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("%w: notify service returned %d", shared.ErrNotification, res.StatusCode)
	}
	return nil
}
