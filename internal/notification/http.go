package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const sendTimeout = 10 * time.Second

// poster delivers JSON bodies for the HTTP based channels.
type poster struct {
	channel string
	client  *http.Client
}

func newPoster(channel string) poster {
	return poster{channel: channel, client: &http.Client{Timeout: sendTimeout}}
}

// postJSON marshals v, POSTs it to url and fails on any non-2xx reply.
func (p poster) postJSON(ctx context.Context, url string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", p.channel, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", p.channel, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: send: %w", p.channel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%s: unexpected status %d", p.channel, resp.StatusCode)
	}
	return nil
}
