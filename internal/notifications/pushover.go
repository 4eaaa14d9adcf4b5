package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"deepresearch/internal/research"
)

// pushoverMessageLimit is the API's maximum message length in characters.
const pushoverMessageLimit = 1024

type pushoverTransport struct {
	endpoint string
	token    string
	user     string
	client   *http.Client
}

func newPushoverTransport(endpoint, token, user string, client *http.Client) *pushoverTransport {
	return &pushoverTransport{
		endpoint: strings.TrimSpace(endpoint),
		token:    strings.TrimSpace(token),
		user:     strings.TrimSpace(user),
		client:   client,
	}
}

func (p *pushoverTransport) Name() string { return "pushover" }

// Send pushes the short summary; the full report goes to the other channels.
func (p *pushoverTransport) Send(ctx context.Context, artifact research.ReportArtifact) (string, error) {
	form := url.Values{}
	form.Set("token", p.token)
	form.Set("user", p.user)
	form.Set("title", subject(artifact))
	form.Set("message", summaryText(artifact, pushoverMessageLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build pushover request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send pushover notification: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= 300 {
		return "", &statusError{transport: p.Name(), statusCode: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	var result struct {
		Status  int    `json:"status"`
		Request string `json:"request"`
	}
	if err := json.Unmarshal(body, &result); err == nil && result.Status != 1 {
		return "", fmt.Errorf("pushover rejected message: %s", strings.TrimSpace(string(body)))
	}
	return result.Request, nil
}
