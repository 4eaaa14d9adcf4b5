package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"deepresearch/internal/research"
)

type ntfyTransport struct {
	endpoint string
	client   *http.Client
}

// newNtfyTransport accepts either a bare topic published on server or a full
// topic URL.
func newNtfyTransport(server, topic string, client *http.Client) *ntfyTransport {
	topic = strings.TrimSpace(topic)
	endpoint := topic
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		endpoint = strings.TrimRight(strings.TrimSpace(server), "/") + "/" + strings.TrimLeft(topic, "/")
	}
	return &ntfyTransport{endpoint: endpoint, client: client}
}

func (n *ntfyTransport) Name() string { return "ntfy" }

func (n *ntfyTransport) Send(ctx context.Context, artifact research.ReportArtifact) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(fullMarkdown(artifact)))
	if err != nil {
		return "", fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/markdown; charset=utf-8")
	req.Header.Set("Title", subject(artifact))
	req.Header.Set("Tags", "deepresearch,report")
	req.Header.Set("Markdown", "yes")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &statusError{transport: n.Name(), statusCode: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	var published struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&published); err != nil {
		return "", nil
	}
	return published.ID, nil
}
