package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"deepresearch/internal/research"
)

// emailTransport sends reports through the SendGrid v3 mail send API.
type emailTransport struct {
	endpoint string
	apiKey   string
	from     string
	to       string
	client   *http.Client
}

func newEmailTransport(endpoint, apiKey, from, to string, client *http.Client) *emailTransport {
	return &emailTransport{
		endpoint: strings.TrimSpace(endpoint),
		apiKey:   strings.TrimSpace(apiKey),
		from:     strings.TrimSpace(from),
		to:       strings.TrimSpace(to),
		client:   client,
	}
}

func (e *emailTransport) Name() string { return "email" }

type sendGridAddress struct {
	Email string `json:"email"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridMail struct {
	Personalizations []struct {
		To []sendGridAddress `json:"to"`
	} `json:"personalizations"`
	From    sendGridAddress   `json:"from"`
	Subject string            `json:"subject"`
	Content []sendGridContent `json:"content"`
}

func (e *emailTransport) Send(ctx context.Context, artifact research.ReportArtifact) (string, error) {
	htmlBody, err := renderHTML(artifact)
	if err != nil {
		return "", err
	}

	var mail sendGridMail
	mail.Personalizations = make([]struct {
		To []sendGridAddress `json:"to"`
	}, 1)
	for _, addr := range strings.Split(e.to, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			mail.Personalizations[0].To = append(mail.Personalizations[0].To, sendGridAddress{Email: addr})
		}
	}
	mail.From = sendGridAddress{Email: e.from}
	mail.Subject = subject(artifact)
	mail.Content = []sendGridContent{
		{Type: "text/plain", Value: fullMarkdown(artifact)},
		{Type: "text/html", Value: htmlBody},
	}

	payload, err := json.Marshal(mail)
	if err != nil {
		return "", fmt.Errorf("encode sendgrid request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build sendgrid request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &statusError{transport: e.Name(), statusCode: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Header.Get("X-Message-Id"), nil
}
