package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"deepresearch/internal/config"
	"deepresearch/internal/logging"
	"deepresearch/internal/research"
	"deepresearch/internal/services"
)

const (
	userAgent   = "deepresearch/0.1.0"
	stageName   = "notifying"
	noneChannel = "none"
)

// Transport sends one report over a single channel and returns a
// channel-specific reference (message id, file path) when available.
type Transport interface {
	Name() string
	Send(ctx context.Context, artifact research.ReportArtifact) (string, error)
}

// Service implements research.Notifier over the configured transports.
type Service struct {
	transports []Transport
	now        func() time.Time
	logger     *slog.Logger
}

var _ research.Notifier = (*Service)(nil)

type serviceOptions struct {
	client *http.Client
	now    func() time.Time
	logger *slog.Logger
}

// Option customizes a Service.
type Option func(*serviceOptions)

// WithHTTPClient overrides the HTTP client shared by network transports.
func WithHTTPClient(client *http.Client) Option {
	return func(o *serviceOptions) {
		if client != nil {
			o.client = client
		}
	}
}

// WithClock overrides the time source for acknowledgements and file names.
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// NewService builds a Service from the notification settings. Transports
// without credentials are skipped.
func NewService(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("notifications: config is nil")
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	o := serviceOptions{client: &http.Client{Timeout: timeout}, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	n := cfg.Notifications
	var transports []Transport
	if n.NtfyEnabled() {
		transports = append(transports, newNtfyTransport(n.NtfyServer, n.NtfyTopic, o.client))
	}
	if n.EmailEnabled() {
		transports = append(transports, newEmailTransport(n.SendGridURL, n.SendGridAPIKey, n.FromEmail, n.ToEmail, o.client))
	}
	if n.PushoverEnabled() {
		transports = append(transports, newPushoverTransport(n.PushoverURL, n.PushoverToken, n.PushoverUser, o.client))
	}
	if n.WriteFile {
		transports = append(transports, newFileTransport(cfg.Paths.ReportDir, o.now))
	}
	return NewServiceWithTransports(transports, WithClock(o.now), WithLogger(o.logger)), nil
}

// NewServiceWithTransports builds a Service over explicit transports.
func NewServiceWithTransports(transports []Transport, opts ...Option) *Service {
	o := serviceOptions{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	kept := make([]Transport, 0, len(transports))
	for _, t := range transports {
		if t != nil {
			kept = append(kept, t)
		}
	}
	return &Service{
		transports: kept,
		now:        o.now,
		logger:     logging.NewComponentLogger(o.logger, "notifications"),
	}
}

// Channels lists the enabled transports in delivery order.
func (s *Service) Channels() []string {
	names := make([]string, 0, len(s.transports))
	for _, t := range s.transports {
		names = append(names, t.Name())
	}
	return names
}

// Deliver sends the artifact through every transport in order. The first
// failure aborts delivery.
func (s *Service) Deliver(ctx context.Context, artifact research.ReportArtifact) (research.Acknowledgement, error) {
	if artifact.Empty() {
		return research.Acknowledgement{}, services.Wrap(services.ErrValidation, stageName, "deliver report", "report body is empty", nil)
	}
	logger := logging.WithContext(ctx, s.logger)
	if len(s.transports) == 0 {
		logger.Info("no notification transports configured; report not sent",
			logging.String(logging.FieldEventType, "notification_skipped"))
		return research.Acknowledgement{Channel: noneChannel, DeliveredAt: s.now()}, nil
	}

	channels := make([]string, 0, len(s.transports))
	refs := make([]string, 0, len(s.transports))
	for _, t := range s.transports {
		ref, err := t.Send(ctx, artifact)
		if err != nil {
			return research.Acknowledgement{}, services.Wrap(services.MarkerFor(err), stageName, t.Name(), "delivery failed", err)
		}
		logger.Debug("report delivered",
			logging.String("channel", t.Name()),
			logging.String("reference", ref))
		channels = append(channels, t.Name())
		if ref != "" {
			refs = append(refs, ref)
		}
	}
	return research.Acknowledgement{
		Channel:     strings.Join(channels, ","),
		Reference:   strings.Join(refs, ","),
		DeliveredAt: s.now(),
	}, nil
}

// TestNotification sends a small fixed report through every transport.
func (s *Service) TestNotification(ctx context.Context) (research.Acknowledgement, error) {
	return s.Deliver(ctx, research.ReportArtifact{
		Title:        "Deep Research Test",
		ShortSummary: "Notification system test",
		MarkdownBody: "## Notification test\n\nIf you can read this, **deepresearch** can deliver reports here.",
	})
}

type statusError struct {
	transport  string
	statusCode int
	body       string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("%s returned %d", e.transport, e.statusCode)
	}
	return fmt.Sprintf("%s returned %d: %s", e.transport, e.statusCode, e.body)
}
