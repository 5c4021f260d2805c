package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"appointment-caller/internal/calendar"
	"appointment-caller/internal/config"
	"appointment-caller/internal/failure"
)

// Publisher delivers calendar payloads to the automation sink.
//
// One POST per payload. There is no retry: a failed publish leaves the stored
// record in place and is reported to the caller.
type Publisher struct {
	url    string
	client *http.Client
	log    *slog.Logger
}

func NewPublisher(cfg config.WebhookConfig, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.With("component", "webhook"),
	}
}

// Publish errors carry failure.KindPublish.
func (p *Publisher) Publish(ctx context.Context, payload calendar.Payload) error {
	if p.url == "" {
		return failure.New(failure.KindPublish, "webhook url not configured")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return failure.Wrap(failure.KindPublish, err, "encode payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return failure.Wrap(failure.KindPublish, err, "build webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return failure.Wrap(failure.KindPublish, err, "post webhook")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		p.log.WarnContext(ctx, "webhook rejected payload",
			"record_id", payload.RecordID,
			"status", resp.StatusCode,
		)
		msg := strings.TrimSpace(string(snippet))
		if msg == "" {
			return failure.New(failure.KindPublish, "webhook returned status %d", resp.StatusCode)
		}
		return failure.New(failure.KindPublish, "webhook returned status %d: %s", resp.StatusCode, msg)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	p.log.InfoContext(ctx, "webhook delivered", "record_id", payload.RecordID, "status", resp.StatusCode)
	return nil
}
