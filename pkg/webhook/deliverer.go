package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const (
	// DefaultTimeout bounds a single delivery attempt.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 64 * 1024
)

// Signature headers carried on every outbound delivery.
const (
	HeaderSignature = "X-Webhook-Signature"
	HeaderTimestamp = "X-Webhook-Timestamp"
	HeaderEvent     = "X-Webhook-Event"
	HeaderID        = "X-Webhook-Id"
)

// Delivery describes one outbound POST.
type Delivery struct {
	URL       string
	Secret    string
	Event     string
	WebhookID string
	Payload   any
	Timeout   time.Duration
}

// Result records the outcome of one delivery attempt. A non-2xx response is
// a failure; no automatic retry is performed.
type Result struct {
	WebhookID  string
	URL        string
	StatusCode int
	Duration   time.Duration
	Err        error
}

func (r Result) Success() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Deliverer signs and POSTs webhook payloads.
type Deliverer struct {
	client         *http.Client
	defaultTimeout time.Duration
	logger         *slog.Logger
}

func NewDeliverer(logger *slog.Logger) *Deliverer {
	return NewDelivererWithTimeout(logger, DefaultTimeout)
}

// NewDelivererWithTimeout sets the fallback timeout applied to deliveries
// that carry none of their own, e.g. from the webhooks.timeout_ms setting.
func NewDelivererWithTimeout(logger *slog.Logger, timeout time.Duration) *Deliverer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Deliverer{
		client:         &http.Client{},
		defaultTimeout: timeout,
		logger:         logger.With("module", "webhook_deliverer"),
	}
}

// Deliver signs the payload and POSTs it. The attempt is bounded by the
// delivery's timeout (DefaultTimeout when unset). Failures are returned for
// the caller to log or record; they are never retried here.
func (d *Deliverer) Deliver(ctx context.Context, delivery Delivery) Result {
	started := time.Now()
	result := Result{WebhookID: delivery.WebhookID, URL: delivery.URL}

	body, err := json.Marshal(delivery.Payload)
	if err != nil {
		result.Err = fmt.Errorf("failed to marshal webhook payload: %w", err)

		return result
	}

	timeout := delivery.Timeout
	if timeout <= 0 {
		timeout = d.defaultTimeout
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, delivery.URL, bytes.NewReader(body))
	if err != nil {
		result.Err = fmt.Errorf("failed to build webhook request: %w", err)

		return result
	}

	timestamp := strconv.FormatInt(started.UnixMilli(), 10)

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderSignature, Sign(delivery.Secret, timestamp, body))
	req.Header.Set(HeaderTimestamp, timestamp)
	req.Header.Set(HeaderEvent, delivery.Event)
	req.Header.Set(HeaderID, delivery.WebhookID)

	resp, err := d.client.Do(req)
	if err != nil {
		result.Err = fmt.Errorf("webhook request failed: %w", err)
		result.Duration = time.Since(started)

		return result
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			d.logger.Warn("Failed to close webhook response body", "error", err)
		}
	}()

	// Drain a bounded amount so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	result.StatusCode = resp.StatusCode
	result.Duration = time.Since(started)

	if !result.Success() {
		result.Err = fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}

	return result
}
