// Package webhook posts copy results to HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/jvs-project/fcp/pkg/model"
)

// EventType names what happened to a copy.
type EventType string

const (
	EventCopyCompleted EventType = "copy.completed"
	EventCopyCanceled  EventType = "copy.canceled"
	EventCopyAbandoned EventType = "copy.abandoned"
	EventCopyFailed    EventType = "copy.failed"
)

// EventFor returns the event type for a terminal status.
func EventFor(s model.Status) EventType {
	return EventType("copy." + string(s))
}

// Event is the JSON payload sent to hooks.
type Event struct {
	Event      EventType `json:"event"`
	Timestamp  string    `json:"timestamp"`
	CopyID     string    `json:"copy_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Bytes      int64     `json:"bytes"`
	Total      int64     `json:"total"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// NewEvent builds the payload for res.
func NewEvent(copyID string, res model.Result) Event {
	ev := Event{
		Event:      EventFor(res.Status),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		CopyID:     copyID,
		From:       res.Spec.From,
		To:         res.Spec.To,
		Bytes:      res.BytesCopied,
		Total:      res.TotalBytes,
		DurationMS: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}
	return ev
}

// HookConfig is one endpoint. An empty Events list, or "*", matches all.
type HookConfig struct {
	URL    string      `yaml:"url" json:"url"`
	Secret string      `yaml:"secret,omitempty" json:"-"`
	Events []EventType `yaml:"events,omitempty" json:"events,omitempty"`
}

// Matches reports whether the hook wants event.
func (h HookConfig) Matches(event EventType) bool {
	return len(h.Events) == 0 || slices.Contains(h.Events, event) || slices.Contains(h.Events, "*")
}

// Client sends events synchronously, retrying failed deliveries.
type Client struct {
	hooks      []HookConfig
	http       *http.Client
	maxRetries int
	retryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetry sets the retry count and the delay between attempts.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = delay
	}
}

// NewClient creates a client for hooks.
func NewClient(hooks []HookConfig, opts ...Option) *Client {
	c := &Client{
		hooks:      hooks,
		http:       &http.Client{Timeout: 10 * time.Second},
		maxRetries: 2,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send delivers ev to every matching hook and joins the failures.
func (c *Client) Send(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	var errs []error
	for _, hook := range c.hooks {
		if !hook.Matches(ev.Event) {
			continue
		}
		if err := c.deliver(ctx, hook, ev.Event, payload); err != nil {
			errs = append(errs, fmt.Errorf("webhook %s: %w", hook.URL, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Client) deliver(ctx context.Context, hook HookConfig, event EventType, payload []byte) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		req, err := newRequest(ctx, hook, event, payload)
		if err != nil {
			return err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("http %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return lastErr
}

func newRequest(ctx context.Context, hook HookConfig, event EventType, payload []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "fcp-webhook/1.0")
	req.Header.Set("X-FCP-Event", string(event))
	if hook.Secret != "" {
		req.Header.Set("X-FCP-Signature", Sign(payload, hook.Secret))
	}
	return req, nil
}

// Sign returns the HMAC-SHA256 signature header value for payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
