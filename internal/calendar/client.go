// Package calendar is the notification sink the dispatch core announces jobs
// to: an external calendar/task bridge that puts new jobs on the assigned
// master's calendar and, on arrival, reveals the client contact on the event.
// Every call is best-effort; lifecycle state never depends on the sink.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Sentinel errors for bridge failures.
var (
	ErrBridgeUnreachable = errors.New("calendar bridge unreachable")
	ErrBridgeError       = errors.New("calendar bridge error")
	ErrBridgeTimeout     = errors.New("calendar bridge timeout")
)

// JobSummary is the job view sent to the bridge on creation. The client
// phone is withheld until arrival.
type JobSummary struct {
	JobID       string  `json:"job_id"`
	ClientName  string  `json:"client_name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Address     string  `json:"address"`
	Price       float64 `json:"price"`
}

// EventRefs are the external artifact identifiers the bridge created.
type EventRefs struct {
	EventRef string `json:"event_ref"`
	TaskRef  string `json:"task_ref"`
}

// Sink is the interface the dispatch core consumes.
type Sink interface {
	CreateEvent(ctx context.Context, summary JobSummary) (EventRefs, error)
	RevealClientContact(ctx context.Context, eventRef, clientName, clientPhone string) error
}

// Client implements Sink against the bridge's HTTP API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a calendar bridge client.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) CreateEvent(ctx context.Context, summary JobSummary) (EventRefs, error) {
	var refs EventRefs
	if err := c.post(ctx, "/api/v1/events", summary, &refs); err != nil {
		return EventRefs{}, err
	}
	return refs, nil
}

func (c *Client) RevealClientContact(ctx context.Context, eventRef, clientName, clientPhone string) error {
	payload := struct {
		EventRef    string `json:"event_ref"`
		ClientName  string `json:"client_name"`
		ClientPhone string `json:"client_phone"`
	}{eventRef, clientName, clientPhone}

	return c.post(ctx, "/api/v1/events/reveal-contact", payload, nil)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrBridgeError, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding bridge response: %w", err)
		}
	}
	return nil
}

func classifyError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrBridgeTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrBridgeUnreachable, err)
}

// Noop is the sink used when no bridge is configured. Every call succeeds
// and creates nothing.
type Noop struct{}

func (Noop) CreateEvent(context.Context, JobSummary) (EventRefs, error) {
	return EventRefs{}, nil
}

func (Noop) RevealClientContact(context.Context, string, string, string) error {
	return nil
}
