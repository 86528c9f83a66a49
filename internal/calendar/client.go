// Package calendar talks to the external calendar provider over its REST
// surface. Rate-limit and gateway failures are mapped onto the domain's
// transient errors and retried under the transport policy; everything else
// propagates immediately.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/akozyrev/TrainingEvents/internal/domain"
	"github.com/akozyrev/TrainingEvents/internal/retry"
	"github.com/wb-go/wbf/logger"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	log        logger.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, log logger.Logger) *Client {
	if baseURL == "" {
		log.Warn("calendar base url is empty, calendar synchronization disabled")
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      token,
		log:        log,
	}
}

func (c *Client) disabled() bool { return c.baseURL == "" }

type eventPayload struct {
	Subject           string    `json:"subject"`
	Body              string    `json:"body"`
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	Location          string    `json:"location"`
	MeetingLink       string    `json:"meeting_link,omitempty"`
	RequiredAttendees []string  `json:"required_attendees"`
	OptionalAttendees []string  `json:"optional_attendees"`
}

func payloadFor(e *domain.Event) eventPayload {
	required := append([]string{}, e.MandatoryAttendees...)
	required = append(required, e.RegisteredAttendees...)
	return eventPayload{
		Subject:           e.Name,
		Body:              e.Description,
		Start:             e.StartAt(),
		End:               e.EndAt(),
		Location:          e.Venue,
		MeetingLink:       e.MeetingLink,
		RequiredAttendees: required,
		OptionalAttendees: append([]string{}, e.OptionalAttendees...),
	}
}

func (c *Client) CreateEvent(ctx context.Context, e *domain.Event) (string, error) {
	if c.disabled() {
		return "", nil
	}
	url := fmt.Sprintf("%s/v1/organizers/%s/events", c.baseURL, e.CreatedBy)

	var created struct {
		ID string `json:"id"`
	}
	err := retry.Do(ctx, retry.Transport, func(ctx context.Context) error {
		return c.do(ctx, http.MethodPost, url, payloadFor(e), &created)
	})
	if err != nil {
		return "", fmt.Errorf("create calendar event: %w", err)
	}

	return created.ID, nil
}

func (c *Client) UpdateEvent(ctx context.Context, e *domain.Event) error {
	if c.disabled() || e.GraphEventID == "" {
		return nil
	}
	url := fmt.Sprintf("%s/v1/organizers/%s/events/%s", c.baseURL, e.CreatedBy, e.GraphEventID)

	err := retry.Do(ctx, retry.Transport, func(ctx context.Context) error {
		return c.do(ctx, http.MethodPatch, url, payloadFor(e), nil)
	})
	if err != nil {
		return fmt.Errorf("update calendar event: %w", err)
	}
	return nil
}

func (c *Client) CancelEvent(ctx context.Context, externalID, organizerID, comment string) error {
	if c.disabled() {
		return nil
	}
	url := fmt.Sprintf("%s/v1/organizers/%s/events/%s/cancel", c.baseURL, organizerID, externalID)
	body := map[string]string{"comment": comment}

	err := retry.Do(ctx, retry.Transport, func(ctx context.Context) error {
		return c.do(ctx, http.MethodPost, url, body, nil)
	})
	if err != nil {
		return fmt.Errorf("cancel calendar event: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBadGateway, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.ErrThrottled
	case resp.StatusCode == http.StatusBadGateway:
		return domain.ErrBadGateway
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrEventNotFound
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("calendar provider returned %d: %s", resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
