package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// LocalDateTime is the zone-less layout the calendar API expects next to
// an explicit timeZone field.
const LocalDateTime = "2006-01-02T15:04:05"

type DateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type Attendee struct {
	Email string `json:"email"`
}

type EventRequest struct {
	Start       DateTime   `json:"start"`
	End         DateTime   `json:"end"`
	Attendees   []Attendee `json:"attendees"`
	Location    string     `json:"location"`
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
}

// Event is the part of the created event this service reads back.
type Event struct {
	ID      string `json:"id"`
	Summary string `json:"summary,omitempty"`
	Status  string `json:"status,omitempty"`
}

// Client talks to the remote calendar API. The http.Client is shared and
// owned by the caller.
type Client struct {
	hc   *http.Client
	base string
}

func NewClient(hc *http.Client, baseURL string) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{hc: hc, base: strings.TrimRight(baseURL, "/")}
}

func (c *Client) CreateEvent(ctx context.Context, tok *oauth2.Token, calendarID string, ev EventRequest) (*Event, error) {
	out := &Event{}
	path := "/calendars/" + url.PathEscape(calendarID) + "/events"
	if err := c.do(ctx, tok, "create event", http.MethodPost, path, ev, out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, errors.New("create event: response has no id")
	}
	return out, nil
}

func (c *Client) DeleteEvent(ctx context.Context, tok *oauth2.Token, calendarID, eventID string) error {
	path := "/calendars/" + url.PathEscape(calendarID) + "/events/" + url.PathEscape(eventID)
	return c.do(ctx, tok, "delete event", http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, tok *oauth2.Token, op, method, path string, in, out any) error {
	if tok == nil || tok.AccessToken == "" {
		return fmt.Errorf("%s: no access token", op)
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	tok.SetAuthHeader(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(op, resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", op, err)
	}
	return nil
}
