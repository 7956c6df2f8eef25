// Package client is a Go client for the smartbus REST API. Timeline lookups
// degrade to a locally generated mock timeline when the server has nothing.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
	"smartbus/internal/services"
	"smartbus/internal/timeline"
)

// Error is a non-2xx API response.
type Error struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %d %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %d", e.URL, e.StatusCode)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client

	mu    sync.RWMutex
	token string
}

// New returns a client for base, e.g. "http://localhost:3001". A trailing
// "/api" is added when missing.
func New(base string) *Client {
	base = strings.TrimRight(base, "/")
	if !strings.HasSuffix(base, "/api") {
		base += "/api"
	}
	return &Client{BaseURL: base, HTTP: &http.Client{Timeout: 15 * time.Second}}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var msg struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&msg)
		if msg.Message == "" {
			msg.Message = msg.Error
		}
		return &Error{URL: req.URL.Redacted(), StatusCode: resp.StatusCode, Message: msg.Message}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, mobile, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	in := map[string]string{"mobile": mobile, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, in, &out); err != nil {
		return "", err
	}
	c.SetToken(out.Token)
	return out.Token, nil
}

func (c *Client) SearchBuses(ctx context.Context, source, destination string) (services.SearchResult, error) {
	var out services.SearchResult
	q := url.Values{"source": {source}, "destination": {destination}}
	err := c.do(ctx, http.MethodGet, "/buses/search", q, nil, &out)
	return out, err
}

// TimelineResult is a bus timeline as shown to riders. Fallback is set when
// the stops were generated locally.
type TimelineResult struct {
	Route    services.TimelineRoute
	Stops    []timeline.Entry
	Current  int
	Fallback bool
}

// Timeline fetches the bus timeline. When the call fails or returns no
// stops, a mock timeline between source and destination is returned
// instead (the route's own endpoints are preferred when known) and err is
// nil.
func (c *Client) Timeline(ctx context.Context, busID int64, source, destination string) (TimelineResult, error) {
	var out struct {
		Success bool                 `json:"success"`
		Data    services.BusTimeline `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/routes/bus/"+strconv.FormatInt(busID, 10)+"/timeline", nil, nil, &out)
	if err == nil && out.Success && len(out.Data.Timeline.Stops) > 0 {
		return TimelineResult{
			Route:   out.Data.Route,
			Stops:   out.Data.Timeline.Stops,
			Current: out.Data.Timeline.CurrentStopIndex,
		}, nil
	}
	if ctx.Err() != nil {
		return TimelineResult{}, ctx.Err()
	}

	if err != nil {
		log.Printf("[CLIENT] bus_id=%d timeline unavailable, using fallback: %v", busID, err)
	} else {
		log.Printf("[CLIENT] bus_id=%d timeline empty, using fallback", busID)
		if out.Data.Route.SourceStop != "" && out.Data.Route.DestinationStop != "" {
			source, destination = out.Data.Route.SourceStop, out.Data.Route.DestinationStop
		}
	}
	stops := timeline.Fallback(source, destination)
	return TimelineResult{
		Route:    out.Data.Route,
		Stops:    stops,
		Current:  currentIndex(stops),
		Fallback: true,
	}, nil
}

func currentIndex(stops []timeline.Entry) int {
	for i, s := range stops {
		if s.Status == domain.StopCurrent {
			return i
		}
	}
	return 0
}

type NotificationQuery struct {
	Type     string
	Priority string
	IsRead   *bool
	Limit    int
	Offset   int
}

func (c *Client) Notifications(ctx context.Context, q NotificationQuery) (services.NotificationList, error) {
	v := url.Values{}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	if q.Priority != "" {
		v.Set("priority", q.Priority)
	}
	if q.IsRead != nil {
		v.Set("is_read", strconv.FormatBool(*q.IsRead))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	var out services.NotificationList
	err := c.do(ctx, http.MethodGet, "/notifications", v, nil, &out)
	return out, err
}

func (c *Client) MarkRead(ctx context.Context, notificationID int64) error {
	return c.do(ctx, http.MethodPatch, "/notifications/"+strconv.FormatInt(notificationID, 10)+"/read", nil, nil, nil)
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		UnreadCount int `json:"unread_count"`
	}
	err := c.do(ctx, http.MethodGet, "/notifications/unread-count", nil, nil, &out)
	return out.UnreadCount, err
}

func (c *Client) BusLocations(ctx context.Context) ([]models.BusLocation, error) {
	var out struct {
		Locations []models.BusLocation `json:"locations"`
	}
	err := c.do(ctx, http.MethodGet, "/buses/locations", nil, nil, &out)
	return out.Locations, err
}
