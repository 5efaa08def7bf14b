// Package ufcapi reads upcoming UFC cards from the ESPN MMA scoreboard.
package ufcapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/octagonbets/ppv-bot/internal/models"
	"github.com/octagonbets/ppv-bot/internal/repository"
)

const (
	userAgent      = "ppv-bot/1.0"
	listLimit      = "20"
	lookupLimit    = "50"
	maxEvents      = 10
	displayLayout  = "02.01.2006 15:04"
	requestTimeout = 10 * time.Second
)

// Client never fails loudly: transport, status and decode errors are logged and produce empty results.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     repository.Logger
}

func NewClient(baseURL string, logger repository.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

// ListUpcomingEvents returns at most ten UFC events, soonest first.
func (c *Client) ListUpcomingEvents(ctx context.Context) []models.Event {
	board, err := c.scoreboard(ctx, listLimit)
	if err != nil {
		c.logger.Error(err, "list_events", "espn", "", 0)
		return nil
	}

	type dated struct {
		event models.Event
		start time.Time
	}
	var found []dated
	for _, ev := range board.Events {
		if !ev.isUFC() {
			continue
		}
		found = append(found, dated{event: ev.toModel(), start: ev.startTime()})
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].start.Before(found[j].start) })
	if len(found) > maxEvents {
		found = found[:maxEvents]
	}

	out := make([]models.Event, 0, len(found))
	for _, item := range found {
		out = append(out, item.event)
	}
	return out
}

// GetEvent returns nil when the event is not on the scoreboard.
func (c *Client) GetEvent(ctx context.Context, id string) *models.Event {
	ev := c.findEvent(ctx, id)
	if ev == nil {
		return nil
	}
	event := ev.toModel()
	return &event
}

// GetEventFights returns the card with the main event first and positions re-indexed from zero.
func (c *Client) GetEventFights(ctx context.Context, id string) []models.Fight {
	ev := c.findEvent(ctx, id)
	if ev == nil {
		return nil
	}
	return ev.fights()
}

func (c *Client) findEvent(ctx context.Context, id string) *espnEvent {
	board, err := c.scoreboard(ctx, lookupLimit)
	if err != nil {
		c.logger.Error(err, "get_event", "espn", id, 0)
		return nil
	}
	for i := range board.Events {
		if board.Events[i].ID == id {
			return &board.Events[i]
		}
	}
	c.logger.Warn("get_event", "espn", id, 0, "event not in scoreboard")
	return nil
}

func (c *Client) scoreboard(ctx context.Context, limit string) (*scoreboard, error) {
	endpoint := c.baseURL + "/scoreboard?" + url.Values{"limit": {limit}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var out scoreboard
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}
