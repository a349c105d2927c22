package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/and161185/cardvault/internal/convert"
)

// Event is one server-sent event.
type Event struct {
	Name string
	Data string
}

// Watch streams the live dashboard for query and calls fn with every
// snapshot until ctx ends or the stream breaks. Keep-alive events are skipped.
func (c *Client) Watch(ctx context.Context, query string, fn func([]convert.CardDTO)) error {
	path := "/api/cards/watch"
	if query != "" {
		path += "?q=" + url.QueryEscape(query)
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	err = readEvents(bufio.NewReader(resp.Body), func(ev Event) error {
		if ev.Name != "cards" {
			return nil
		}
		var cards []convert.CardDTO
		if err := json.Unmarshal([]byte(ev.Data), &cards); err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}
		fn(cards)
		return nil
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// readEvents parses a text/event-stream body. Multi-line data fields are
// joined with newlines.
func readEvents(r *bufio.Reader, fn func(Event) error) error {
	var (
		ev   Event
		data []string
	)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if ev.Name != "" || len(data) > 0 {
				ev.Data = strings.Join(data, "\n")
				if err := fn(ev); err != nil {
					return err
				}
			}
			ev, data = Event{}, nil
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			ev.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
}
