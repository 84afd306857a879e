package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/papercomputeco/cliptape/pkg/kv"
	"github.com/papercomputeco/cliptape/pkg/sse"
	"github.com/papercomputeco/cliptape/pkg/utils"
)

const (
	// ChangeEventType is the SSE event type of store changes.
	ChangeEventType = "change"

	// connectedComment is the first comment the daemon writes on a feed.
	connectedComment = "connected"
)

// Subscribe streams store changes from the daemon, calling onChange for
// each, until ctx is done or the daemon closes the stream. Connecting is
// bounded by the client timeout; the stream itself is not.
func (c *Client) Subscribe(ctx context.Context, onChange func(kv.Change)) error {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, c.target.JoinPath("/v1/events").String(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("User-Agent", utils.UserAgent())

	var timedOut atomic.Bool
	timer := time.AfterFunc(c.timeout, func() {
		timedOut.Store(true)
		cancel()
	})

	resp, err := c.http.Do(req)
	if !timer.Stop() && timedOut.Load() {
		if resp != nil {
			resp.Body.Close()
		}
		return fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w at %s: %w", ErrUnavailable, c.target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	reader := sse.NewReader(resp.Body,
		sse.WithTee(c.rawFeed),
		sse.WithComments(func(text string) {
			if text == connectedComment && c.onConnected != nil {
				c.onConnected()
			}
		}),
	)
	for {
		ev, err := reader.Next()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: reading change feed: %w", ErrUnavailable, err)
		}
		if ev == nil {
			return nil
		}
		if ev.Type != ChangeEventType {
			continue
		}

		var change kv.Change
		if err := json.Unmarshal([]byte(ev.Data), &change); err != nil {
			continue
		}
		onChange(change)
	}
}
