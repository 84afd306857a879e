package api

import (
	"encoding/json"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/cliptape/pkg/kv"
	"github.com/papercomputeco/cliptape/pkg/sse"
)

// ChangeEventType is the SSE event type carrying a kv.Change.
const ChangeEventType = "change"

const changeFeedBuffer = 64

// handleEvents streams store changes as server-sent events until the client
// goes away or the server shuts down.
func (s *Server) handleEvents(c *fiber.Ctx) error {
	sub := s.changes.Subscribe(changeFeedBuffer)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// fasthttp flushes to the socket after every chunk read from the pipe.
	pr, pw := io.Pipe()
	go s.streamChanges(sub, pw)

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

func (s *Server) streamChanges(sub *kv.Subscription, pw *io.PipeWriter) {
	defer sub.Close()
	defer pw.Close()

	s.logger.Debug("change feed opened")
	defer s.logger.Debug("change feed closed")

	if err := sse.Comment(pw, "connected"); err != nil {
		return
	}

	heartbeat := time.NewTicker(s.config.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-s.done:
			return

		case <-heartbeat.C:
			if err := sse.Comment(pw, "heartbeat"); err != nil {
				return
			}

		case change, ok := <-sub.C:
			if !ok {
				return
			}

			data, err := json.Marshal(change)
			if err != nil {
				s.logger.Error("failed to encode change", "key", change.Key, "error", err)
				continue
			}

			if err := sse.Write(pw, sse.Event{Type: ChangeEventType, Data: string(data)}); err != nil {
				return
			}
		}
	}
}
