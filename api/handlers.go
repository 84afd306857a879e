package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/cliptape/pkg/clip"
	"github.com/papercomputeco/cliptape/pkg/coordinator"
)

// SettingsRequest is the body of PUT /v1/settings. MaxItems is loosely
// typed; it is clamped the same way as over the message channel.
type SettingsRequest struct {
	MaxItems json.RawMessage `json:"maxItems"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleMessage answers one wire message. The envelope always travels with
// HTTP 200; failures are reported inside it.
func (s *Server) handleMessage(c *fiber.Ctx) error {
	resp := s.dispatcher.Handle(c.Context(), c.Body())
	if !resp.OK {
		s.logger.Debug("message rejected", "error", resp.Error)
	}
	return c.JSON(resp)
}

// handleCapture records a capture posted as a bare payload.
func (s *Server) handleCapture(c *fiber.Ctx) error {
	var payload coordinator.CapturePayload
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return badRequest(c, "invalid capture body")
	}

	return s.reply(c, coordinator.Capture{
		Text:  payload.Text,
		URL:   payload.URL,
		Title: payload.Title,
		TS:    payload.TS,
	})
}

// handleListHistory returns the history, filtered by the q query parameter.
func (s *Server) handleListHistory(c *fiber.Ctx) error {
	resp := s.dispatcher.Dispatch(c.Context(), coordinator.ListHistory{})
	if !resp.OK {
		return c.Status(fiber.StatusInternalServerError).JSON(resp)
	}

	if q := c.Query("q"); q != "" {
		resp = coordinator.HistoryResponse(clip.Filter(resp.History, q))
	}
	return c.JSON(resp)
}

func (s *Server) handleClearHistory(c *fiber.Ctx) error {
	return s.reply(c, coordinator.ClearHistory{})
}

// handleDeleteAt removes the entry at the :index path parameter. Indexes
// outside the history are ignored.
func (s *Server) handleDeleteAt(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return badRequest(c, "index must be an integer")
	}

	return s.reply(c, coordinator.DeleteAt{Index: index})
}

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	return s.reply(c, coordinator.GetSettings{})
}

func (s *Server) handleSetSettings(c *fiber.Ctx) error {
	var body SettingsRequest
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return badRequest(c, "invalid settings body")
	}

	var maxItems any
	if body.MaxItems != nil {
		maxItems = body.MaxItems
	}
	return s.reply(c, coordinator.SetMaxItems{MaxItems: maxItems})
}

// reply dispatches req and maps a failed envelope onto HTTP 500.
func (s *Server) reply(c *fiber.Ctx, req coordinator.Request) error {
	resp := s.dispatcher.Dispatch(c.Context(), req)
	if !resp.OK {
		s.logger.Error("request failed",
			"type", req.Kind(),
			"error", resp.Error,
		)
		return c.Status(fiber.StatusInternalServerError).JSON(resp)
	}

	return c.JSON(resp)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(coordinator.ErrorResponse(msg))
}
