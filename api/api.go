package api

import (
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/cliptape/pkg/coordinator"
	"github.com/papercomputeco/cliptape/pkg/kv"
)

// Subscriber is the source of the change feed. Every kv.Store implements it.
type Subscriber interface {
	Subscribe(buffer int) *kv.Subscription
}

// Server is the API server for the cliptape daemon
type Server struct {
	config     Config
	dispatcher *coordinator.Dispatcher
	changes    Subscriber
	logger     *slog.Logger
	app        *fiber.App

	done     chan struct{}
	doneOnce sync.Once
}

// NewServer creates a new API server.
// The dispatcher is shared with the capture agent running in the same
// process; changes feeds GET /v1/events.
func NewServer(config Config, dispatcher *coordinator.Dispatcher, changes Subscriber, logger *slog.Logger) (*Server, error) {
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if changes == nil {
		return nil, errors.New("change subscriber is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = defaultHeartbeatInterval
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:     config,
		dispatcher: dispatcher,
		changes:    changes,
		logger:     logger,
		app:        app,
		done:       make(chan struct{}),
	}

	app.Get("/ping", s.handlePing)
	app.Post("/v1/messages", s.handleMessage)
	app.Post("/v1/captures", s.handleCapture)
	app.Get("/v1/history", s.handleListHistory)
	app.Delete("/v1/history", s.handleClearHistory)
	app.Delete("/v1/history/:index", s.handleDeleteAt)
	app.Get("/v1/settings", s.handleGetSettings)
	app.Put("/v1/settings", s.handleSetSettings)
	app.Get("/v1/events", s.handleEvents)

	if config.MCPHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCPHandler))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Serve starts the API server on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting API server",
		"listen", ln.Addr().String(),
	)
	return s.app.Listener(ln)
}

// Shutdown ends open change feeds and gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	s.doneOnce.Do(func() { close(s.done) })
	return s.app.Shutdown()
}
