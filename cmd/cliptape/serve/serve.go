// Package servecmder provides the serve command, which runs the cliptape
// daemon: the history store, the API server and the clipboard watcher.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cliptape/api"
	"github.com/papercomputeco/cliptape/api/mcp"
	"github.com/papercomputeco/cliptape/cmd/cliptape/cmdutil"
	"github.com/papercomputeco/cliptape/pkg/capture"
	"github.com/papercomputeco/cliptape/pkg/config"
	"github.com/papercomputeco/cliptape/pkg/coordinator"
	"github.com/papercomputeco/cliptape/pkg/dotdir"
	"github.com/papercomputeco/cliptape/pkg/eventstream"
	"github.com/papercomputeco/cliptape/pkg/history"
	"github.com/papercomputeco/cliptape/pkg/logger"
)

type ServeCommander struct {
	listen       string
	driver       string
	sqlitePath   string
	postgresDSN  string
	storeFile    string
	capture      bool
	pollInterval string
	sourceURL    string
	sourceTitle  string
	eventStream  string
	kafkaBrokers []string
	kafkaTopic   string

	noLogFile bool

	cfg       *config.Config
	configDir string
	debug     bool
	logger    *slog.Logger
}

const serveLongDesc string = `Run the cliptape daemon.

The daemon owns the clipboard history. It serves the HTTP API used by every
other cliptape command (and MCP clients at /mcp), watches the system clipboard
for new copies and publishes store changes to the configured event stream.

Storage drivers:
  sqlite      .cliptape/cliptape.db (default)
  in-memory   lost when the daemon stops
  postgres    --postgres <dsn>
  file        .cliptape/store.json, edits by other processes are picked up

Logs go to the terminal and, as JSON, to .cliptape/cliptape.log.

Examples:
  cliptape serve
  cliptape serve --storage in-memory --capture=false
  cliptape serve --event-stream kafka --kafka-brokers localhost:9092`

const serveShortDesc string = "Run the cliptape daemon"

var serveFlags = []string{
	config.FlagListen,
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagStoreFile,
	config.FlagCapture,
	config.FlagPollInterval,
	config.FlagSourceURL,
	config.FlagSourceTitle,
	config.FlagEventStream,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = cmdutil.LoadConfig(cmd, serveFlags...)
			if err != nil {
				return err
			}

			if !config.IsValidStorageDriver(cmder.cfg.Storage.Driver) {
				return fmt.Errorf("unknown storage driver %q (available: %v)", cmder.cfg.Storage.Driver, config.StorageDrivers())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir = cmdutil.ConfigDir(cmd)
			cmder.debug = cmdutil.Debug(cmd)
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageDriver, &cmder.driver)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagStoreFile, &cmder.storeFile)
	config.AddBoolFlag(cmd, config.Flags, config.FlagCapture, &cmder.capture)
	config.AddStringFlag(cmd, config.Flags, config.FlagPollInterval, &cmder.pollInterval)
	config.AddStringFlag(cmd, config.Flags, config.FlagSourceURL, &cmder.sourceURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagSourceTitle, &cmder.sourceTitle)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventStream, &cmder.eventStream)
	config.AddStringSliceFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &cmder.kafkaTopic)
	cmd.Flags().BoolVar(&cmder.noLogFile, "no-log-file", false, "Do not write JSON logs to .cliptape/cliptape.log")

	return cmd
}

func (c *ServeCommander) run(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	closeLog, err := c.setupLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := openStore(ctx, c.cfg.Storage, c.configDir, logger.Component(c.logger, "store"))
	if err != nil {
		return err
	}
	defer store.Close()

	hist := history.New(store, history.WithLogger(logger.Component(c.logger, "history")))
	if err := hist.Init(ctx); err != nil {
		return fmt.Errorf("initializing history: %w", err)
	}

	dispatcher := coordinator.NewDispatcher(hist, coordinator.WithLogger(logger.Component(c.logger, "coordinator")))

	// Create MCP server
	mcpServer, err := mcp.NewServer(mcp.Config{
		Dispatcher: dispatcher,
		Logger:     logger.Component(c.logger, "mcp"),
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	// Create API server
	apiServer, err := api.NewServer(api.Config{
		ListenAddr: c.cfg.API.Listen,
		MCPHandler: mcpServer.Handler(),
	}, dispatcher, store, logger.Component(c.logger, "api"))
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	// Forward store changes to the event stream
	publisher, err := newPublisher(c.cfg.EventStream, logger.Component(c.logger, "eventstream"))
	if err != nil {
		return err
	}
	defer publisher.Close()

	relay := eventstream.NewRelay(publisher, eventSource(c.cfg.Storage.Driver), logger.Component(c.logger, "eventstream"))
	sub := store.Subscribe(changeBuffer)
	defer sub.Close()
	go relay.Run(ctx, sub)

	// Channel to capture errors from goroutines
	errChan := make(chan error, 2)

	if c.cfg.Capture.Enabled {
		captureLogger := logger.Component(c.logger, "capture")
		queue, err := capture.NewQueue(&capture.QueueConfig{
			Sender: dispatcher,
			Logger: captureLogger,
		})
		if err != nil {
			return fmt.Errorf("creating capture queue: %w", err)
		}
		defer queue.Close()

		watcher := capture.NewWatcher(capture.NewAgent(queue, captureLogger), capture.WatcherConfig{
			Interval:    c.cfg.CapturePollInterval(),
			SourceURL:   c.cfg.Capture.SourceURL,
			SourceTitle: c.cfg.Capture.SourceTitle,
			Logger:      captureLogger,
		})

		c.logger.Info("watching clipboard",
			"interval", c.cfg.CapturePollInterval().String(),
		)

		go func() {
			err := watcher.Run(ctx)
			if errors.Is(err, capture.ErrClipboardUnsupported) {
				c.logger.Warn("clipboard capture disabled", "error", err)
				return
			}
			if err != nil {
				errChan <- fmt.Errorf("clipboard watcher error: %w", err)
			}
		}()
	}

	// Start API server in goroutine
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	cancel()
	if err := apiServer.Shutdown(); err != nil {
		c.logger.Warn("API server shutdown", "error", err)
	}
	return nil
}

// setupLogger logs to the terminal and, unless disabled, as JSON to the
// daemon log file.
func (c *ServeCommander) setupLogger() (func(), error) {
	terminal := logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(cmdutil.IsTerminal(os.Stderr)),
		logger.WithWriter(os.Stderr),
	)

	if c.noLogFile {
		c.logger = terminal
		return func() {}, nil
	}

	path, err := dotdir.NewManager().Path(c.configDir, dotdir.LogFile)
	if err != nil {
		return nil, fmt.Errorf("resolving log file: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	c.logger = logger.Multi(terminal, logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(true),
		logger.WithWriter(f),
	))

	return func() { _ = f.Close() }, nil
}

func eventSource(driver string) eventstream.EventSource {
	host, _ := os.Hostname()
	return eventstream.EventSource{Host: host, Driver: driver}
}
