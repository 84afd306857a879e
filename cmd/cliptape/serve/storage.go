package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/cliptape/pkg/config"
	"github.com/papercomputeco/cliptape/pkg/dotdir"
	"github.com/papercomputeco/cliptape/pkg/eventstream"
	"github.com/papercomputeco/cliptape/pkg/eventstream/kafka"
	"github.com/papercomputeco/cliptape/pkg/eventstream/nop"
	"github.com/papercomputeco/cliptape/pkg/kv"
	"github.com/papercomputeco/cliptape/pkg/kv/file"
	"github.com/papercomputeco/cliptape/pkg/kv/inmemory"
	"github.com/papercomputeco/cliptape/pkg/kv/postgres"
	"github.com/papercomputeco/cliptape/pkg/kv/sqlite"
)

const changeBuffer = 256

// openStore creates the kv.Store selected by cfg. Relative defaults for the
// sqlite and file drivers live in the resolved .cliptape/ directory.
func openStore(ctx context.Context, cfg config.StorageConfig, configDir string, logger *slog.Logger) (kv.Store, error) {
	switch cfg.Driver {
	case config.StorageInMemory:
		logger.Info("using in-memory storage")
		return inmemory.NewDriver(), nil

	case config.StoragePostgres:
		if cfg.PostgresDSN == "" {
			return nil, errors.New("postgres storage requires storage.postgres_dsn")
		}
		store, err := postgres.NewDriver(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL store: %w", err)
		}
		logger.Info("using PostgreSQL storage")
		return store, nil

	case config.StorageFile:
		path, err := dotdir.NewManager().DataFile(configDir, cfg.FilePath, dotdir.StoreFile)
		if err != nil {
			return nil, err
		}
		store, err := file.NewDriver(path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create file store: %w", err)
		}
		logger.Info("using file storage", "path", store.Path())
		return store, nil

	case config.StorageSQLite, "":
		path, err := dotdir.NewManager().DataFile(configDir, cfg.SQLitePath, dotdir.SQLiteFile)
		if err != nil {
			return nil, err
		}
		store, err := sqlite.NewDriver(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite store: %w", err)
		}
		logger.Info("using SQLite storage", "path", path)
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// newPublisher creates the change event publisher selected by cfg.
func newPublisher(cfg config.EventStreamConfig, logger *slog.Logger) (eventstream.Publisher, error) {
	switch cfg.Provider {
	case config.EventStreamNop, "":
		return nop.NewPublisher(), nil

	case config.EventStreamKafka:
		publisher, err := kafka.NewPublisher(kafka.Config{
			Brokers: cfg.Brokers,
			Topic:   cfg.Topic,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		logger.Info("publishing change events to kafka",
			"brokers", cfg.Brokers,
			"topic", publisher.Topic(),
		)
		return publisher, nil

	default:
		return nil, fmt.Errorf("%w: %q", eventstream.ErrUnknownProvider, cfg.Provider)
	}
}
