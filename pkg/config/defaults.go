package config

import "slices"

// Storage driver names.
const (
	StorageInMemory = "in-memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageFile     = "file"
)

// Event stream provider names.
const (
	EventStreamNop   = "nop"
	EventStreamKafka = "kafka"
)

const (
	defaultStorageDriver = StorageSQLite
	defaultAPIListen     = "localhost:8765"

	defaultClientAPITarget = "http://localhost:8765"
	defaultClientTimeout   = "2s"

	defaultPollInterval = "500ms"
	defaultSourceURL    = "clipboard://system"
	defaultSourceTitle  = "System clipboard"

	defaultEventStreamProvider = EventStreamNop
	defaultEventStreamTopic    = "cliptape.changes"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
			Timeout:   defaultClientTimeout,
		},
		Capture: CaptureConfig{
			Enabled:      true,
			PollInterval: defaultPollInterval,
			SourceURL:    defaultSourceURL,
			SourceTitle:  defaultSourceTitle,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
	}
}

// StorageDrivers returns the supported storage driver names.
func StorageDrivers() []string {
	return []string{StorageSQLite, StorageInMemory, StoragePostgres, StorageFile}
}

// IsValidStorageDriver reports whether name is a supported storage driver.
func IsValidStorageDriver(name string) bool {
	return slices.Contains(StorageDrivers(), name)
}
