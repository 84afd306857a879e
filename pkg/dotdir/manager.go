// Package dotdir locates the cliptape directory and the files kept in it:
// config.toml, the sqlite database, the JSON store of the file driver and
// the daemon log.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	dirName = ".cliptape"

	// HomeEnv names a directory used instead of ./.cliptape and ~/.cliptape.
	HomeEnv = "CLIPTAPE_HOME"
)

// Well-known files inside the cliptape directory.
const (
	ConfigFile = "config.toml"
	SQLiteFile = "cliptape.db"
	StoreFile  = "store.json"
	LogFile    = "cliptape.log"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path of the cliptape directory, creating it
// when missing. Order of precedence:
//  1. overrideDir (the --config-dir flag)
//  2. $CLIPTAPE_HOME
//  3. ./.cliptape/ when it exists
//  4. ~/.cliptape/
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, err := m.locate(overrideDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating cliptape directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

func (m *Manager) locate(overrideDir string) (string, error) {
	if overrideDir != "" {
		return expandHome(overrideDir)
	}
	if env := os.Getenv(HomeEnv); env != "" {
		return expandHome(env)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	local := filepath.Join(cwd, dirName)
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return local, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Path returns the absolute path of name inside the cliptape directory.
func (m *Manager) Path(overrideDir, name string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, name), nil
}

// DataFile resolves a data file location: configured when set, with a
// leading ~ expanded, otherwise name inside the cliptape directory.
func (m *Manager) DataFile(overrideDir, configured, name string) (string, error) {
	if configured == "" {
		return m.Path(overrideDir, name)
	}

	path, err := expandHome(configured)
	if err != nil {
		return "", err
	}
	return filepath.Abs(path)
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
