// Package initcmder provides the init command for initializing a local
// .cliptape directory in the current working directory.
package initcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cliptape/pkg/cliui"
	"github.com/papercomputeco/cliptape/pkg/config"
	"github.com/papercomputeco/cliptape/pkg/utils"
)

const (
	dirName    = ".cliptape"
	configName = "config.toml"

	remoteTimeout = 10 * time.Second
)

type initCommander struct {
	preset string
}

const initLongDesc string = `Initialize a new .cliptape/ directory in the current working directory.

Creates a local .cliptape/ directory that takes precedence over the default
~/.cliptape/ directory for storage, logs and configuration, and writes a
config.toml into it.

--preset picks the storage setup written to config.toml (sqlite, memory,
postgres or file) or fetches a config.toml from an http(s) URL. Without
--preset an existing config.toml is left untouched.

Examples:
  cliptape init
  cliptape init --preset file
  cliptape init --preset https://example.com/cliptape/config.toml`

const initShortDesc string = "Initialize a local .cliptape/ directory"

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "",
		fmt.Sprintf("Config preset (%s) or URL of a config.toml", strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func (c *initCommander) run(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .cliptape directory: %w", err)
	}

	path := filepath.Join(dir, configName)
	_, statErr := os.Stat(path)
	exists := statErr == nil
	if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("reading config: %w", statErr)
	}

	if exists && c.preset == "" {
		fmt.Fprintf(out, "Already initialized: %s\n", dir)
		return nil
	}

	data, err := c.configData(cmd.Context())
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(out, "  %s Initialized %s\n", cliui.SuccessMark, cliui.DimStyle.Render(dir))
	return nil
}

// configData renders the named preset, or fetches and validates a remote
// config.toml.
func (c *initCommander) configData(ctx context.Context) ([]byte, error) {
	if isURL(c.preset) {
		return fetchRemote(ctx, c.preset)
	}

	name := c.preset
	if name == "" {
		name = config.StorageSQLite
	}

	cfg, err := config.PresetConfig(name)
	if err != nil {
		return nil, err
	}

	return config.EncodeConfigTOML(cfg)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func fetchRemote(ctx context.Context, url string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	req.Header.Set("User-Agent", utils.UserAgent())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	if _, err := config.ParseConfigTOML(data); err != nil {
		return nil, err
	}

	return data, nil
}
