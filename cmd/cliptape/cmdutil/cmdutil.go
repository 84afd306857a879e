// Package cmdutil holds the config, logger and client plumbing shared by
// cliptape commands.
package cmdutil

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/cliptape/pkg/client"
	"github.com/papercomputeco/cliptape/pkg/config"
	"github.com/papercomputeco/cliptape/pkg/logger"
)

// ConfigDir returns the --config-dir flag, or "" when it is not set.
func ConfigDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("config-dir")
	return dir
}

// Debug returns the --debug flag.
func Debug(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	return debug
}

// IsTerminal reports whether stream, a command's input or output, is an
// interactive terminal.
func IsTerminal(stream any) bool {
	f, ok := stream.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// NewLogger builds the command logger writing to stderr, colorized when
// stderr is a terminal.
func NewLogger(cmd *cobra.Command) *slog.Logger {
	return logger.New(
		logger.WithDebug(Debug(cmd)),
		logger.WithPretty(IsTerminal(os.Stderr)),
		logger.WithWriter(os.Stderr),
	)
}

// LoadConfig resolves the configuration with the given registered flags
// bound on top of the environment and config.toml.
func LoadConfig(cmd *cobra.Command, flagKeys ...string) (*config.Config, error) {
	v, err := config.InitViper(ConfigDir(cmd))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	config.BindRegisteredFlags(v, cmd, config.Flags, flagKeys)
	return config.FromViper(v), nil
}

// ClientFlags are the flags of every command that talks to the daemon.
type ClientFlags struct {
	APITarget string
	Timeout   string
}

// Register adds --api-target and --timeout to cmd.
func (f *ClientFlags) Register(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &f.APITarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &f.Timeout)
}

// NewClient creates a client for the daemon the resolved configuration
// points at.
func NewClient(cmd *cobra.Command, opts ...client.Option) (*client.Client, error) {
	cfg, err := LoadConfig(cmd, config.FlagAPITarget, config.FlagTimeout)
	if err != nil {
		return nil, err
	}

	opts = append([]client.Option{client.WithTimeout(cfg.ClientTimeout())}, opts...)
	return client.New(cfg.Client.APITarget, opts...)
}
