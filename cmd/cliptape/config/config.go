// Package configcmder provides the config command for managing persistent
// cliptape configuration stored in the .cliptape/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cliptape/pkg/cliui"
	"github.com/papercomputeco/cliptape/pkg/config"
)

const configLongDesc string = `Manage persistent cliptape configuration.

Configuration is stored as config.toml in the .cliptape/ directory and
provides default values for command flags. CLI flags and CLIPTAPE_*
environment variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure, for example
storage.driver, api.listen, client.api_target or capture.poll_interval.
Run "cliptape config list" to see them all.

Examples:
  cliptape config set storage.driver file
  cliptape config set capture.poll_interval 1s
  cliptape config get client.api_target
  cliptape config list`

const configShortDesc string = "Manage persistent cliptape configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validateKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(w io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
