// Package settingscmder provides the settings command for reading and
// changing the history settings stored by the daemon.
package settingscmder

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cliptape/cmd/cliptape/cmdutil"
	"github.com/papercomputeco/cliptape/pkg/cliui"
	"github.com/papercomputeco/cliptape/pkg/clip"
)

const settingsLongDesc string = `Show or change the history settings.

The only setting is the retention limit, the number of entries kept. It is
clamped to 1..1000; a value that is not a number resets it to 100. Lowering
the limit drops the oldest entries immediately.

Examples:
  cliptape settings
  cliptape settings get
  cliptape settings set-max 250`

const settingsShortDesc string = "Show or change history settings"

func NewSettingsCmd() *cobra.Command {
	var flags cmdutil.ClientFlags

	cmd := &cobra.Command{
		Use:   "settings",
		Short: settingsShortDesc,
		Long:  settingsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGet(cmd)
		},
	}

	flags.Register(cmd)
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newSetMaxCmd())

	return cmd
}

func newGetCmd() *cobra.Command {
	var flags cmdutil.ClientFlags

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the history settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGet(cmd)
		},
	}

	flags.Register(cmd)
	return cmd
}

func newSetMaxCmd() *cobra.Command {
	var flags cmdutil.ClientFlags

	cmd := &cobra.Command{
		Use:   "set-max <n>",
		Short: "Set the retention limit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetMax(cmd, args[0])
		},
	}

	flags.Register(cmd)
	return cmd
}

func runGet(cmd *cobra.Command) error {
	cl, err := cmdutil.NewClient(cmd)
	if err != nil {
		return err
	}

	settings, err := cl.Settings(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	printSettings(cmd.OutOrStdout(), settings)
	return nil
}

// runSetMax sends the raw argument; the daemon clamps it.
func runSetMax(cmd *cobra.Command, value string) error {
	cl, err := cmdutil.NewClient(cmd)
	if err != nil {
		return err
	}

	settings, err := cl.SetMaxItems(cmd.Context(), value)
	if err != nil {
		return fmt.Errorf("updating settings: %w", err)
	}

	if strconv.Itoa(settings.MaxItems) != value {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n",
			cliui.DimStyle.Render(fmt.Sprintf("%q adjusted to %d", value, settings.MaxItems)),
		)
	}
	printSettings(cmd.OutOrStdout(), settings)
	return nil
}

func printSettings(w io.Writer, settings clip.Settings) {
	fmt.Fprintf(w, "  %s  %s\n",
		cliui.KeyStyle.Render("maxItems"),
		cliui.ValueStyle.Render(strconv.Itoa(settings.MaxItems)),
	)
}
