// Package cliptapecmder
package cliptapecmder

import (
	"github.com/spf13/cobra"

	capturecmder "github.com/papercomputeco/cliptape/cmd/cliptape/capture"
	clearcmder "github.com/papercomputeco/cliptape/cmd/cliptape/clear"
	configcmder "github.com/papercomputeco/cliptape/cmd/cliptape/config"
	deletecmder "github.com/papercomputeco/cliptape/cmd/cliptape/delete"
	initcmder "github.com/papercomputeco/cliptape/cmd/cliptape/init"
	listcmder "github.com/papercomputeco/cliptape/cmd/cliptape/list"
	servecmder "github.com/papercomputeco/cliptape/cmd/cliptape/serve"
	settingscmder "github.com/papercomputeco/cliptape/cmd/cliptape/settings"
	uicmder "github.com/papercomputeco/cliptape/cmd/cliptape/ui"
	versioncmder "github.com/papercomputeco/cliptape/cmd/version"
)

const cliptapeLongDesc string = `cliptape keeps a searchable history of everything you copy.

Run the daemon, then browse or manage the history:
  cliptape serve        Run the daemon (API server and clipboard watcher)
  cliptape ui           Browse, search and re-copy history in the terminal
  cliptape list         Print the history
  cliptape capture      Record text from arguments or stdin`

const cliptapeShortDesc string = "cliptape - clipboard history"

func NewCliptapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "cliptape",
		Short:        cliptapeShortDesc,
		Long:         cliptapeLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .cliptape/ directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(capturecmder.NewCaptureCmd())
	cmd.AddCommand(listcmder.NewListCmd())
	cmd.AddCommand(clearcmder.NewClearCmd())
	cmd.AddCommand(deletecmder.NewDeleteCmd())
	cmd.AddCommand(settingscmder.NewSettingsCmd())
	cmd.AddCommand(uicmder.NewUICmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
