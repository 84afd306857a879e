// Package clearcmder provides the clear command, which empties the
// clipboard history.
package clearcmder

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/cliptape/cmd/cliptape/cmdutil"
	"github.com/papercomputeco/cliptape/pkg/cliui"
)

type clearCommander struct {
	client cmdutil.ClientFlags
	yes    bool
}

const clearLongDesc string = `Remove every entry from the clipboard history.

Settings are kept. When run in a terminal the command asks for confirmation
unless --yes is given.

Examples:
  cliptape clear
  cliptape clear --yes`

const clearShortDesc string = "Empty the clipboard history"

func NewClearCmd() *cobra.Command {
	cmder := &clearCommander{}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: clearShortDesc,
		Long:  clearLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmder.client.Register(cmd)
	cmd.Flags().BoolVarP(&cmder.yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func (c *clearCommander) run(cmd *cobra.Command) error {
	if !c.yes && cmdutil.IsTerminal(cmd.InOrStdin()) {
		pterm.DefaultInteractiveConfirm.DefaultText = "Clear the entire clipboard history?"
		ok, err := pterm.DefaultInteractiveConfirm.Show()
		if err != nil {
			return fmt.Errorf("reading confirmation: %w", err)
		}
		if !ok {
			pterm.Info.Println("Clear cancelled")
			return nil
		}
	}

	cl, err := cmdutil.NewClient(cmd)
	if err != nil {
		return err
	}

	err = cliui.Step(cmd.OutOrStdout(), "Clearing history", func() error {
		return cl.Clear(cmd.Context())
	})
	if err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}
