// Package deletecmder provides the delete command, which removes one entry
// from the clipboard history.
package deletecmder

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cliptape/cmd/cliptape/cmdutil"
	"github.com/papercomputeco/cliptape/pkg/cliui"
)

type deleteCommander struct {
	client cmdutil.ClientFlags
}

const deleteLongDesc string = `Remove the entry at a position in the clipboard history.

Positions are the ones shown by "cliptape list", starting at 0 for the newest
entry. A position outside the history changes nothing.

Examples:
  cliptape delete 0
  cliptape delete 12`

const deleteShortDesc string = "Remove one history entry"

func NewDeleteCmd() *cobra.Command {
	cmder := &deleteCommander{}

	cmd := &cobra.Command{
		Use:     "delete <index>",
		Aliases: []string{"rm"},
		Short:   deleteShortDesc,
		Long:    deleteLongDesc,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("index must be an integer, got %q", args[0])
			}
			return cmder.run(cmd, index)
		},
	}

	cmder.client.Register(cmd)

	return cmd
}

func (c *deleteCommander) run(cmd *cobra.Command, index int) error {
	cl, err := cmdutil.NewClient(cmd)
	if err != nil {
		return err
	}

	if err := cl.DeleteAt(cmd.Context(), index); err != nil {
		return fmt.Errorf("deleting entry %d: %w", index, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "  %s Deleted entry %d\n", cliui.SuccessMark, index)
	return nil
}
