// Package uicmder provides the ui command, an interactive terminal view of
// the clipboard history that follows the daemon's change feed.
package uicmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/atotto/clipboard"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/cliptape/cmd/cliptape/cmdutil"
	"github.com/papercomputeco/cliptape/pkg/client"
	"github.com/papercomputeco/cliptape/pkg/kv"
)

type uiCommander struct {
	client  cmdutil.ClientFlags
	feedLog string
}

const uiLongDesc string = `Browse the clipboard history interactively.

The view follows the daemon's change feed, so entries captured elsewhere
appear as soon as they are recorded. Press / to search, enter to copy the
selected entry back to the clipboard, d to delete it, C to clear the
history and m to cycle the retention limit.

Use --feed-log to append the raw server-sent event stream to a file while
the view is open.

Examples:
  cliptape ui
  cliptape ui --feed-log /tmp/cliptape-feed.log`

const uiShortDesc string = "Browse the clipboard history"

func NewUICmd() *cobra.Command {
	cmder := &uiCommander{}

	cmd := &cobra.Command{
		Use:   "ui",
		Short: uiShortDesc,
		Long:  uiLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmder.client.Register(cmd)
	cmd.Flags().StringVar(&cmder.feedLog, "feed-log", "", "Append the raw change feed to this file")

	return cmd
}

// programRef lets client callbacks registered before the program exists
// deliver messages to it.
type programRef struct {
	mu      sync.Mutex
	program *bubbletea.Program
}

func (r *programRef) set(p *bubbletea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.program = p
}

func (r *programRef) send(msg bubbletea.Msg) {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func (c *uiCommander) run(cmd *cobra.Command) error {
	ref := &programRef{}
	opts := []client.Option{
		client.WithConnected(func() { ref.send(connectedMsg{}) }),
	}
	if c.feedLog != "" {
		f, err := os.OpenFile(c.feedLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("opening feed log: %w", err)
		}
		defer f.Close()
		opts = append(opts, client.WithRawFeed(f))
	}

	cl, err := cmdutil.NewClient(cmd, opts...)
	if err != nil {
		return err
	}

	// Fail fast with the usual daemon error instead of an empty screen.
	if err := cl.Ping(cmd.Context()); err != nil {
		return err
	}

	return runUI(cmd.Context(), cl, ref, cmd.InOrStdin(), cmd.OutOrStdout())
}

func runUI(ctx context.Context, cl *client.Client, ref *programRef, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newUIModel(ctx, cl, clipboard.WriteAll)
	program := bubbletea.NewProgram(model,
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
		bubbletea.WithInput(in),
		bubbletea.WithOutput(out),
	)
	ref.set(program)

	go func() {
		err := cl.Subscribe(ctx, func(change kv.Change) {
			program.Send(changeMsg{change: change})
		})
		if ctx.Err() == nil {
			program.Send(feedClosedMsg{err: err})
		}
	}()

	_, err := program.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
