// Package capturecmder provides the capture command, which records text in
// the clipboard history from arguments or stdin.
package capturecmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cliptape/cmd/cliptape/cmdutil"
	"github.com/papercomputeco/cliptape/pkg/cliui"
	"github.com/papercomputeco/cliptape/pkg/clip"
	"github.com/papercomputeco/cliptape/pkg/coordinator"
	"github.com/papercomputeco/cliptape/pkg/utils"
)

const (
	defaultURL   = "cli://capture"
	defaultTitle = "cliptape capture"
)

type captureCommander struct {
	client cmdutil.ClientFlags

	url   string
	title string
	quiet bool
}

const captureLongDesc string = `Record text in the clipboard history.

The text is taken from the arguments, joined by spaces, or read from stdin
when no arguments are given. Leading and trailing whitespace is trimmed and
blank text is ignored. Recording text that is already in the history moves it
to the front.

Examples:
  cliptape capture "some text to keep"
  git rev-parse HEAD | cliptape capture --title "HEAD sha"
  cliptape capture --url https://example.com --title Example "copied text"`

const captureShortDesc string = "Record text in the history"

func NewCaptureCmd() *cobra.Command {
	cmder := &captureCommander{}

	cmd := &cobra.Command{
		Use:   "capture [text...]",
		Short: captureShortDesc,
		Long:  captureLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args)
		},
	}

	cmder.client.Register(cmd)
	cmd.Flags().StringVar(&cmder.url, "url", defaultURL, "Source URL recorded with the text")
	cmd.Flags().StringVar(&cmder.title, "title", defaultTitle, "Source title recorded with the text")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Print nothing on success")

	return cmd
}

func (c *captureCommander) run(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	text, err := readText(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	if clip.Blank(text) {
		if !c.quiet {
			fmt.Fprintf(out, "  %s\n", cliui.DimStyle.Render("Nothing to capture."))
		}
		return nil
	}

	cl, err := cmdutil.NewClient(cmd)
	if err != nil {
		return err
	}

	err = cl.Capture(cmd.Context(), coordinator.Capture{
		Text:  text,
		URL:   c.url,
		Title: c.title,
	})
	if err != nil {
		return fmt.Errorf("capturing text: %w", err)
	}

	if !c.quiet {
		fmt.Fprintf(out, "  %s Captured %s\n",
			cliui.SuccessMark,
			cliui.PreviewStyle.Render(utils.Truncate(cliui.Preview(text, 0), 60)),
		)
	}
	return nil
}

// readText joins args, or reads in when there are none.
func readText(in io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}
