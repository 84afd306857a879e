// Package listcmder provides the list command, which prints the clipboard
// history.
package listcmder

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/cliptape/cmd/cliptape/cmdutil"
	"github.com/papercomputeco/cliptape/pkg/cliui"
	"github.com/papercomputeco/cliptape/pkg/clip"
)

const previewWidth = 60

type listCommander struct {
	client cmdutil.ClientFlags

	query    string
	limit    int
	jsonOut  bool
	fullText bool
}

// Entry is one history item with its absolute position, as printed by
// --json. The index is the one "cliptape delete" expects.
type Entry struct {
	Index int `json:"index"`
	clip.Item
}

const listLongDesc string = `Print the clipboard history, newest first.

The first column is the entry's position in the full history; pass it to
"cliptape delete" to remove the entry. --query keeps only entries whose text,
title or url contains the query, ignoring case.

Examples:
  cliptape list
  cliptape list --query github
  cliptape list --json --limit 5`

const listShortDesc string = "Print the clipboard history"

func NewListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   listShortDesc,
		Long:    listLongDesc,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmder.client.Register(cmd)
	cmd.Flags().StringVarP(&cmder.query, "query", "q", "", "Only show entries containing this text")
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 0, "Show at most this many entries")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print entries as JSON")
	cmd.Flags().BoolVar(&cmder.fullText, "full", false, "Do not truncate entry text")

	return cmd
}

func (c *listCommander) run(cmd *cobra.Command) error {
	cl, err := cmdutil.NewClient(cmd)
	if err != nil {
		return err
	}

	items, err := cl.History(cmd.Context(), "")
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}

	entries := Select(items, c.query, c.limit)

	out := cmd.OutOrStdout()
	if c.jsonOut {
		return writeJSON(out, entries)
	}
	return c.writeTable(out, entries, len(items))
}

// Select filters items by query and limit, keeping each entry's position in
// the unfiltered history.
func Select(items []clip.Item, query string, limit int) []Entry {
	entries := lo.FilterMap(items, func(item clip.Item, i int) (Entry, bool) {
		return Entry{Index: i, Item: item}, len(clip.Filter([]clip.Item{item}, query)) == 1
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func writeJSON(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func (c *listCommander) writeTable(w io.Writer, entries []Entry, total int) error {
	if len(entries) == 0 {
		if total == 0 {
			fmt.Fprintln(w, "No clipboard history yet.")
		} else {
			fmt.Fprintln(w, "No entries match.")
		}
		return nil
	}

	width := previewWidth
	if c.fullText {
		width = 0
	}

	rows := pterm.TableData{{"#", "Text", "Source", "Copied"}}
	for _, e := range entries {
		source := e.Host()
		if source == "" {
			source = e.Title
		}
		rows = append(rows, []string{
			strconv.Itoa(e.Index),
			cliui.Preview(e.Text, width),
			cliui.HostStyle.Render(source),
			since(e.Time()),
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}

	fmt.Fprintln(w, table)
	fmt.Fprintf(w, "\n%s\n", cliui.DimStyle.Render(fmt.Sprintf("%d of %d entries", len(entries), total)))
	return nil
}

// since renders how long ago t was, coarsely.
func since(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("2006-01-02")
	}
}
