package sse

import (
	"fmt"
	"io"
	"strings"
)

// Write encodes ev onto w, terminated by a blank line. Multi-line data is
// split across several "data:" fields so it survives the round trip.
func Write(w io.Writer, ev Event) error {
	var b strings.Builder

	if ev.ID != "" {
		fmt.Fprintf(&b, "id: %s\n", ev.ID)
	}
	if ev.Type != "" {
		fmt.Fprintf(&b, "event: %s\n", ev.Type)
	}
	for line := range strings.SplitSeq(ev.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// Comment writes a comment line. Readers skip it; it keeps idle
// connections from timing out.
func Comment(w io.Writer, text string) error {
	_, err := fmt.Fprintf(w, ": %s\n\n", text)
	return err
}
