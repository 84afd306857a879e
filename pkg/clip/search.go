package clip

import (
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Filter returns the items whose text, title or url contains query,
// case-insensitively. A blank query returns items unchanged.
func Filter(items []Item, query string) []Item {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}

	return lo.Filter(items, func(item Item, _ int) bool {
		return strings.Contains(strings.ToLower(item.Text), q) ||
			strings.Contains(strings.ToLower(item.Title), q) ||
			strings.Contains(strings.ToLower(item.URL), q)
	})
}

// IndexOf returns the absolute position of the item identified by (text, ts),
// or -1 when no such item exists.
func IndexOf(items []Item, text string, ts int64) int {
	_, index, ok := lo.FindIndexOf(items, func(item Item) bool {
		return item.TS == ts && item.Text == text
	})
	if !ok {
		return -1
	}

	return index
}

// Host returns the host portion of the item's url, or "" if it has none.
func (i Item) Host() string {
	if i.URL == "" {
		return ""
	}

	u, err := url.Parse(i.URL)
	if err != nil {
		return ""
	}

	return u.Host
}

// Time returns the capture time in the local time zone.
func (i Item) Time() time.Time {
	return time.UnixMilli(i.TS).Local()
}

// Meta renders the one-line description shown under an item:
// "<time> • <host> • <title>", omitting the parts that are empty.
func Meta(item Item) string {
	t := time.Now()
	if item.TS != 0 {
		t = item.Time()
	}

	parts := []string{t.Format("2006-01-02 15:04:05")}
	if host := item.Host(); host != "" {
		parts = append(parts, host)
	}
	if item.Title != "" {
		parts = append(parts, item.Title)
	}

	return strings.Join(parts, " • ")
}
