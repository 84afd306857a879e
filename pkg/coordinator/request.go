// Package coordinator routes requests from capture agents and user
// interfaces to the history store and wraps every outcome in a uniform
// response envelope.
package coordinator

// Kind is the wire tag of a request.
type Kind string

const (
	KindCapture      Kind = "CLIPBOARD_CAPTURED"
	KindListHistory  Kind = "GET_HISTORY"
	KindClearHistory Kind = "CLEAR_HISTORY"
	KindDeleteAt     Kind = "DELETE_ITEM_BY_INDEX"
	KindSetMaxItems  Kind = "SET_MAX_ITEMS"
	KindGetSettings  Kind = "GET_SETTINGS"
)

// Request is one of the six request variants. The interface is sealed: only
// the types in this package implement it.
type Request interface {
	Kind() Kind
	sealed()
}

// Capture records copied text.
type Capture struct {
	Text  string
	URL   string
	Title string

	// TS is the capture time in epoch milliseconds. Nil means "now".
	TS *int64
}

// ListHistory returns the whole history.
type ListHistory struct{}

// ClearHistory empties the history.
type ClearHistory struct{}

// DeleteAt removes the item at Index; out of range indexes are ignored.
type DeleteAt struct {
	Index int
}

// SetMaxItems changes the retention limit. MaxItems is clamped, so any
// value is accepted.
type SetMaxItems struct {
	MaxItems any
}

// GetSettings returns the current settings.
type GetSettings struct{}

func (Capture) Kind() Kind      { return KindCapture }
func (ListHistory) Kind() Kind  { return KindListHistory }
func (ClearHistory) Kind() Kind { return KindClearHistory }
func (DeleteAt) Kind() Kind     { return KindDeleteAt }
func (SetMaxItems) Kind() Kind  { return KindSetMaxItems }
func (GetSettings) Kind() Kind  { return KindGetSettings }

func (Capture) sealed()      {}
func (ListHistory) sealed()  {}
func (ClearHistory) sealed() {}
func (DeleteAt) sealed()     {}
func (SetMaxItems) sealed()  {}
func (GetSettings) sealed()  {}
