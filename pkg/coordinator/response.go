package coordinator

import (
	"encoding/json"

	"github.com/papercomputeco/cliptape/pkg/clip"
)

// Response is the envelope returned for every request.
// History is only meaningful for ListHistory, Settings for SetMaxItems and
// GetSettings.
type Response struct {
	OK       bool
	Error    string
	History  []clip.Item
	Settings *clip.Settings

	hasHistory bool
}

type wireResponse struct {
	OK       bool           `json:"ok"`
	Error    string         `json:"error,omitempty"`
	History  *[]clip.Item   `json:"history,omitempty"`
	Settings *clip.Settings `json:"settings,omitempty"`
}

// OKResponse is a successful response without payload.
func OKResponse() Response {
	return Response{OK: true}
}

// HistoryResponse is a successful response carrying items. The history
// field is always encoded, as an empty array when there are no items.
func HistoryResponse(items []clip.Item) Response {
	if items == nil {
		items = []clip.Item{}
	}

	return Response{OK: true, History: items, hasHistory: true}
}

// SettingsResponse is a successful response carrying settings.
func SettingsResponse(settings clip.Settings) Response {
	return Response{OK: true, Settings: &settings}
}

// ErrorResponse is a failed response with a description.
func ErrorResponse(msg string) Response {
	return Response{OK: false, Error: msg}
}

// MarshalJSON encodes the envelope as {ok, error?, history?, settings?}.
func (r Response) MarshalJSON() ([]byte, error) {
	w := wireResponse{
		OK:       r.OK,
		Error:    r.Error,
		Settings: r.Settings,
	}
	if r.hasHistory || r.History != nil {
		history := r.History
		if history == nil {
			history = []clip.Item{}
		}
		w.History = &history
	}

	return json.Marshal(w)
}

// UnmarshalJSON decodes an envelope produced by MarshalJSON.
func (r *Response) UnmarshalJSON(data []byte) error {
	var w wireResponse
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*r = Response{
		OK:       w.OK,
		Error:    w.Error,
		Settings: w.Settings,
	}
	if w.History != nil {
		r.History = *w.History
		r.hasHistory = true
	}

	return nil
}
