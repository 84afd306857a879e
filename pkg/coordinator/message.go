package coordinator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrUnknownMessageType is returned by DecodeMessage for a missing or
// unrecognized type tag.
var ErrUnknownMessageType = errors.New(UnknownMessageType)

// Message is the JSON envelope exchanged over the message channel.
type Message struct {
	Type     Kind            `json:"type"`
	Payload  *CapturePayload `json:"payload,omitempty"`
	Index    *int            `json:"index,omitempty"`
	MaxItems any             `json:"maxItems,omitempty"`
}

// CapturePayload is the body of a CLIPBOARD_CAPTURED message.
type CapturePayload struct {
	Text  string `json:"text"`
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
	TS    *int64 `json:"ts,omitempty"`
}

type rawMessage struct {
	Type     json.RawMessage `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Index    json.RawMessage `json:"index"`
	MaxItems json.RawMessage `json:"maxItems"`
}

type rawPayload struct {
	Text  json.RawMessage `json:"text"`
	URL   json.RawMessage `json:"url"`
	Title json.RawMessage `json:"title"`
	TS    json.RawMessage `json:"ts"`
}

// DecodeMessage parses a wire message into its request variant.
// Loosely typed fields are coerced rather than rejected: non-string payload
// fields become "", a non-numeric ts is treated as absent and an unusable
// index becomes -1.
func DecodeMessage(raw []byte) (Request, error) {
	var msg rawMessage
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&msg); err != nil {
		return nil, fmt.Errorf("decoding message: %w", err)
	}

	var kind string
	if err := json.Unmarshal(msg.Type, &kind); err != nil || kind == "" {
		return nil, ErrUnknownMessageType
	}

	switch Kind(kind) {
	case KindCapture:
		return decodeCapture(msg.Payload), nil
	case KindListHistory:
		return ListHistory{}, nil
	case KindClearHistory:
		return ClearHistory{}, nil
	case KindDeleteAt:
		return DeleteAt{Index: decodeIndex(msg.Index)}, nil
	case KindSetMaxItems:
		return SetMaxItems{MaxItems: decodeAny(msg.MaxItems)}, nil
	case KindGetSettings:
		return GetSettings{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, kind)
	}
}

// EncodeMessage renders req as a wire message.
func EncodeMessage(req Request) ([]byte, error) {
	msg := Message{}

	switch r := req.(type) {
	case Capture:
		msg.Type = KindCapture
		msg.Payload = &CapturePayload{Text: r.Text, URL: r.URL, Title: r.Title, TS: r.TS}
	case DeleteAt:
		idx := r.Index
		msg.Type = KindDeleteAt
		msg.Index = &idx
	case SetMaxItems:
		msg.Type = KindSetMaxItems
		msg.MaxItems = r.MaxItems
		if msg.MaxItems == nil {
			msg.MaxItems = json.RawMessage("null")
		}
	case nil:
		return nil, ErrUnknownMessageType
	default:
		msg.Type = req.Kind()
	}

	return json.Marshal(msg)
}

func decodeErrorResponse(err error) Response {
	if errors.Is(err, ErrUnknownMessageType) {
		return ErrorResponse(UnknownMessageType)
	}

	return ErrorResponse(err.Error())
}

func decodeCapture(raw json.RawMessage) Capture {
	var p rawPayload
	if len(raw) > 0 {
		// A non-object payload leaves every field empty.
		_ = json.Unmarshal(raw, &p)
	}

	c := Capture{
		Text:  decodeString(p.Text),
		URL:   decodeString(p.URL),
		Title: decodeString(p.Title),
	}
	if ts, ok := decodeTimestamp(p.TS); ok {
		c.TS = &ts
	}

	return c
}

func decodeString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}

	return s
}

// decodeNumber accepts JSON numbers and numeric strings, truncated toward
// zero.
func decodeNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}

	var (
		f   float64
		err error
	)
	switch t := v.(type) {
	case json.Number:
		f, err = t.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return math.Trunc(f), true
}

// decodeTimestamp accepts only JSON numbers. Anything else, numeric strings
// included, leaves the timestamp unset.
func decodeTimestamp(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' {
		return 0, false
	}

	f, ok := decodeNumber(raw)
	return int64(f), ok
}

func decodeIndex(raw json.RawMessage) int {
	f, ok := decodeNumber(raw)
	if !ok || f < math.MinInt32 || f > math.MaxInt32 {
		return -1
	}

	return int(f)
}

// decodeAny keeps maxItems loosely typed so the history store can clamp it.
func decodeAny(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil
	}

	return v
}
