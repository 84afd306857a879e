package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/papercomputeco/cliptape/pkg/clip"
)

// UnknownMessageType is the error reported for unrecognized requests.
const UnknownMessageType = "Unknown message type"

// History is the set of history store operations the dispatcher drives.
// *history.Store implements it.
type History interface {
	RecordCapture(ctx context.Context, item clip.Item) error
	List(ctx context.Context) ([]clip.Item, error)
	Clear(ctx context.Context) error
	DeleteAt(ctx context.Context, index int) error
	Settings(ctx context.Context) (clip.Settings, error)
	SetMaxItems(ctx context.Context, requested any) (clip.Settings, error)
}

// Dispatcher is the stateless request router.
type Dispatcher struct {
	history History
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger for dispatch failures.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithClock overrides the clock used to timestamp captures without one.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// NewDispatcher creates a Dispatcher over h.
func NewDispatcher(h History, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		history: h,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Dispatch runs req against the history store. It never panics and never
// returns an error: failures are reported as {ok:false, error}.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatch panicked", "kind", kindOf(req), "panic", r)
			resp = ErrorResponse(fmt.Sprint(r))
		}
	}()

	resp, err := d.dispatch(ctx, req)
	if err != nil {
		d.logger.Error("dispatch failed", "kind", kindOf(req), "error", err)
		return ErrorResponse(err.Error())
	}

	return resp
}

// Handle decodes a wire message and dispatches it.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) Response {
	req, err := DecodeMessage(raw)
	if err != nil {
		d.logger.Debug("rejected message", "error", err)
		return decodeErrorResponse(err)
	}

	return d.Dispatch(ctx, req)
}

// Send dispatches req in process. It lets a Dispatcher stand in wherever a
// remote client is expected.
func (d *Dispatcher) Send(ctx context.Context, req Request) (Response, error) {
	return d.Dispatch(ctx, req), nil
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) (Response, error) {
	switch r := req.(type) {
	case Capture:
		return d.capture(ctx, r)
	case *Capture:
		return d.capture(ctx, *r)

	case ListHistory, *ListHistory:
		items, err := d.history.List(ctx)
		if err != nil {
			return Response{}, err
		}
		return HistoryResponse(items), nil

	case ClearHistory, *ClearHistory:
		if err := d.history.Clear(ctx); err != nil {
			return Response{}, err
		}
		return OKResponse(), nil

	case DeleteAt:
		return d.deleteAt(ctx, r)
	case *DeleteAt:
		return d.deleteAt(ctx, *r)

	case SetMaxItems:
		return d.setMaxItems(ctx, r)
	case *SetMaxItems:
		return d.setMaxItems(ctx, *r)

	case GetSettings, *GetSettings:
		settings, err := d.history.Settings(ctx)
		if err != nil {
			return Response{}, err
		}
		return SettingsResponse(settings), nil

	default:
		return ErrorResponse(UnknownMessageType), nil
	}
}

func (d *Dispatcher) capture(ctx context.Context, r Capture) (Response, error) {
	ts := d.now().UnixMilli()
	if r.TS != nil {
		ts = *r.TS
	}

	item := clip.Item{
		Text:  strings.TrimSpace(r.Text),
		URL:   r.URL,
		Title: r.Title,
		TS:    ts,
	}

	if err := d.history.RecordCapture(ctx, item); err != nil {
		return Response{}, err
	}

	return OKResponse(), nil
}

func (d *Dispatcher) deleteAt(ctx context.Context, r DeleteAt) (Response, error) {
	if err := d.history.DeleteAt(ctx, r.Index); err != nil {
		return Response{}, err
	}

	return OKResponse(), nil
}

func (d *Dispatcher) setMaxItems(ctx context.Context, r SetMaxItems) (Response, error) {
	settings, err := d.history.SetMaxItems(ctx, r.MaxItems)
	if err != nil {
		return Response{}, err
	}

	return SettingsResponse(settings), nil
}

func kindOf(req Request) Kind {
	if req == nil {
		return ""
	}

	return req.Kind()
}
