// Package client talks to a running cliptape daemon over HTTP.
//
// Every request carries a fixed timeout. Transport problems surface as
// ErrTimeout or ErrUnavailable; a request the coordinator rejected surfaces
// as a *RejectedError carrying the coordinator's message.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/papercomputeco/cliptape/pkg/clip"
	"github.com/papercomputeco/cliptape/pkg/coordinator"
	"github.com/papercomputeco/cliptape/pkg/utils"
)

const defaultTimeout = 2 * time.Second

var (
	// ErrTimeout is returned when the daemon did not answer in time. The
	// operation may still complete on the daemon.
	ErrTimeout = errors.New("timeout")

	// ErrUnavailable is returned when the daemon cannot be reached or answers
	// with something other than a response envelope.
	ErrUnavailable = errors.New("cliptape daemon unavailable")
)

// RejectedError is returned by the typed helpers when the coordinator
// answered with ok=false.
type RejectedError struct {
	Kind    coordinator.Kind
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Kind, e.Message)
}

// Client is an HTTP client for the cliptape API.
type Client struct {
	target  *url.URL
	http    *http.Client
	timeout time.Duration
	rawFeed io.Writer

	onConnected func()
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout (defaults to 2s).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client. Its own Timeout
// should be zero so that Subscribe can hold a stream open.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithRawFeed copies the raw change feed bytes to w.
func WithRawFeed(w io.Writer) Option {
	return func(c *Client) {
		c.rawFeed = w
	}
}

// WithConnected calls fn each time Subscribe learns the daemon has
// registered the subscription, i.e. later changes will be delivered.
func WithConnected(fn func()) Option {
	return func(c *Client) {
		c.onConnected = fn
	}
}

// New creates a Client for the API at target, e.g. "http://localhost:8765".
func New(target string, opts ...Option) (*Client, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API target URL: %q needs a scheme and host", target)
	}

	c := &Client{
		target:  u,
		http:    &http.Client{},
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Target returns the API base URL.
func (c *Client) Target() string {
	return c.target.String()
}

// Send posts req to the message channel and returns the coordinator's
// response. The error is non-nil only for transport failures.
func (c *Client) Send(ctx context.Context, req coordinator.Request) (coordinator.Response, error) {
	body, err := coordinator.EncodeMessage(req)
	if err != nil {
		return coordinator.Response{}, fmt.Errorf("encoding message: %w", err)
	}

	var resp coordinator.Response
	if err := c.do(ctx, http.MethodPost, "/v1/messages", nil, body, &resp); err != nil {
		return coordinator.Response{}, err
	}

	return resp, nil
}

// Ping checks that the daemon is answering.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/ping", nil, nil, nil)
}

// Capture records one capture.
func (c *Client) Capture(ctx context.Context, capture coordinator.Capture) error {
	_, err := c.expect(ctx, capture)
	return err
}

// History returns the history, filtered by query when it is not blank.
func (c *Client) History(ctx context.Context, query string) ([]clip.Item, error) {
	var params url.Values
	if query != "" {
		params = url.Values{"q": []string{query}}
	}

	var resp coordinator.Response
	if err := c.do(ctx, http.MethodGet, "/v1/history", params, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, &RejectedError{Kind: coordinator.KindListHistory, Message: resp.Error}
	}

	if resp.History == nil {
		return []clip.Item{}, nil
	}
	return resp.History, nil
}

// Clear empties the history.
func (c *Client) Clear(ctx context.Context) error {
	_, err := c.expect(ctx, coordinator.ClearHistory{})
	return err
}

// DeleteAt removes the item at index. Out of range indexes are ignored by
// the daemon.
func (c *Client) DeleteAt(ctx context.Context, index int) error {
	_, err := c.expect(ctx, coordinator.DeleteAt{Index: index})
	return err
}

// Settings returns the current settings.
func (c *Client) Settings(ctx context.Context) (clip.Settings, error) {
	resp, err := c.expect(ctx, coordinator.GetSettings{})
	if err != nil {
		return clip.Settings{}, err
	}
	return settingsOf(resp), nil
}

// SetMaxItems changes the retention limit and returns the clamped settings.
func (c *Client) SetMaxItems(ctx context.Context, maxItems any) (clip.Settings, error) {
	resp, err := c.expect(ctx, coordinator.SetMaxItems{MaxItems: maxItems})
	if err != nil {
		return clip.Settings{}, err
	}
	return settingsOf(resp), nil
}

func settingsOf(resp coordinator.Response) clip.Settings {
	if resp.Settings == nil {
		return clip.DefaultSettings()
	}
	return *resp.Settings
}

// expect sends req and turns an ok=false answer into a *RejectedError.
func (c *Client) expect(ctx context.Context, req coordinator.Request) (coordinator.Response, error) {
	resp, err := c.Send(ctx, req)
	if err != nil {
		return resp, err
	}
	if !resp.OK {
		return resp, &RejectedError{Kind: req.Kind(), Message: resp.Error}
	}
	return resp, nil
}

// do performs one bounded request. out, when non-nil, receives the decoded
// JSON body of any response that carries one.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body []byte, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.target.JoinPath(path)
	u.RawQuery = params.Encode()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", utils.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(ctx, reqCtx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transportError(ctx, reqCtx, err)
	}

	if out == nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
		}
		return nil
	}

	// Error statuses still carry an envelope; anything else is not ours.
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: HTTP %d: %s", ErrUnavailable, resp.StatusCode, strconv.Quote(string(truncate(data, 200))))
	}

	return nil
}

func (c *Client) transportError(parent, reqCtx context.Context, err error) error {
	switch {
	case parent.Err() != nil:
		return parent.Err()
	case errors.Is(reqCtx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
	default:
		return fmt.Errorf("%w at %s: %w", ErrUnavailable, c.target, err)
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
