package capture

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/papercomputeco/cliptape/pkg/coordinator"
)

var (
	defaultQueueSize   uint = 64
	defaultSendTimeout      = 5 * time.Second
)

// ErrNoSender is returned by NewQueue when no Sender is configured.
var ErrNoSender = errors.New("capture queue requires a sender")

// Sender delivers a request to the coordinator. Transport failures are
// reported as errors, coordinator failures as a response with OK false.
type Sender interface {
	Send(ctx context.Context, req coordinator.Request) (coordinator.Response, error)
}

// QueueConfig is the configuration for a capture Queue.
type QueueConfig struct {
	// Sender receives every dequeued capture.
	Sender Sender

	// QueueSize is the capacity of the buffered capture channel (defaults to 64).
	QueueSize uint

	// SendTimeout bounds each delivery (defaults to 5s).
	SendTimeout time.Duration

	Logger *slog.Logger
}

// Queue delivers captures on a single background worker so that capture
// sources never wait on the coordinator. Deliveries keep submission order.
type Queue struct {
	config *QueueConfig
	queue  chan coordinator.Capture
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewQueue creates a Queue and starts its worker.
func NewQueue(c *QueueConfig) (*Queue, error) {
	if c.Sender == nil {
		return nil, ErrNoSender
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultQueueSize
	}

	if c.SendTimeout <= 0 {
		c.SendTimeout = defaultSendTimeout
	}

	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}

	q := &Queue{
		config: c,
		queue:  make(chan coordinator.Capture, c.QueueSize),
		logger: c.Logger,
	}

	q.wg.Add(1)
	go q.worker()

	return q, nil
}

// Enqueue submits a capture for delivery.
// Returns true if enqueued, false if the queue is full or closed, resulting
// in the capture being dropped.
func (q *Queue) Enqueue(capture coordinator.Capture) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.logger.Debug("capture not queued, queue closed")
		return false
	}

	select {
	case q.queue <- capture:
		q.logger.Debug("capture queued", "url", capture.URL)
		return true
	default:
		q.logger.Warn("capture not queued, queue full, capture dropped", "url", capture.URL)
		return false
	}
}

// Close stops accepting captures and waits for queued ones to be delivered.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.queue)
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	q.logger.Debug("capture worker started")

	for capture := range q.queue {
		q.deliver(capture)
	}

	q.logger.Debug("capture worker stopped")
}

// deliver sends one capture. Failures are logged and dropped: the source of
// a copy never learns about them.
func (q *Queue) deliver(capture coordinator.Capture) {
	ctx, cancel := context.WithTimeout(context.Background(), q.config.SendTimeout)
	defer cancel()

	resp, err := q.config.Sender.Send(ctx, capture)
	if err != nil {
		q.logger.Debug("capture delivery failed", "error", err)
		return
	}

	if !resp.OK {
		q.logger.Debug("capture rejected", "error", resp.Error)
		return
	}

	q.logger.Debug("capture delivered", "url", capture.URL)
}
