package kv

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"sync"
)

const defaultSubscriptionBuffer = 16

// Subscription receives the changes published after it was created.
type Subscription struct {
	// C delivers changes in write order. It is closed by Close.
	C <-chan Change

	once   sync.Once
	cancel func()
}

// Close unregisters the subscription and closes C.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

// Notifier fans changes out to subscribers. Drivers embed it to implement
// Store.Subscribe.
type Notifier struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]chan Change
	closed bool
}

// NewNotifier creates an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		subs: make(map[uint64]chan Change),
	}
}

// Subscribe registers a new subscriber with the given channel capacity.
// Subscribing to a closed notifier returns an already closed subscription.
func (n *Notifier) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultSubscriptionBuffer
	}

	ch := make(chan Change, buffer)

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		close(ch)
		return &Subscription{C: ch, cancel: func() {}}
	}

	id := n.nextID
	n.nextID++
	n.subs[id] = ch

	return &Subscription{
		C: ch,
		cancel: func() {
			n.mu.Lock()
			defer n.mu.Unlock()

			if _, ok := n.subs[id]; ok {
				delete(n.subs, id)
				close(ch)
			}
		},
	}
}

// Publish delivers each change to every subscriber without blocking.
// A subscriber whose buffer is full misses the change.
func (n *Notifier) Publish(changes ...Change) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, change := range changes {
		for _, ch := range n.subs {
			select {
			case ch <- change:
			default:
			}
		}
	}
}

// Close closes every subscription. Later Publish calls are no-ops.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	n.closed = true
	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
}

// Diff compares the values before and after a write and returns a Change for
// every key whose value differs. Values are compared after compacting so that
// formatting differences are not reported.
func Diff(before, after map[string]json.RawMessage) []Change {
	var changes []Change
	for key, newValue := range after {
		oldValue, existed := before[key]
		if existed && Equal(oldValue, newValue) {
			continue
		}

		change := Change{Key: key, NewValue: newValue}
		if existed {
			change.OldValue = oldValue
		}
		changes = append(changes, change)
	}

	for key, oldValue := range before {
		if _, ok := after[key]; !ok {
			changes = append(changes, Change{Key: key, OldValue: oldValue})
		}
	}

	slices.SortFunc(changes, func(a, b Change) int {
		return strings.Compare(a.Key, b.Key)
	})

	return changes
}

// Equal reports whether two JSON documents are byte-identical once compacted.
func Equal(a, b json.RawMessage) bool {
	if bytes.Equal(a, b) {
		return true
	}

	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return false
	}

	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
