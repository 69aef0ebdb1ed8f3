package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/healthscan-ai/internal/domain/scans"
)

// subscriber channel buffer; a scan emits a handful of events at most
const subscriberBuffer = 4

// Hub fans row-change events out to per-file subscribers. It is the
// in-process stand-in for a hosted realtime row subscription: the processor
// publishes terminal rows, listening HTTP handlers receive them.
type Hub struct {
	mu      sync.Mutex
	subs    map[domain.FileID]map[string]chan *domain.Scan
	timeout time.Duration
}

// NewHub with the upper-bound lifetime for a subscription. After timeout the
// subscription closes unconditionally so no listener stays open forever.
func NewHub(timeout time.Duration) *Hub {
	return &Hub{
		subs:    make(map[domain.FileID]map[string]chan *domain.Scan),
		timeout: timeout,
	}
}

// Subscribe registers a listener for one file's row changes. The returned
// cancel is idempotent and also runs automatically at the hub timeout; the
// channel is closed on cancel.
func (h *Hub) Subscribe(id domain.FileID) (<-chan *domain.Scan, func()) {
	handle := uuid.New().String()
	ch := make(chan *domain.Scan, subscriberBuffer)

	h.mu.Lock()
	if h.subs[id] == nil {
		h.subs[id] = make(map[string]chan *domain.Scan)
	}
	h.subs[id][handle] = ch
	h.mu.Unlock()

	cancel := func() { h.unsubscribe(id, handle) }
	timer := time.AfterFunc(h.timeout, cancel)

	return ch, func() {
		timer.Stop()
		cancel()
	}
}

func (h *Hub) unsubscribe(id domain.FileID, handle string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.subs[id]
	if subs == nil {
		return
	}
	ch, ok := subs[handle]
	if !ok {
		return
	}
	delete(subs, handle)
	if len(subs) == 0 {
		delete(h.subs, id)
	}
	close(ch)
}

// Publish delivers a row change to every subscriber of that file. Non-blocking:
// a subscriber whose buffer is full misses the event rather than stalling the
// processor.
func (h *Hub) Publish(s *domain.Scan) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[s.FileID] {
		select {
		case ch <- s:
		default:
		}
	}
}

// Subscribers reports the current listener count for a file.
func (h *Hub) Subscribers(id domain.FileID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[id])
}
