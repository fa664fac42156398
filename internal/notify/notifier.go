package notify

import (
	"context"
	"errors"
	"sync"
)

// Notifier delivers a best-effort "new order" signal to the dashboard
// side. Listeners always re-read full state, so the payload carries no
// guarantees and lost signals are recovered by the dashboard's polling
// timer.
type Notifier interface {
	NotifyNewOrder(ctx context.Context, tableNumber string) error
}

// Hub is the in-process leg of the notification channel: submissions in
// the same process wake subscribed dashboard refreshers immediately.
type Hub struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan struct{}]struct{})}
}

// Subscribe returns a signal channel and a cancel func. The channel has
// a buffer of one; signals arriving while one is already queued coalesce.
func (h *Hub) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *Hub) NotifyNewOrder(ctx context.Context, tableNumber string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Multi fans a notification out to several channels; every channel is
// attempted even when an earlier one fails.
type Multi []Notifier

func (m Multi) NotifyNewOrder(ctx context.Context, tableNumber string) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyNewOrder(ctx, tableNumber); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
