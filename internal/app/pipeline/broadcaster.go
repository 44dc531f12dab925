package pipeline

import (
	"sync"
	"time"
)

// Broadcaster keeps the handler sets of a Pipeline implementation and
// fans events out to them in subscription order.
type Broadcaster struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]Handlers
	order  []uint64
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[uint64]Handlers),
	}
}

// Subscribe registers h and returns its handle.
func (b *Broadcaster) Subscribe(h Handlers) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[id] = h
	b.order = append(b.order, id)

	var once sync.Once
	return SubscriptionFunc(func() {
		once.Do(func() { b.remove(id) })
	})
}

func (b *Broadcaster) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subs, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of live subscriptions.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broadcaster) snapshot() []Handlers {
	b.mu.RLock()
	defer b.mu.RUnlock()

	hs := make([]Handlers, 0, len(b.order))
	for _, id := range b.order {
		hs = append(hs, b.subs[id])
	}
	return hs
}

// EmitPosition delivers a position event.
func (b *Broadcaster) EmitPosition(pos time.Duration) {
	for _, h := range b.snapshot() {
		if h.Position != nil {
			h.Position(pos)
		}
	}
}

// EmitState delivers a state-changed event.
func (b *Broadcaster) EmitState(s State) {
	for _, h := range b.snapshot() {
		if h.StateChanged != nil {
			h.StateChanged(s)
		}
	}
}

// EmitDuration delivers a duration-changed event.
func (b *Broadcaster) EmitDuration(d time.Duration) {
	for _, h := range b.snapshot() {
		if h.DurationChanged != nil {
			h.DurationChanged(d)
		}
	}
}
