// Package notification fans seekbox transport updates out to watch streams.
//
// Each message is a *structpb.Struct built from a seek.Update (attach,
// position, duration, state, seek issued or settled). Broadcast stamps
// every message with a monotonically increasing SequenceField
// ("sequence_no") so a watcher can detect updates it missed after a
// dropped or timed-out send and fall back to a fresh snapshot.
package notification

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/structpb"
)

// DefaultSendTimeout bounds a single stream send.
const DefaultSendTimeout = 500 * time.Millisecond

// SequenceField is the notification field carrying the sequence number.
// Numbers start at 1 and are shared by all subscribers of a Manager.
const SequenceField = "sequence_no"

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*structpb.Struct) error
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id     string
	stream Stream
}

// Manager holds the watch-stream subscriptions of one seekbox session and
// broadcasts its sequence-numbered transport updates to them.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    atomic.Uint64
	sendTimeout   time.Duration
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
		sendTimeout:   DefaultSendTimeout,
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:     id,
		stream: stream,
	}
	return id
}

// NextSequenceNo returns the next sequence number and increments the counter.
func (m *Manager) NextSequenceNo() uint64 {
	return m.sequenceNo.Add(1)
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// Broadcast stamps msg with the next sequence number and sends it to all
// subscribers. Every send runs in its own goroutine with a timeout.
// Subscribers whose send fails are removed.
func (m *Manager) Broadcast(msg *structpb.Struct) {
	if msg.Fields == nil {
		msg.Fields = make(map[string]*structpb.Value)
	}
	msg.Fields[SequenceField] = structpb.NewNumberValue(float64(m.NextSequenceNo()))

	m.mu.RLock()
	// Copy subscriptions to avoid holding lock during sends
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), m.sendTimeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.stream.Send(msg)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Err(err).Str("subscription", s.id).Msg("notification: send failed, unsubscribing")
					m.Unsubscribe(s.id)
				}
			case <-ctx.Done():
				zlog.Debug().Str("subscription", s.id).Msg("notification: send timed out")
			}
		}(sub)
	}

	wg.Wait()
}

// Send sends a notification to a specific subscriber.
func (m *Manager) Send(subscriptionID string, msg *structpb.Struct) error {
	m.mu.RLock()
	sub, ok := m.subscriptions[subscriptionID]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return sub.stream.Send(msg)
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close closes the manager and removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}
