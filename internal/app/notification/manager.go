// Package notification provides the notification manager for broadcasting playback events.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/nowplaying/internal/app/player"
)

// DefaultSendTimeout bounds a single send to a subscriber.
const DefaultSendTimeout = 500 * time.Millisecond

// Notification is a playback event with its broadcast sequence number.
type Notification struct {
	SequenceNo uint64
	Event      player.Event
}

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*Notification) error
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id     string
	userID string // empty receives events of every user
	stream Stream
}

func (s *subscription) matches(userID string) bool {
	return s.userID == "" || s.userID == userID
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
	sendTimeout   time.Duration
}

// Ensure Manager implements the interface.
var _ player.Publisher = (*Manager)(nil)

// NewManager creates a new notification manager.
// A non-positive sendTimeout uses DefaultSendTimeout.
func NewManager(sendTimeout time.Duration) *Manager {
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Manager{
		subscriptions: make(map[string]*subscription),
		sendTimeout:   sendTimeout,
	}
}

// Subscribe adds a new subscription for userID and returns the subscription ID.
// An empty userID subscribes to every user.
func (m *Manager) Subscribe(userID string, stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:     id,
		userID: userID,
		stream: stream,
	}
	zlog.Debug().Str("subscription_id", id).Str("user_id", userID).Msg("subscribed to playback events")
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// nextSequenceNo returns the next sequence number.
func (m *Manager) nextSequenceNo() uint64 {
	m.sequenceNoMu.Lock()
	defer m.sequenceNoMu.Unlock()
	m.sequenceNo++
	return m.sequenceNo
}

// Publish broadcasts a playback event.
func (m *Manager) Publish(e player.Event) {
	m.Broadcast(e)
}

// Broadcast sends an event to every subscriber of its user and returns the
// assigned sequence number. Each send runs in its own goroutine with a
// timeout so a slow subscriber cannot block the others.
func (m *Manager) Broadcast(e player.Event) uint64 {
	notification := &Notification{
		SequenceNo: m.nextSequenceNo(),
		Event:      e,
	}

	m.mu.RLock()
	// Copy subscriptions to avoid holding lock during sends
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		if sub.matches(e.UserID) {
			subs = append(subs, sub)
		}
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
				done <- s.stream.Send(notification)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Err(err).Str("subscription_id", s.id).Msg("failed to send notification")
				}
			case <-ctx.Done():
				zlog.Debug().Str("subscription_id", s.id).Msg("notification send timed out")
			}
		}(sub)
	}

	wg.Wait()
	return notification.SequenceNo
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}
