// Package notification provides the notification manager for broadcasting events.
package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

const (
	defaultBuffer      = 16
	defaultSendTimeout = 500 * time.Millisecond
)

// subscription represents a subscriber's subscription.
type subscription struct {
	id string

	mu     sync.Mutex // Guards ch against close during send
	ch     chan Notification
	closed bool
}

func (s *subscription) send(n Notification, timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case s.ch <- n:
		return true
	case <-timer.C:
		return false
	}
}

func (s *subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sendTimeout   time.Duration
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
}

// NewManager creates a new notification manager.
// A sendTimeout of 0 uses 500ms.
func NewManager(sendTimeout time.Duration) *Manager {
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &Manager{
		subscriptions: make(map[string]*subscription),
		sendTimeout:   sendTimeout,
	}
}

// Subscribe adds a new subscription and returns its ID and channel.
// The channel is closed on Unsubscribe or Close.
func (m *Manager) Subscribe(buffer int) (string, <-chan Notification) {
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	sub := &subscription{
		id: id,
		ch: make(chan Notification, buffer),
	}
	m.subscriptions[id] = sub
	return id, sub.ch
}

// NextSequenceNo returns the next sequence number and increments the counter.
func (m *Manager) NextSequenceNo() uint64 {
	m.sequenceNoMu.Lock()
	defer m.sequenceNoMu.Unlock()
	m.sequenceNo++
	return m.sequenceNo
}

// Unsubscribe removes a subscription and closes its channel.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	sub, ok := m.subscriptions[subscriptionID]
	delete(m.subscriptions, subscriptionID)
	m.mu.Unlock()

	if ok {
		sub.close()
	}
}

// Broadcast sends a notification to all subscribers and returns it with its
// sequence number set. Each send runs in its own goroutine with a timeout so a
// slow subscriber only misses the notification.
func (m *Manager) Broadcast(n Notification) Notification {
	n.SequenceNo = m.NextSequenceNo()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

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
			if !s.send(n, m.sendTimeout) {
				zlog.Debug().Msgf("notification: dropped: subscription=%s type=%s seq=%d", s.id, n.Type, n.SequenceNo)
			}
		}(sub)
	}

	// Wait for all sends to complete or timeout
	wg.Wait()
	return n
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions and closes their channels.
func (m *Manager) Close() {
	m.mu.Lock()
	subs := m.subscriptions
	m.subscriptions = make(map[string]*subscription)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}
