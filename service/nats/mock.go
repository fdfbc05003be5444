package nats

import (
	"context"
	"sync"
)

// MockPublisher is an in-memory Publisher for tests. It records every
// published event and can be configured to return an error.
type MockPublisher struct {
	mu     sync.Mutex
	events []*TransactionFetchedEvent

	// PublishErr, if set, is returned by PublishFetched.
	PublishErr error

	closed bool
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishFetched(ctx context.Context, event *TransactionFetchedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.events = append(m.events, event)
	return nil
}

func (m *MockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Events returns a copy of all published events.
func (m *MockPublisher) Events() []*TransactionFetchedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*TransactionFetchedEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Closed reports whether Close has been called.
func (m *MockPublisher) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
