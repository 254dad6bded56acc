package relay

import (
	"context"
	"sync"
)

// MockAdapter records sent messages. Setting FailAfter >= 0 makes every
// send after that many successes return Err.
type MockAdapter struct {
	mu        sync.Mutex
	sent      []Message
	FailAfter int
	Err       error
}

// NewMockAdapter returns a MockAdapter that never fails.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{FailAfter: -1}
}

// Platform implements Adapter.
func (m *MockAdapter) Platform() string { return "mock" }

// Send implements Adapter.
func (m *MockAdapter) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAfter >= 0 && len(m.sent) >= m.FailAfter {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// AllSent returns a copy of all sent messages.
func (m *MockAdapter) AllSent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
