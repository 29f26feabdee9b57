// File: internal/auth/stream.go
package auth

import (
	"context"
	"sync"
)

// Change is one auth-state notification for a browser session.
// Exactly one of Pending or Identity is set, or neither for a signed-out session.
// Released marks a signed-out session id that was replaced and will not be used again.
type Change struct {
	SessionID string    `json:"sid"`
	Identity  *Identity `json:"identity,omitempty"`
	Token     string    `json:"token,omitempty"`
	Pending   bool      `json:"pending,omitempty"`
	Released  bool      `json:"released,omitempty"`
	Origin    string    `json:"origin,omitempty"`
}

// SignedOut reports whether the change clears the session.
func (c Change) SignedOut() bool {
	return !c.Pending && c.Identity == nil
}

// Stream delivers auth-state changes to subscribers.
type Stream interface {
	Subscribe(fn func(Change)) (unsubscribe func())
	Publish(ctx context.Context, change Change) error
}

// LocalStream is an in-process Stream. Publish delivers synchronously on the caller's goroutine.
type LocalStream struct {
	mu          sync.RWMutex
	nextID      int
	subscribers map[int]func(Change)
}

// NewLocalStream creates an empty in-process stream.
func NewLocalStream() *LocalStream {
	return &LocalStream{subscribers: make(map[int]func(Change))}
}

func (s *LocalStream) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

func (s *LocalStream) Publish(_ context.Context, change Change) error {
	s.mu.RLock()
	fns := make([]func(Change), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(change)
	}
	return nil
}

// Subscribers returns the number of registered subscriptions.
func (s *LocalStream) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}
