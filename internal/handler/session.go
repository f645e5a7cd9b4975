package handler

import "sync"

type PushState int

const (
	PushIdle PushState = iota
	PushWaitingContent
)

// Sessions keeps the pending /push state per administrator.
type Sessions struct {
	mu     sync.Mutex
	states map[int64]PushState
}

func NewSessions() *Sessions {
	return &Sessions{states: make(map[int64]PushState)}
}

func (s *Sessions) Get(userID int64) PushState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[userID]
}

func (s *Sessions) Set(userID int64, state PushState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[userID] = state
}

// Clear returns the user to PushIdle.
func (s *Sessions) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
}
