// Package state holds the request-lifecycle container shared by every domain store.
package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mmcdole/suasor/internal/domain"
)

// State is a point-in-time snapshot of a Store
type State[S any] struct {
	Data    S
	Loading bool
	Error   *domain.ErrorInfo
	Success string
}

// Store is a single mutable state cell plus loading/error/success bookkeeping.
// Data values must be treated as immutable: build new maps and slices in Update.
type Store[S any] struct {
	mu      sync.Mutex
	initial S
	state   State[S]

	// single pending success dismissal
	dismiss    *time.Timer
	successGen uint64

	subs   map[int]func(State[S])
	nextID int
}

// New creates a Store holding initial
func New[S any](initial S) *Store[S] {
	return &Store[S]{
		initial: initial,
		state:   State[S]{Data: initial},
		subs:    make(map[int]func(State[S])),
	}
}

// State returns a snapshot. It may be stale as soon as it is returned.
func (s *Store[S]) State() State[S] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Data returns the current domain data
func (s *Store[S]) Data() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Data
}

// Update replaces the domain data with fn(current)
func (s *Store[S]) Update(fn func(S) S) {
	s.mutate(func(st *State[S]) { st.Data = fn(st.Data) })
}

// Set replaces the domain data
func (s *Store[S]) Set(data S) {
	s.mutate(func(st *State[S]) { st.Data = data })
}

// SetLoading sets the loading flag. Any previous error is cleared.
func (s *Store[S]) SetLoading(loading bool) {
	s.mutate(func(st *State[S]) {
		st.Loading = loading
		st.Error = nil
	})
}

// SetError records err as an ErrorInfo and clears the loading flag.
// A nil err only clears the loading flag and the error.
func (s *Store[S]) SetError(err error) {
	s.mutate(func(st *State[S]) {
		st.Loading = false
		if err == nil {
			st.Error = nil
			return
		}
		info := Normalize(err)
		st.Error = &info
	})
}

// ClearError removes the current error
func (s *Store[S]) ClearError() {
	s.mutate(func(st *State[S]) { st.Error = nil })
}

// SetSuccess shows msg. When autoDismiss > 0 the message is cleared after that delay.
// Only one dismissal is pending at a time; a new message cancels the previous one.
func (s *Store[S]) SetSuccess(msg string, autoDismiss time.Duration) {
	s.mu.Lock()
	if s.dismiss != nil {
		s.dismiss.Stop()
		s.dismiss = nil
	}
	s.successGen++
	gen := s.successGen
	s.state.Success = msg
	if autoDismiss > 0 && msg != "" {
		s.dismiss = time.AfterFunc(autoDismiss, func() { s.dismissSuccess(gen) })
	}
	snapshot, subs := s.state, s.listeners()
	s.mu.Unlock()

	notify(subs, snapshot)
}

func (s *Store[S]) dismissSuccess(gen uint64) {
	s.mu.Lock()
	if gen != s.successGen {
		s.mu.Unlock()
		return
	}
	s.dismiss = nil
	s.state.Success = ""
	snapshot, subs := s.state, s.listeners()
	s.mu.Unlock()

	notify(subs, snapshot)
}

// Reset restores the construction-time state and cancels a pending dismissal
func (s *Store[S]) Reset() {
	s.mu.Lock()
	s.stopTimer()
	s.state = State[S]{Data: s.initial}
	snapshot, subs := s.state, s.listeners()
	s.mu.Unlock()

	notify(subs, snapshot)
}

// Close cancels a pending success dismissal
func (s *Store[S]) Close() {
	s.mu.Lock()
	s.stopTimer()
	s.mu.Unlock()
}

func (s *Store[S]) stopTimer() {
	if s.dismiss != nil {
		s.dismiss.Stop()
		s.dismiss = nil
	}
	s.successGen++
}

// Subscribe calls fn with the current state and after every change, until the returned
// function is called. fn runs on the goroutine that made the change.
func (s *Store[S]) Subscribe(fn func(State[S])) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	snapshot := s.state
	s.mu.Unlock()

	fn(snapshot)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store[S]) mutate(fn func(*State[S])) {
	s.mu.Lock()
	fn(&s.state)
	snapshot, subs := s.state, s.listeners()
	s.mu.Unlock()

	notify(subs, snapshot)
}

// listeners must be called with mu held
func (s *Store[S]) listeners() []func(State[S]) {
	if len(s.subs) == 0 {
		return nil
	}
	out := make([]func(State[S]), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func notify[S any](subs []func(State[S]), st State[S]) {
	for _, fn := range subs {
		fn(st)
	}
}

// Normalize converts any error into an ErrorInfo. Errors exposing Info() keep their
// type and details; cancellation maps to CANCELED; everything else is INTERNAL_ERROR.
func Normalize(err error) domain.ErrorInfo {
	var typed interface{ Info() domain.ErrorInfo }
	if errors.As(err, &typed) {
		return typed.Info()
	}
	var info domain.ErrorInfo
	if errors.As(err, &info) {
		return info
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrorInfo{Message: err.Error(), Type: domain.ErrorTypeCanceled}
	}
	return domain.ErrorInfo{Message: err.Error(), Type: domain.ErrorTypeInternal}
}
