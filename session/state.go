// Package session holds the client-side record of the current authentication
// status. A State is created empty at startup and passed explicitly to the
// orchestrator and the UI; there is no package level instance.
package session

import (
	"slices"
	"sync"

	"github.com/jrsteele09/go-auth-client/users"
)

// Session is an immutable snapshot of State.
type Session struct {
	Token     string
	User      *users.User
	IsLoading bool
	Error     string
}

// IsAuthenticated holds exactly when a token is present.
func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}

// Observer receives the snapshot produced by every mutation.
type Observer func(Session)

type subscription struct {
	id int
	fn Observer
}

// State is the observable session container. All methods are safe for
// concurrent use; observers run on the mutating goroutine after the lock is
// released.
type State struct {
	mu        sync.RWMutex
	current   Session
	observers []subscription
	nextID    int
}

func New() *State {
	return &State{}
}

// Subscribe registers fn and returns a function that removes it. Observers
// are notified in subscription order. They may call back into State, and
// into the request client: its refresh hooks run once the client is idle.
func (s *State) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers = append(s.observers, subscription{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.observers = slices.DeleteFunc(s.observers, func(sub subscription) bool { return sub.id == id })
	}
}

func (s *State) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Token returns the current bearer token, "" when signed out.
func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

func (s *State) IsAuthenticated() bool {
	return s.Snapshot().IsAuthenticated()
}

func (s *State) SetToken(token string) {
	s.update(func(c *Session) { c.Token = token })
}

// SetUser replaces the user record wholesale.
func (s *State) SetUser(u *users.User) {
	if u != nil {
		copied := *u
		u = &copied
	}
	s.update(func(c *Session) { c.User = u })
}

func (s *State) SetLoading(loading bool) {
	s.update(func(c *Session) { c.IsLoading = loading })
}

// SetError records the last error message; "" clears it.
func (s *State) SetError(msg string) {
	s.update(func(c *Session) { c.Error = msg })
}

// Logout clears token, user and error. The loading flag is left alone because
// logout may run inside a flow that still owns it.
func (s *State) Logout() {
	s.update(func(c *Session) {
		c.Token = ""
		c.User = nil
		c.Error = ""
	})
}

// Reset returns the state to its initial empty value.
func (s *State) Reset() {
	s.update(func(c *Session) { *c = Session{} })
}

func (s *State) update(mutate func(*Session)) {
	s.mu.Lock()
	mutate(&s.current)
	snapshot := s.current
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	for _, sub := range observers {
		sub.fn(snapshot)
	}
}
