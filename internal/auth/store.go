// Package auth implements the client session core of the dashboard:
//  1. an in-memory Store for the access token and onboarding flag
//  2. a Verifier and Refresher talking to the BFF auth routes
//  3. a Coordinator that keeps the token valid with a single in-flight cycle
//  4. bootstrap, login and logout helpers built on top of them
package auth

import "sync"

// State is a point-in-time view of the Store.
type State struct {
	AccessToken  string
	IsNewAccount bool
	Checking     bool
}

// Store holds the in-memory session of one client: the access token, the
// new-account flag and the in-flight auth check. It is created once at
// bootstrap and shared by every consumer. The access token is never
// written anywhere but memory.
type Store struct {
	mu           sync.Mutex
	accessToken  string
	isNewAccount bool
	authCheck    *AuthCheck
	marker       Marker

	version uint64

	subMu       sync.Mutex
	subscribers map[int]func(State)
	nextSubID   int

	// deliverMu serializes deliveries; delivered is the newest version
	// handed to subscribers.
	deliverMu sync.Mutex
	delivered uint64
}

// NewStore creates a store seeded from the marker. A nil marker behaves
// like NopMarker.
func NewStore(marker Marker) *Store {
	if marker == nil {
		marker = NopMarker{}
	}
	return &Store{
		isNewAccount: marker.Get(),
		marker:       marker,
		subscribers:  make(map[int]func(State)),
	}
}

// AccessToken returns the current token, or "" when there is none.
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// IsNewAccount reports the onboarding flag.
func (s *Store) IsNewAccount() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isNewAccount
}

// SetAccessToken replaces the token unconditionally.
func (s *Store) SetAccessToken(token string) {
	s.mu.Lock()
	s.accessToken = token
	st, v := s.changedLocked()
	s.mu.Unlock()
	s.publish(st, v)
}

// SetIsNewAccount updates the flag and mirrors it into the marker.
func (s *Store) SetIsNewAccount(isNew bool) {
	s.mu.Lock()
	if isNew {
		s.marker.Set()
	} else {
		s.marker.Remove()
	}
	s.isNewAccount = isNew
	st, v := s.changedLocked()
	s.mu.Unlock()
	s.publish(st, v)
}

// ClearAuth drops the token, the flag, the in-flight check reference and
// the marker. Calling it repeatedly is harmless.
func (s *Store) ClearAuth() {
	s.mu.Lock()
	s.marker.Remove()
	s.accessToken = ""
	s.isNewAccount = false
	s.authCheck = nil
	st, v := s.changedLocked()
	s.mu.Unlock()
	s.publish(st, v)
}

// AuthCheck returns the in-flight check, if any.
func (s *Store) AuthCheck() *AuthCheck {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authCheck
}

// SetAuthCheck replaces the in-flight check reference.
func (s *Store) SetAuthCheck(c *AuthCheck) {
	s.mu.Lock()
	s.authCheck = c
	st, v := s.changedLocked()
	s.mu.Unlock()
	s.publish(st, v)
}

// BeginAuthCheck returns the in-flight check, installing a new one when the
// slot is empty. owner is true only for the caller that installed it; that
// caller must run the cycle and call EndAuthCheck.
func (s *Store) BeginAuthCheck() (c *AuthCheck, owner bool) {
	s.mu.Lock()
	if s.authCheck != nil {
		c = s.authCheck
		s.mu.Unlock()
		return c, false
	}
	c = newAuthCheck()
	s.authCheck = c
	st, v := s.changedLocked()
	s.mu.Unlock()
	s.publish(st, v)
	return c, true
}

// EndAuthCheck empties the slot if it still holds c.
func (s *Store) EndAuthCheck(c *AuthCheck) {
	s.mu.Lock()
	if s.authCheck != c {
		s.mu.Unlock()
		return
	}
	s.authCheck = nil
	st, v := s.changedLocked()
	s.mu.Unlock()
	s.publish(st, v)
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to be called with the new state after mutations.
// Deliveries are serialized and never go back in time: a snapshot older
// than one already delivered is dropped, so the last state a subscriber
// saw is the latest. fn must not mutate the Store. The returned func
// removes the subscription.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

func (s *Store) snapshotLocked() State {
	return State{
		AccessToken:  s.accessToken,
		IsNewAccount: s.isNewAccount,
		Checking:     s.authCheck != nil,
	}
}

// changedLocked bumps the version and snapshots the new state.
func (s *Store) changedLocked() (State, uint64) {
	s.version++
	return s.snapshotLocked(), s.version
}

func (s *Store) publish(st State, version uint64) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if version <= s.delivered {
		return
	}
	s.delivered = version

	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
