package session

import (
	"context"
	"sync"

	"github.com/Al-aminI/memsient-go/api"
)

// State is the session's position in its lifecycle.
type State int

const (
	// Loading is the initial state, before Refresh has attempted a
	// restore.
	Loading State = iota

	// Authenticated means a profile is present. The token was valid
	// at fetch time; the backend may still reject it later.
	Authenticated

	// Unauthenticated means no token is held, or the last one was
	// rejected.
	Unauthenticated
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the session delivered to
// observers. User is non-nil exactly when State is Authenticated.
type Snapshot struct {
	State State
	User  *api.User
}

// IsAuthenticated reports whether a user profile is present.
func (s Snapshot) IsAuthenticated() bool {
	return s.State == Authenticated
}

// Session owns the bearer token and the current user profile. It is
// the sole writer of both the token store and the client's
// credentials: New installs the session as the client's TokenSource.
// Sessions are safe for concurrent use.
type Session struct {
	client *api.Client
	tokens TokenStore

	mu        sync.Mutex
	token     string
	state     State
	user      *api.User
	persisted bool
	nextSub   int
	subs      map[int]func(Snapshot)
}

// New creates a session bound to client, persisting tokens through
// tokens. A nil tokens means NoStore. The client's token source is
// replaced by the session.
func New(client *api.Client, tokens TokenStore) *Session {
	if tokens == nil {
		tokens = NoStore{}
	}
	s := &Session{
		client: client,
		tokens: tokens,
		state:  Loading,
		subs:   make(map[int]func(Snapshot)),
	}
	client.SetTokenSource(s)
	return s
}

// Token implements api.TokenSource. The client calls this on every
// authenticated request.
func (s *Session) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

// Snapshot returns the current state and profile.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{State: s.state, User: s.user}
}

// Persisted reports whether the current token was written to durable
// storage. False after a Save failure or with NoStore; the session
// still works, it just won't survive a restart.
func (s *Session) Persisted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persisted
}

// Subscribe registers fn for every state transition. The returned
// cancel func removes the subscription. fn is called synchronously
// from the goroutine driving the transition, without the session
// lock held.
func (s *Session) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Login exchanges credentials for a token, persists it, then fetches
// the profile. Backend errors (e.g. invalid credentials) propagate
// unmodified, and a failed login leaves any prior persisted session
// untouched: the token is only adopted after a successful round trip.
func (s *Session) Login(ctx context.Context, email, password string) error {
	token, err := s.client.Auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	s.adoptToken(token.AccessToken)
	user, err := s.client.Auth.Me(ctx)
	if err != nil {
		return err
	}
	s.transition(Authenticated, user)
	return nil
}

// Register creates the account and then performs the same
// token-acquisition sequence as Login with the same credentials.
// Backend validation errors (e.g. duplicate email) propagate
// unmodified.
func (s *Session) Register(ctx context.Context, email, password string, name *string) error {
	_, err := s.client.Auth.Register(ctx, api.RegisterParams{
		Email:    email,
		Password: password,
		Name:     name,
	})
	if err != nil {
		return err
	}
	return s.Login(ctx, email, password)
}

// Logout clears the persisted token and the in-memory profile. It is
// synchronous, purely local, and never calls the backend.
func (s *Session) Logout() {
	s.mu.Lock()
	s.token = ""
	s.persisted = false
	s.mu.Unlock()
	// Best effort: losing the file just means the token was already
	// effectively gone.
	_ = s.tokens.Clear()
	s.transition(Unauthenticated, nil)
}

// Refresh restores the session from the token store, typically on
// application start. With nothing stored it settles Unauthenticated
// without a network call. With a stored token it fetches the profile;
// any failure is treated as "token no longer valid": the token is
// cleared and the session settles Unauthenticated with no error,
// since a stale token must not produce a visible error on startup.
func (s *Session) Refresh(ctx context.Context) Snapshot {
	token, ok, err := s.tokens.Load()
	if err != nil || !ok {
		s.mu.Lock()
		s.token = ""
		s.persisted = false
		s.mu.Unlock()
		s.transition(Unauthenticated, nil)
		return s.Snapshot()
	}

	s.mu.Lock()
	s.token = token
	s.persisted = true
	s.mu.Unlock()

	user, err := s.client.Auth.Me(ctx)
	if err != nil {
		s.mu.Lock()
		s.token = ""
		s.persisted = false
		s.mu.Unlock()
		_ = s.tokens.Clear()
		s.transition(Unauthenticated, nil)
		return s.Snapshot()
	}
	s.transition(Authenticated, user)
	return s.Snapshot()
}

// adoptToken installs the token in memory and persists it best
// effort. Persistence failing (ErrUnavailable included) downgrades to
// a non-durable session rather than failing the login.
func (s *Session) adoptToken(token string) {
	persisted := s.tokens.Save(token) == nil
	s.mu.Lock()
	s.token = token
	s.persisted = persisted
	s.mu.Unlock()
}

// transition updates state and profile, then notifies subscribers
// outside the lock.
func (s *Session) transition(state State, user *api.User) {
	s.mu.Lock()
	s.state = state
	s.user = user
	snapshot := Snapshot{State: state, User: user}
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(snapshot)
	}
}
