package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Al-aminI/memsient-go/api"
	"github.com/Al-aminI/memsient-go/memtest"
	"github.com/Al-aminI/memsient-go/session"
	"github.com/Al-aminI/memsient-go/session/store/mem"
)

// countingTransport counts round trips so tests can assert which
// operations stay purely local.
type countingTransport struct {
	calls atomic.Int64
}

func (t *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	t.calls.Add(1)
	return http.DefaultTransport.RoundTrip(r)
}

func newBackend(t *testing.T) (*httptest.Server, *countingTransport) {
	t.Helper()
	srv := httptest.NewServer(memtest.New().Handler())
	t.Cleanup(srv.Close)
	return srv, &countingTransport{}
}

func newSession(srv *httptest.Server, transport *countingTransport, store session.TokenStore) (*session.Session, *api.Client) {
	client := api.New(srv.URL, api.WithHTTPClient(&http.Client{Transport: transport}))
	return session.New(client, store), client
}

func TestInitialStateIsLoading(t *testing.T) {
	srv, transport := newBackend(t)
	sess, _ := newSession(srv, transport, mem.New())

	snapshot := sess.Snapshot()
	assert.Equal(t, session.Loading, snapshot.State)
	assert.Nil(t, snapshot.User)
	assert.False(t, snapshot.IsAuthenticated())
}

func TestRegisterLogsIn(t *testing.T) {
	srv, transport := newBackend(t)
	sess, _ := newSession(srv, transport, mem.New())

	name := "Ada"
	err := sess.Register(context.Background(), "ada@example.com", "password123", &name)
	require.NoError(t, err)

	snapshot := sess.Snapshot()
	require.True(t, snapshot.IsAuthenticated())
	assert.Equal(t, "ada@example.com", snapshot.User.Email)
	require.NotNil(t, snapshot.User.Name)
	assert.Equal(t, "Ada", *snapshot.User.Name)
	assert.True(t, sess.Persisted())
	// register + login + me
	assert.Equal(t, int64(3), transport.calls.Load())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	srv, transport := newBackend(t)
	sess, _ := newSession(srv, transport, mem.New())

	require.NoError(t, sess.Register(context.Background(), "dup@example.com", "password123", nil))

	sess2, _ := newSession(srv, transport, mem.New())
	err := sess2.Register(context.Background(), "dup@example.com", "password123", nil)
	require.Error(t, err)
	assert.Equal(t, "Email already registered", err.Error())
	assert.False(t, sess2.Snapshot().IsAuthenticated())
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv, transport := newBackend(t)
	store := mem.New()
	sess, _ := newSession(srv, transport, store)

	err := sess.Login(context.Background(), "ghost@example.com", "password123")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	// Nothing was persisted for the failed attempt.
	_, ok, loadErr := store.Load()
	require.NoError(t, loadErr)
	assert.False(t, ok)
}

// pathRecorder records the order of requests passing through it.
type pathRecorder struct {
	paths []string
}

func (p *pathRecorder) RoundTrip(r *http.Request) (*http.Response, error) {
	p.paths = append(p.paths, r.Method+" "+r.URL.Path)
	return http.DefaultTransport.RoundTrip(r)
}

func TestRegisterCallSequence(t *testing.T) {
	srv := httptest.NewServer(memtest.New().Handler())
	t.Cleanup(srv.Close)

	recorder := &pathRecorder{}
	client := api.New(srv.URL, api.WithHTTPClient(&http.Client{Transport: recorder}))
	sess := session.New(client, mem.New())

	require.NoError(t, sess.Register(context.Background(), "order@example.com", "password123", nil))

	// Register is followed by a fresh credential exchange and a profile
	// fetch, in that order.
	require.Equal(t, []string{
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/login",
		"GET /api/v1/auth/me",
	}, recorder.paths)
	assert.Equal(t, "order@example.com", sess.Snapshot().User.Email)
}

func TestFailedLoginKeepsExistingSession(t *testing.T) {
	srv, transport := newBackend(t)
	store := mem.New()
	sess, _ := newSession(srv, transport, store)

	require.NoError(t, sess.Register(context.Background(), "keep@example.com", "password123", nil))

	err := sess.Login(context.Background(), "keep@example.com", "wrong-password")
	require.Error(t, err)

	// The old token is only replaced after a successful exchange.
	assert.True(t, sess.Snapshot().IsAuthenticated())
	token, ok, loadErr := store.Load()
	require.NoError(t, loadErr)
	assert.True(t, ok)
	assert.NotEmpty(t, token)
}

func TestRefreshRestoresAcrossSessions(t *testing.T) {
	srv, transport := newBackend(t)
	store := mem.New()

	sess, _ := newSession(srv, transport, store)
	require.NoError(t, sess.Register(context.Background(), "restore@example.com", "password123", nil))

	// A second session over the same store models a process restart.
	sess2, _ := newSession(srv, transport, store)
	snapshot := sess2.Refresh(context.Background())
	require.True(t, snapshot.IsAuthenticated())
	assert.Equal(t, "restore@example.com", snapshot.User.Email)
	assert.True(t, sess2.Persisted())
}

func TestRefreshWithoutTokenMakesNoRequest(t *testing.T) {
	srv, transport := newBackend(t)
	sess, _ := newSession(srv, transport, mem.New())

	snapshot := sess.Refresh(context.Background())
	assert.Equal(t, session.Unauthenticated, snapshot.State)
	assert.Nil(t, snapshot.User)
	assert.Equal(t, int64(0), transport.calls.Load())
}

func TestRefreshClearsStaleToken(t *testing.T) {
	srv, transport := newBackend(t)
	store := mem.New()
	require.NoError(t, store.Save("not-a-valid-jwt"))

	sess, _ := newSession(srv, transport, store)
	snapshot := sess.Refresh(context.Background())

	// A rejected token settles Unauthenticated with no error surfaced.
	assert.Equal(t, session.Unauthenticated, snapshot.State)
	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, sess.Persisted())
}

func TestLogoutIsLocal(t *testing.T) {
	srv, transport := newBackend(t)
	store := mem.New()
	sess, _ := newSession(srv, transport, store)

	require.NoError(t, sess.Register(context.Background(), "out@example.com", "password123", nil))
	before := transport.calls.Load()

	sess.Logout()
	assert.Equal(t, before, transport.calls.Load())
	assert.Equal(t, session.Unauthenticated, sess.Snapshot().State)
	assert.False(t, sess.Persisted())

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	// Refresh after logout settles locally too.
	sess.Refresh(context.Background())
	assert.Equal(t, before, transport.calls.Load())
}

func TestSessionSuppliesClientToken(t *testing.T) {
	srv, transport := newBackend(t)
	sess, client := newSession(srv, transport, mem.New())

	require.NoError(t, sess.Register(context.Background(), "calls@example.com", "password123", nil))

	// The client can make authenticated calls without further wiring.
	user, err := client.Auth.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "calls@example.com", user.Email)

	sess.Logout()
	_, err = client.Auth.Me(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Not authenticated", err.Error())
}

func TestNoStoreDegradesGracefully(t *testing.T) {
	srv, transport := newBackend(t)
	sess, _ := newSession(srv, transport, session.NoStore{})

	require.NoError(t, sess.Register(context.Background(), "volatile@example.com", "password123", nil))
	assert.True(t, sess.Snapshot().IsAuthenticated())
	assert.False(t, sess.Persisted())
}

func TestNilStoreMeansNoStore(t *testing.T) {
	srv, transport := newBackend(t)
	client := api.New(srv.URL, api.WithHTTPClient(&http.Client{Transport: transport}))
	sess := session.New(client, nil)

	require.NoError(t, sess.Register(context.Background(), "nilstore@example.com", "password123", nil))
	assert.False(t, sess.Persisted())
}

func TestSubscribeObservesTransitions(t *testing.T) {
	srv, transport := newBackend(t)
	sess, _ := newSession(srv, transport, mem.New())

	var states []session.State
	cancel := sess.Subscribe(func(s session.Snapshot) {
		states = append(states, s.State)
	})

	require.NoError(t, sess.Register(context.Background(), "watch@example.com", "password123", nil))
	sess.Logout()
	assert.Equal(t, []session.State{session.Authenticated, session.Unauthenticated}, states)

	cancel()
	sess.Refresh(context.Background())
	assert.Len(t, states, 2)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "loading", session.Loading.String())
	assert.Equal(t, "authenticated", session.Authenticated.String())
	assert.Equal(t, "unauthenticated", session.Unauthenticated.String())
	assert.Equal(t, "unknown", session.State(42).String())
}
