package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordedRequest captures what the client actually sent.
type recordedRequest struct {
	method  string
	path    string
	query   string
	headers http.Header
	body    []byte
}

// recordingServer replies with status and body to every request and
// keeps the last request for inspection.
func recordingServer(t *testing.T, status int, body string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.headers = r.Header.Clone()
		rec.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestRequestHeaders(t *testing.T) {
	srv, rec := recordingServer(t, 200, `{"id": "user_1"}`)
	client := New(srv.URL,
		WithTokenSource(StaticToken("tok-123")),
		WithUserAgent("memsient-go-test"),
	)

	_, err := client.Auth.Me(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "GET", rec.method)
	assert.Equal(t, "/api/v1/auth/me", rec.path)
	assert.Equal(t, "Bearer tok-123", rec.headers.Get("Authorization"))
	assert.Equal(t, "application/json", rec.headers.Get("Accept"))
	assert.Equal(t, "memsient-go-test", rec.headers.Get("User-Agent"))
	assert.NotEmpty(t, rec.headers.Get("X-Request-ID"))
}

func TestUnauthenticatedEndpointsSkipAuth(t *testing.T) {
	srv, rec := recordingServer(t, 200, `{"access_token": "t", "token_type": "bearer"}`)
	client := New(srv.URL, WithTokenSource(StaticToken("tok-123")))

	_, err := client.Auth.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	// Login never sends credentials it is trying to replace.
	assert.Empty(t, rec.headers.Get("Authorization"))

	_, err = client.Auth.Register(context.Background(), RegisterParams{Email: "a@b.com", Password: "longenough"})
	require.NoError(t, err)
	assert.Empty(t, rec.headers.Get("Authorization"))

	_, err = client.Billing.ListPlans(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rec.headers.Get("Authorization"))
}

func TestNoTokenOmitsAuthorizationHeader(t *testing.T) {
	srv, rec := recordingServer(t, 200, `{}`)
	client := New(srv.URL)

	_, err := client.Auth.Me(context.Background())
	require.NoError(t, err)
	// No token source at all: the header must be absent, not empty.
	_, present := rec.headers["Authorization"]
	assert.False(t, present)

	client = New(srv.URL, WithTokenSource(StaticToken("")))
	_, err = client.Auth.Me(context.Background())
	require.NoError(t, err)
	_, present = rec.headers["Authorization"]
	assert.False(t, present)

	_, err = client.Memory.List(context.Background(), "user_1")
	require.NoError(t, err)
	_, present = rec.headers["Authorization"]
	assert.False(t, present)
}

func TestContentTypeOnlyWithBody(t *testing.T) {
	srv, rec := recordingServer(t, 200, `{}`)
	client := New(srv.URL)

	_, err := client.Auth.Me(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rec.headers.Get("Content-Type"))

	_, err = client.Auth.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "application/json", rec.headers.Get("Content-Type"))
}

func TestExactlyOneAttempt(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := New(srv.URL)
	_, err := client.Auth.Me(context.Background())
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load())
}

func TestErrorFromResponse(t *testing.T) {
	srv, _ := recordingServer(t, 401, `{"detail": "Invalid credentials"}`)
	client := New(srv.URL)

	_, err := client.Auth.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
	assert.Equal(t, "Invalid credentials", err.Error())
}

func TestSuccessWithEmptyBody(t *testing.T) {
	srv, _ := recordingServer(t, 200, "")
	client := New(srv.URL)

	user, err := client.Auth.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &User{}, user)
}

func TestSuccessWithMalformedBody(t *testing.T) {
	// The contract on the read side is lenient: a 2xx with an
	// unparseable body yields the zero value, never an error.
	srv, _ := recordingServer(t, 200, `{"id": 12`)
	client := New(srv.URL)

	user, err := client.Auth.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &User{}, user)
}

func TestBaseURLNormalization(t *testing.T) {
	srv, rec := recordingServer(t, 200, `{}`)
	client := New(srv.URL + "///")
	assert.Equal(t, srv.URL, client.BaseURL())

	_, err := client.Auth.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/auth/me", rec.path)

	assert.Equal(t, DefaultBaseURL, New("").BaseURL())
}

func TestStaticToken(t *testing.T) {
	token, ok := StaticToken("abc").Token()
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	_, ok = StaticToken("").Token()
	assert.False(t, ok)
}

func TestSetTokenSource(t *testing.T) {
	srv, rec := recordingServer(t, 200, `{}`)
	client := New(srv.URL)
	client.SetTokenSource(StaticToken("later"))

	_, err := client.Auth.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer later", rec.headers.Get("Authorization"))
}
