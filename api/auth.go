package api

import (
	"context"
	"time"
)

// User is the backend's view of an account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

// Token is the credential returned by a successful login. The access
// token is opaque; expiry is advisory only, the backend remains the
// authority on validity.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// RegisterParams is the signup payload. Name is optional.
type RegisterParams struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthService groups the authentication operations. Register and
// Login are the only unauthenticated operations besides plan listing;
// they never send an Authorization header.
type AuthService struct {
	client *Client
}

// Register creates an account. It does not log the new user in; the
// session store follows up with Login to acquire a token.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (*User, error) {
	var user User
	if err := s.client.do(ctx, "POST", "/auth/register", nil, p, true, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Token, error) {
	var token Token
	err := s.client.do(ctx, "POST", "/auth/login", nil, loginRequest{Email: email, Password: password}, true, &token)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// Me fetches the profile of the user owning the current token.
func (s *AuthService) Me(ctx context.Context) (*User, error) {
	var user User
	if err := s.client.get(ctx, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
