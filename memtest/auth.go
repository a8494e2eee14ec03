package memtest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Al-aminI/memsient-go/api"
)

type ctxKey int

const userIDKey ctxKey = iota

type registerRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Name     *string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		detail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		detail(w, http.StatusUnprocessableEntity, s.validationDetails(err))
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[email]; exists {
		detail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	rec := &userRecord{
		user: api.User{
			ID:        "user_" + uuid.NewString(),
			Email:     email,
			Name:      req.Name,
			CreatedAt: time.Now().UTC(),
			IsActive:  true,
		},
		password: req.Password,
	}
	s.users[rec.user.ID] = rec
	s.byEmail[email] = rec.user.ID
	writeJSON(w, http.StatusCreated, rec.user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		detail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		detail(w, http.StatusUnprocessableEntity, s.validationDetails(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(req.Email))]
	if !ok || s.users[id].password != req.Password {
		detail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	const ttl = time.Hour
	claims := jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		detail(w, http.StatusInternalServerError, "Token signing failed")
		return
	}
	writeJSON(w, http.StatusOK, api.Token{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int64(ttl.Seconds()),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[userID(r)]
	if !ok {
		detail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, rec.user)
}

// authenticate verifies the bearer JWT and stashes the subject user
// id in the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			detail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		raw := strings.TrimSpace(header[len("bearer "):])

		token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, jwt.ErrSignatureInvalid
			}
			return s.secret, nil
		})
		if err != nil || !token.Valid {
			detail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		claims := token.Claims.(*jwt.RegisteredClaims)

		s.mu.Lock()
		_, known := s.users[claims.Subject]
		s.mu.Unlock()
		if !known {
			detail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, claims.Subject)))
	})
}

// userID returns the authenticated user id placed by authenticate.
func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
