package memtest

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Al-aminI/memsient-go/api"
)

type createKeyRequest struct {
	Name string `json:"name" validate:"required"`
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]api.APIKey, 0)
	for _, rec := range s.keys {
		if rec.userID == uid {
			// Only the masked form ever leaves the server after
			// creation.
			list = append(list, rec.key)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		detail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		detail(w, http.StatusUnprocessableEntity, s.validationDetails(err))
		return
	}

	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		detail(w, http.StatusInternalServerError, "Key generation failed")
		return
	}
	secret := "msk_" + hex.EncodeToString(raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := &keyRecord{
		key: api.APIKey{
			ID:        "key_" + uuid.NewString(),
			Name:      req.Name,
			KeyMasked: "msk_..." + secret[len(secret)-4:],
			Status:    api.APIKeyActive,
			CreatedAt: time.Now().UTC(),
		},
		userID: userID(r),
		secret: secret,
	}
	s.keys[rec.key.ID] = rec
	writeJSON(w, http.StatusCreated, api.APIKeyCreated{APIKey: rec.key, Key: secret})
}

func (s *Server) handleRevokeKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "keyID")

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.keys[keyID]
	if !ok || rec.userID != userID(r) {
		detail(w, http.StatusNotFound, "API key not found")
		return
	}
	rec.key.Status = api.APIKeyRevoked
	writeJSON(w, http.StatusOK, api.APIKeyStatusChange{Status: api.APIKeyRevoked, ID: keyID})
}

func (s *Server) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "keyID")

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.keys[keyID]
	if !ok || rec.userID != userID(r) {
		detail(w, http.StatusNotFound, "API key not found")
		return
	}
	delete(s.keys, keyID)
	writeJSON(w, http.StatusOK, api.APIKeyStatusChange{Status: "deleted", ID: keyID})
}
