package api

import (
	"context"
	"net/url"
	"time"
)

// API key lifecycle states.
const (
	APIKeyActive  = "active"
	APIKeyRevoked = "revoked"
)

// APIKey is the listable view of a key. KeyMasked is all a caller can
// ever see after creation; the raw secret is not retrievable again.
type APIKey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	KeyMasked  string     `json:"key_masked"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

// APIKeyCreated is the one-time creation response. Key holds the
// unmasked secret exactly once; persist it immediately, the backend
// will never return it again.
type APIKeyCreated struct {
	APIKey
	Key string `json:"key"`
}

// APIKeyStatusChange acknowledges a revoke or delete.
type APIKeyStatusChange struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

type createKeyRequest struct {
	Name string `json:"name"`
}

// APIKeysService manages programmatic access keys.
type APIKeysService struct {
	client *Client
}

// List returns all keys, active and revoked, with masked secrets.
func (s *APIKeysService) List(ctx context.Context) ([]APIKey, error) {
	var keys []APIKey
	if err := s.client.get(ctx, "/api-keys", nil, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// Create mints a new key and returns its unmasked secret.
func (s *APIKeysService) Create(ctx context.Context, name string) (*APIKeyCreated, error) {
	var created APIKeyCreated
	if err := s.client.post(ctx, "/api-keys", nil, createKeyRequest{Name: name}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Revoke soft-disables a key. The record stays listable with status
// "revoked".
func (s *APIKeysService) Revoke(ctx context.Context, keyID string) (*APIKeyStatusChange, error) {
	var change APIKeyStatusChange
	if err := s.client.post(ctx, "/api-keys/"+url.PathEscape(keyID)+"/revoke", nil, nil, &change); err != nil {
		return nil, err
	}
	return &change, nil
}

// Delete removes a key permanently.
func (s *APIKeysService) Delete(ctx context.Context, keyID string) (*APIKeyStatusChange, error) {
	var change APIKeyStatusChange
	if err := s.client.delete(ctx, "/api-keys/"+url.PathEscape(keyID), nil, &change); err != nil {
		return nil, err
	}
	return &change, nil
}
