// Package session is the single source of truth for "is a user
// logged in, and who are they".
//
// A Session moves between three states:
//   - Loading: initial, restore not yet attempted
//   - Authenticated: a profile is present
//   - Unauthenticated: no token, or the backend rejected it
//
// Login and Register acquire a bearer token, persist it through a
// TokenStore, and immediately re-fetch the profile; there is no path
// to Authenticated that trusts a cached profile. Logout is purely
// local token invalidation and never calls the backend. Refresh
// restores a persisted session on startup and self-heals stale
// tokens: a rejected token is cleared silently instead of surfacing
// an error.
//
// Token persistence is a capability, not a given. Store
// implementations live in subpackages (store/file for durable
// storage, store/mem for tests); NoStore is the explicit
// no-persistence variant for environments without durable storage,
// where sessions simply do not survive a restart.
//
// Observers subscribe to state changes with Subscribe; every
// transition delivers an immutable Snapshot.
package session
