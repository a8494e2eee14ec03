// Package api is the HTTP client for the Memsient platform API.
//
// All operations go through a single request core that prefixes the
// versioned base path, attaches the bearer token from a TokenSource,
// and normalizes backend failures into *Error values carrying a
// display-ready message. The client performs exactly one network
// attempt per call: no retries, no deduplication, no timeouts beyond
// what the injected http.Client enforces. Resilience policy belongs
// to the caller.
//
// Operation groups mirror the backend surface:
//   - Auth: register, login, current user
//   - Memory: graph handles, text ingestion (sync and fire-and-poll
//     async), natural-language queries
//   - APIKeys: list, create (one-time secret), revoke, delete
//   - Billing: plans, subscription, checkout, usage, invoices
//
// The session package provides the usual TokenSource implementation;
// a StaticToken works for API-key style scripts and tests.
package api
