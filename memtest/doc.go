// Package memtest is an in-process fake of the Memsient backend.
//
// It implements every endpoint the client consumes (auth, memory
// graphs, text ingestion sync and async, natural-language queries,
// API keys, billing) over plain in-memory state, so SDK tests and
// local development need no real backend. Serve it with
// httptest.NewServer(srv.Handler()) in tests, or via the CLI's
// devserver command.
//
// Fidelity is limited to the wire contract: error bodies use the
// {"detail": string | []string} shape, tokens are real (HS256 JWTs
// with a per-server secret), async ingestion goes through an
// accepted job that must be polled. The graph arithmetic is a
// deterministic toy: node and edge counts derive from the distinct
// words of the submitted text, so tests can assert exact values.
// Nothing here resembles the production graph engine.
package memtest
