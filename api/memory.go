package api

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"
)

// Memory is an opaque handle to a server-side knowledge graph. The
// client treats it as an immutable snapshot refreshed on demand; all
// counts are computed by the backend.
type Memory struct {
	MemoryID       string    `json:"memory_id"`
	UserID         string    `json:"user_id"`
	NodeCount      int       `json:"node_count"`
	EdgeCount      int       `json:"edge_count"`
	IngestionCount int       `json:"ingestion_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MemoryDeleted acknowledges a deletion.
type MemoryDeleted struct {
	Status   string `json:"status"`
	MemoryID string `json:"memory_id"`
}

// IngestResult is the completion record of a synchronous ingestion.
type IngestResult struct {
	Success          bool    `json:"success"`
	MemoryID         string  `json:"memory_id"`
	NodesCreated     int     `json:"nodes_created"`
	EdgesCreated     int     `json:"edges_created"`
	ClustersUpdated  int     `json:"clusters_updated"`
	ProcessingTimeMS float64 `json:"processing_time_ms"`
}

// IngestAccepted is the job-acceptance record returned by async
// ingestion. It carries the request id to poll, nothing more.
type IngestAccepted struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
}

// Ingestion job states reported by the status endpoint.
const (
	IngestAcceptedState   = "accepted"
	IngestProcessingState = "processing"
	IngestCompletedState  = "completed"
	IngestFailedState     = "failed"
)

// IngestStatus is a snapshot of an async ingestion job. Node and
// edge counts, or Error, are meaningful only in a terminal state.
type IngestStatus struct {
	Status           string     `json:"status"`
	RequestID        string     `json:"request_id"`
	MemoryID         string     `json:"memory_id,omitempty"`
	UserID           string     `json:"user_id,omitempty"`
	Kind             string     `json:"kind,omitempty"`
	NodesCreated     int        `json:"nodes_created,omitempty"`
	EdgesCreated     int        `json:"edges_created,omitempty"`
	Error            string     `json:"error,omitempty"`
	ProcessingTimeMS float64    `json:"processing_time_ms,omitempty"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
}

// Terminal reports whether the job has reached a final state.
func (s *IngestStatus) Terminal() bool {
	return s.Status == IngestCompletedState || s.Status == IngestFailedState
}

// QueryOptions tunes a natural-language query. Nil pointers keep the
// backend defaults (top_k 10, context included, no answer).
type QueryOptions struct {
	TopK           int
	IncludeContext *bool
	IncludeAnswer  *bool
}

// ContextChunk is a retrieved fragment supporting a query result.
type ContextChunk struct {
	Content        string  `json:"content"`
	SourceType     string  `json:"source_type"`
	SourceID       string  `json:"source_id"`
	RelevanceScore float64 `json:"relevance_score"`
}

// QueryResult is the backend's answer to a natural-language query.
// Nodes and Edges are left raw: their shape belongs to the graph
// engine and the client only passes them through.
type QueryResult struct {
	Answer           string            `json:"answer,omitempty"`
	Confidence       float64           `json:"confidence"`
	Nodes            []json.RawMessage `json:"nodes,omitempty"`
	Edges            []json.RawMessage `json:"edges,omitempty"`
	ContextChunks    []ContextChunk    `json:"context_chunks,omitempty"`
	ProcessingTimeMS float64           `json:"processing_time_ms"`
}

type createMemoryRequest struct {
	MemoryID string `json:"memory_id"`
	UserID   string `json:"user_id"`
}

type ingestTextRequest struct {
	MemoryID string `json:"memory_id"`
	Content  string `json:"content"`
}

type queryRequest struct {
	MemoryID       string `json:"memory_id"`
	Query          string `json:"query"`
	TopK           int    `json:"top_k"`
	IncludeContext bool   `json:"include_context"`
	IncludeAnswer  bool   `json:"include_answer"`
}

// MemoryService groups the knowledge-graph operations.
type MemoryService struct {
	client *Client
}

// List returns the user's memories.
func (s *MemoryService) List(ctx context.Context, userID string) ([]Memory, error) {
	var memories []Memory
	err := s.client.get(ctx, "/memory", url.Values{"user_id": {userID}}, &memories)
	if err != nil {
		return nil, err
	}
	return memories, nil
}

// Create registers a new, empty memory graph under a user-chosen id.
func (s *MemoryService) Create(ctx context.Context, userID, memoryID string) (*Memory, error) {
	var memory Memory
	err := s.client.post(ctx, "/memory/create", nil, createMemoryRequest{MemoryID: memoryID, UserID: userID}, &memory)
	if err != nil {
		return nil, err
	}
	return &memory, nil
}

// Get fetches a fresh snapshot of one memory.
func (s *MemoryService) Get(ctx context.Context, memoryID, userID string) (*Memory, error) {
	var memory Memory
	err := s.client.get(ctx, "/memory/"+url.PathEscape(memoryID), url.Values{"user_id": {userID}}, &memory)
	if err != nil {
		return nil, err
	}
	return &memory, nil
}

// Delete removes a memory and everything ingested into it.
func (s *MemoryService) Delete(ctx context.Context, memoryID, userID string) (*MemoryDeleted, error) {
	var deleted MemoryDeleted
	err := s.client.delete(ctx, "/memory/"+url.PathEscape(memoryID), url.Values{"user_id": {userID}}, &deleted)
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

// IngestText submits text synchronously and blocks until the backend
// has turned it into graph nodes and edges.
func (s *MemoryService) IngestText(ctx context.Context, userID, memoryID, content string) (*IngestResult, error) {
	var result IngestResult
	query := url.Values{"user_id": {userID}}
	err := s.client.post(ctx, "/memory/ingest/text", query, ingestTextRequest{MemoryID: memoryID, Content: content}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// IngestTextAsync submits text for deferred ingestion. The returned
// acceptance record carries the request id; the job is not done until
// IngestStatus reports a terminal state.
func (s *MemoryService) IngestTextAsync(ctx context.Context, userID, memoryID, content string) (*IngestAccepted, error) {
	var accepted IngestAccepted
	query := url.Values{"user_id": {userID}, "async_mode": {"true"}}
	err := s.client.post(ctx, "/memory/ingest/text", query, ingestTextRequest{MemoryID: memoryID, Content: content}, &accepted)
	if err != nil {
		return nil, err
	}
	return &accepted, nil
}

// IngestStatus fetches the current state of an async ingestion job.
func (s *MemoryService) IngestStatus(ctx context.Context, requestID string) (*IngestStatus, error) {
	var status IngestStatus
	if err := s.client.get(ctx, "/memory/ingest/status/"+url.PathEscape(requestID), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// PollIngest polls the job until it reaches a terminal state or ctx
// is done. The caller owns the cadence; there is no server push.
func (s *MemoryService) PollIngest(ctx context.Context, requestID string, interval time.Duration) (*IngestStatus, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		status, err := s.IngestStatus(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if status.Terminal() {
			return status, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Query runs a natural-language query against one memory.
func (s *MemoryService) Query(ctx context.Context, userID, memoryID, query string, opts *QueryOptions) (*QueryResult, error) {
	params := url.Values{"user_id": {userID}}
	body := queryRequest{
		MemoryID:       memoryID,
		Query:          query,
		TopK:           10,
		IncludeContext: true,
		IncludeAnswer:  false,
	}
	if opts != nil {
		if opts.TopK > 0 {
			body.TopK = opts.TopK
			params.Set("top_k", strconv.Itoa(opts.TopK))
		}
		if opts.IncludeContext != nil {
			body.IncludeContext = *opts.IncludeContext
			params.Set("include_context", strconv.FormatBool(*opts.IncludeContext))
		}
		if opts.IncludeAnswer != nil {
			body.IncludeAnswer = *opts.IncludeAnswer
			params.Set("include_answer", strconv.FormatBool(*opts.IncludeAnswer))
		}
	}
	var result QueryResult
	if err := s.client.post(ctx, "/memory/query", params, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
