package memtest

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Al-aminI/memsient-go/api"
)

type createMemoryRequest struct {
	MemoryID string `json:"memory_id" validate:"required"`
	UserID   string `json:"user_id" validate:"required"`
}

type ingestTextRequest struct {
	MemoryID string `json:"memory_id" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

type queryRequest struct {
	MemoryID       string `json:"memory_id" validate:"required"`
	Query          string `json:"query" validate:"required"`
	TopK           int    `json:"top_k"`
	IncludeContext bool   `json:"include_context"`
	IncludeAnswer  bool   `json:"include_answer"`
}

func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("user_id")
	if uid == "" {
		detail(w, http.StatusUnprocessableEntity, "user_id query parameter is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]api.Memory, 0, len(s.memories[uid]))
	for _, rec := range s.memories[uid] {
		list = append(list, rec.info)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].MemoryID < list[j].MemoryID })
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateMemory(w http.ResponseWriter, r *http.Request) {
	var req createMemoryRequest
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
	if s.memories[req.UserID] == nil {
		s.memories[req.UserID] = make(map[string]*memoryRecord)
	}
	if _, exists := s.memories[req.UserID][req.MemoryID]; exists {
		detail(w, http.StatusConflict, "Memory already exists")
		return
	}
	now := time.Now().UTC()
	rec := &memoryRecord{info: api.Memory{
		MemoryID:  req.MemoryID,
		UserID:    req.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	s.memories[req.UserID][req.MemoryID] = rec
	writeJSON(w, http.StatusOK, rec.info)
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	memoryID := chi.URLParam(r, "memoryID")
	uid := r.URL.Query().Get("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.memories[uid][memoryID]
	if !ok {
		detail(w, http.StatusNotFound, "Memory not found")
		return
	}
	writeJSON(w, http.StatusOK, rec.info)
}

func (s *Server) handleDeleteMemory(w http.ResponseWriter, r *http.Request) {
	memoryID := chi.URLParam(r, "memoryID")
	uid := r.URL.Query().Get("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.memories[uid][memoryID]; !ok {
		detail(w, http.StatusNotFound, "Memory not found")
		return
	}
	delete(s.memories[uid], memoryID)
	writeJSON(w, http.StatusOK, api.MemoryDeleted{Status: "deleted", MemoryID: memoryID})
}

func (s *Server) handleIngestText(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("user_id")
	if uid == "" {
		detail(w, http.StatusUnprocessableEntity, "user_id query parameter is required")
		return
	}
	var req ingestTextRequest
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
	rec, ok := s.memories[uid][req.MemoryID]
	if !ok {
		detail(w, http.StatusNotFound, "Memory not found")
		return
	}

	if r.URL.Query().Get("async_mode") == "true" {
		requestID := "req_" + uuid.NewString()
		job := &ingestJob{
			status: api.IngestStatus{
				Status:    api.IngestAcceptedState,
				RequestID: requestID,
				MemoryID:  req.MemoryID,
				UserID:    uid,
				Kind:      "text",
			},
			content:  req.Content,
			received: time.Now(),
		}
		s.jobs[requestID] = job
		if s.asyncDelay > 0 {
			time.AfterFunc(s.asyncDelay, func() {
				s.mu.Lock()
				defer s.mu.Unlock()
				s.completeJob(job)
			})
		} else {
			s.completeJob(job)
		}
		// The acceptance record deliberately carries no counts; the
		// caller must poll the status endpoint.
		writeJSON(w, http.StatusAccepted, api.IngestAccepted{
			Status:    api.IngestAcceptedState,
			RequestID: requestID,
		})
		return
	}

	nodes, edges := s.ingestInto(rec, req.Content)
	writeJSON(w, http.StatusOK, api.IngestResult{
		Success:          true,
		MemoryID:         req.MemoryID,
		NodesCreated:     nodes,
		EdgesCreated:     edges,
		ClustersUpdated:  1,
		ProcessingTimeMS: 1,
	})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")

	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[requestID]
	if !ok {
		detail(w, http.StatusNotFound, "Ingestion request not found")
		return
	}
	writeJSON(w, http.StatusOK, job.status)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("user_id")
	if uid == "" {
		detail(w, http.StatusUnprocessableEntity, "user_id query parameter is required")
		return
	}
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		detail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		detail(w, http.StatusUnprocessableEntity, s.validationDetails(err))
		return
	}
	if req.TopK <= 0 {
		req.TopK = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.memories[uid][req.MemoryID]
	if !ok {
		detail(w, http.StatusNotFound, "Memory not found")
		return
	}
	s.retrievals[uid]++

	chunks := rankChunks(rec.chunks, req.Query, req.TopK)
	result := api.QueryResult{
		Confidence:       confidenceFor(len(chunks)),
		ProcessingTimeMS: 1,
	}
	if req.IncludeContext {
		result.ContextChunks = chunks
	}
	if req.IncludeAnswer {
		if len(chunks) == 0 {
			result.Answer = "No relevant context found."
		} else {
			result.Answer = fmt.Sprintf("Based on %d stored chunks: %s", len(chunks), chunks[0].Content)
		}
	}
	writeJSON(w, http.StatusOK, result)
}

// ingestInto applies the toy graph arithmetic and updates the memory
// snapshot. Callers hold s.mu.
func (s *Server) ingestInto(rec *memoryRecord, content string) (nodes, edges int) {
	nodes, edges = graphCounts(content)
	rec.chunks = append(rec.chunks, content)
	rec.info.NodeCount += nodes
	rec.info.EdgeCount += edges
	rec.info.IngestionCount++
	rec.info.UpdatedAt = time.Now().UTC()
	return nodes, edges
}

// completeJob transitions an accepted job to its terminal state.
// Callers hold s.mu.
func (s *Server) completeJob(job *ingestJob) {
	if job.status.Status != api.IngestAcceptedState {
		return
	}
	rec, ok := s.memories[job.status.UserID][job.status.MemoryID]
	now := time.Now().UTC()
	if !ok {
		// Memory deleted while the job was queued.
		job.status.Status = api.IngestFailedState
		job.status.Error = "Memory not found"
		job.status.FinishedAt = &now
		return
	}
	nodes, edges := s.ingestInto(rec, job.content)
	job.status.Status = api.IngestCompletedState
	job.status.NodesCreated = nodes
	job.status.EdgesCreated = edges
	job.status.ProcessingTimeMS = float64(time.Since(job.received).Milliseconds()) + 1
	job.status.FinishedAt = &now
}

// graphCounts derives deterministic node/edge counts from text: one
// node per distinct word of four letters or more, edges forming a
// chain over them.
func graphCounts(content string) (nodes, edges int) {
	seen := make(map[string]struct{})
	words := strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if len(w) >= 4 {
			seen[w] = struct{}{}
		}
	}
	nodes = len(seen)
	if nodes > 1 {
		edges = nodes - 1
	}
	return nodes, edges
}

// rankChunks scores stored chunks by word overlap with the query.
func rankChunks(chunks []string, query string, topK int) []api.ContextChunk {
	queryWords := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) >= 4 {
			queryWords[w] = struct{}{}
		}
	}

	scored := make([]api.ContextChunk, 0, len(chunks))
	for i, chunk := range chunks {
		matched := 0
		for _, w := range strings.Fields(strings.ToLower(chunk)) {
			if _, ok := queryWords[w]; ok {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		scored = append(scored, api.ContextChunk{
			Content:        chunk,
			SourceType:     "text",
			SourceID:       fmt.Sprintf("chunk_%d", i),
			RelevanceScore: float64(matched) / float64(len(queryWords)+1),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

func confidenceFor(matches int) float64 {
	confidence := 0.2 + 0.15*float64(matches)
	if confidence > 0.95 {
		confidence = 0.95
	}
	return confidence
}
