package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/curiolabs/curio/internal/agent"
	"github.com/curiolabs/curio/internal/knowledge"
	"github.com/curiolabs/curio/internal/logging"
)

// SearchRequest asks for expert personas on a topic. It is the body of
// POST /api/v1/search and the per-message payload on /ws/search.
type SearchRequest struct {
	// ID is echoed on every stream frame so WebSocket clients can
	// correlate concurrent searches. Unused over plain HTTP.
	ID string `json:"id,omitempty"`

	Topic  string `json:"topic"`
	Region string `json:"region,omitempty"`

	// Agent selects the discovery mode. Omitted or true runs the
	// agentic search; false forces the direct model query.
	Agent *bool `json:"agent,omitempty"`
}

// SearchResponse wraps a discovery result with serving metadata.
type SearchResponse struct {
	*agent.SearchResult

	// Fallback is true when the agent failed and the direct search
	// produced the personas instead.
	Fallback   bool  `json:"fallback,omitempty"`
	DurationMS int64 `json:"duration_ms"`
}

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Provider string `json:"provider"`
	ModelOK  bool   `json:"model_available"`
	Database string `json:"database,omitempty"`
	Clients  int    `json:"ws_clients"`
}

// handleSearch runs one persona discovery. Agent failures degrade to the
// direct search instead of erroring: the endpoint returns three personas
// whenever any search tier can produce them.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, "topic is required", "")
		return
	}

	start := time.Now()
	result, fallback := s.runSearch(r.Context(), &req, nil)
	s.logSearch(r.Context(), result)

	writeJSON(w, http.StatusOK, &SearchResponse{
		SearchResult: result,
		Fallback:     fallback,
		DurationMS:   time.Since(start).Milliseconds(),
	})
}

// handleBio returns the fetched biography for one persona.
func (s *Server) handleBio(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("persona")
	bio, err := s.deps.Bios.Fetch(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusBadGateway, "biography lookup failed", err.Error())
		return
	}
	if !bio.Found {
		writeError(w, http.StatusNotFound, "no biography found", name)
		return
	}
	writeJSON(w, http.StatusOK, bio)
}

// handleHealth reports service, model, and database status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := &HealthResponse{
		Status:   "healthy",
		Service:  "curio-api",
		Version:  s.cfg.Version,
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Provider: s.deps.Provider.Name(),
		ModelOK:  s.deps.Provider.Available(),
		Clients:  s.hub.count(),
	}
	if !resp.ModelOK {
		resp.Status = "degraded"
	}
	if s.deps.Store != nil {
		resp.Database = "ok"
		if err := s.deps.Store.Health(); err != nil {
			resp.Database = err.Error()
			resp.Status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// runSearch executes one discovery, degrading from the agent to the direct
// search when the agent reports an error. The bool result marks that
// degradation. onStep may be nil.
func (s *Server) runSearch(ctx context.Context, req *SearchRequest, onStep agent.StepCallback) (*agent.SearchResult, bool) {
	useAgent := req.Agent == nil || *req.Agent

	if useAgent {
		ag := agent.New(s.deps.Provider, s.deps.Catalog, s.deps.Bios, s.deps.Validator, &agent.Config{
			OnStep: onStep,
		})
		result := ag.Search(ctx, req.Topic, req.Region)
		if result.Status == agent.StatusSuccess {
			return result, false
		}
		s.log.Warn("agent search failed (%s), using direct search", result.Error)
	}

	region := req.Region
	if region == "" {
		region = knowledge.GlobalRegion
	}
	return &agent.SearchResult{
		Status:   agent.StatusSuccess,
		Topic:    req.Topic,
		Region:   region,
		Personas: agent.SimpleSearch(ctx, s.deps.Provider, s.deps.Catalog, req.Topic, req.Region),
	}, useAgent
}

// logSearch records a search_performed analytics event when a store is
// wired.
func (s *Server) logSearch(ctx context.Context, result *agent.SearchResult) {
	if s.deps.Store == nil {
		return
	}
	// The search already happened; a client disconnect must not lose the
	// event.
	ctx, cancel := logging.DetachContextWithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.deps.Store.LogEvent(ctx, "search_performed", map[string]any{
		"topic":  result.Topic,
		"region": result.Region,
		"status": result.Status,
	}); err != nil {
		s.log.Warn("search analytics failed: %v", err)
	}
}
