package server

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/selgraph/pkg/cache"
	selerrors "github.com/matzehuels/selgraph/pkg/errors"
	"github.com/matzehuels/selgraph/pkg/graph"
	"github.com/matzehuels/selgraph/pkg/render/nodelink"
	"github.com/matzehuels/selgraph/pkg/selection"
)

// =============================================================================
// Request / Response Types
// =============================================================================

type createRequest struct {
	IDs []string `json:"ids"`
}

type selectRequest struct {
	ID    string `json:"id"`
	Value *bool  `json:"value"` // Defaults to true
}

type selectionRequest struct {
	IDs []string `json:"ids"`
}

type sessionResponse struct {
	ID        string         `json:"id"`
	Graph     string         `json:"graph"`
	ExpiresAt time.Time      `json:"expires_at"`
	State     graph.StateDoc `json:"state"`
}

type mutationResponse struct {
	Changes graph.ChangeSetDoc `json:"changes"`
	Patches []nodelink.Patch   `json:"patches"`
}

type elementResponse struct {
	Kind     string          `json:"kind"`
	ID       string          `json:"id"`
	State    selection.State `json:"state"`
	Selected bool            `json:"selected"`
	Frontier bool            `json:"frontier"`
}

func newMutationResponse(cs selection.ChangeSet) mutationResponse {
	return mutationResponse{Changes: graph.FromChangeSet(cs), Patches: nodelink.Restyle(cs)}
}

// =============================================================================
// Handlers
// =============================================================================

// GET /healthz
func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /graph
func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, graph.FromDAG(s.currentGraph().dag))
}

// GET /graph.svg?session={id}
func (s *Server) getGraphSVG(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var dot string
	if id := r.URL.Query().Get("session"); id != "" {
		v, err := s.lookup(ctx, id)
		if err != nil {
			writeError(w, err)
			return
		}
		v.mu.Lock()
		dot = nodelink.ToDOT(v.graph, v.tracker, s.opts.Render)
		v.mu.Unlock()
	} else {
		dot = nodelink.ToDOT(s.currentGraph().dag, nil, s.opts.Render)
	}

	key := cache.ArtifactKey(dot, string(nodelink.FormatSVG))
	svg, ok, err := s.opts.Cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Cache read failed", "err", err)
	}
	if !ok {
		svg, err = nodelink.RenderSVG(ctx, dot)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.opts.Cache.Set(ctx, key, svg, cache.DefaultTTL); err != nil {
			s.logger.Warn("Cache write failed", "err", err)
		}
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

// POST /sessions
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, err)
		return
	}
	if err := validateIDs(req.IDs); err != nil {
		writeError(w, err)
		return
	}

	v, _, err := s.newView(r.Context(), req.IDs)
	if err != nil {
		writeError(w, err)
		return
	}
	v.mu.Lock()
	resp := newSessionResponse(v)
	v.mu.Unlock()

	s.logger.Debug("Created session", "session", resp.ID, "selected", len(resp.State.Selected))
	writeJSON(w, http.StatusCreated, resp)
}

// GET /sessions/{id}
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	v, err := s.lookup(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	v.mu.Lock()
	resp := newSessionResponse(v)
	v.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

// DELETE /sessions/{id}
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := selerrors.ValidateSessionID(id); err != nil {
		writeError(w, err)
		return
	}
	if err := s.opts.Store.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.dropView(id)
	w.WriteHeader(http.StatusNoContent)
}

// POST /sessions/{id}/select
func (s *Server) selectNode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v, err := s.lookup(ctx, chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := selerrors.ValidateElementID(req.ID); err != nil {
		writeError(w, err)
		return
	}
	value := req.Value == nil || *req.Value

	cs, err := s.mutate(ctx, v, func(t *selection.Tracker) selection.ChangeSet {
		return t.SelectNode(req.ID, value)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newMutationResponse(cs))
}

// PUT /sessions/{id}/selection
func (s *Server) selectOnlyNodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v, err := s.lookup(ctx, chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req selectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateIDs(req.IDs); err != nil {
		writeError(w, err)
		return
	}

	cs, err := s.mutate(ctx, v, func(t *selection.Tracker) selection.ChangeSet {
		return t.SelectOnlyNodes(req.IDs)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newMutationResponse(cs))
}

// GET /sessions/{id}/state/{kind}/{elem}
func (s *Server) elementState(w http.ResponseWriter, r *http.Request) {
	v, err := s.lookup(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}

	kind := chi.URLParam(r, "kind")
	elem := chi.URLParam(r, "elem")
	if unescaped, err := url.PathUnescape(elem); err == nil {
		elem = unescaped
	}

	resp := elementResponse{Kind: kind, ID: elem}
	v.mu.Lock()
	switch kind {
	case nodelink.KindNode:
		resp.State = v.tracker.NodeState(elem)
		resp.Selected = v.tracker.IsNodeSelected(elem)
		resp.Frontier = v.tracker.IsNodeOnFrontier(elem)
	case nodelink.KindEdge:
		resp.State = v.tracker.EdgeState(elem)
		resp.Selected = v.tracker.IsEdgeSelected(elem)
		resp.Frontier = v.tracker.IsEdgeOnFrontier(elem)
	default:
		v.mu.Unlock()
		writeError(w, selerrors.New(selerrors.ErrCodeInvalidInput, "element kind must be node or edge, got %q", kind))
		return
	}
	v.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Helpers
// =============================================================================

// newSessionResponse must be called with v.mu held.
func newSessionResponse(v *view) sessionResponse {
	return sessionResponse{
		ID:        v.sess.ID,
		Graph:     v.sess.Graph,
		ExpiresAt: v.sess.ExpiresAt,
		State:     graph.Snapshot(v.tracker),
	}
}

func validateIDs(ids []string) error {
	for _, id := range ids {
		if err := selerrors.ValidateElementID(id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
