// Package server exposes selection trackers over HTTP.
//
// Every session owns one [selection.Tracker] over the served graph. The
// tracker itself is not safe for concurrent use, so each session carries a
// mutex that serializes its mutations and queries. Changesets produced by a
// mutation are returned to the caller and pushed to every websocket
// subscribed to the session.
//
// # Routes
//
//	POST   /sessions                        create a session, optional {"ids": [...]}
//	GET    /sessions/{id}                   selection and non-None states
//	DELETE /sessions/{id}                   drop a session
//	POST   /sessions/{id}/select            {"id": "...", "value": true}
//	PUT    /sessions/{id}/selection         {"ids": [...]}
//	GET    /sessions/{id}/state/{kind}/{el} state of one node or edge
//	GET    /sessions/{id}/live              websocket stream of changesets
//	GET    /graph                           graph document
//	GET    /graph.svg                       rendered graph, ?session= to style it
//	GET    /metrics                         Prometheus metrics
//	GET    /healthz                         liveness
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/selgraph/pkg/cache"
	"github.com/matzehuels/selgraph/pkg/dag"
	selerrors "github.com/matzehuels/selgraph/pkg/errors"
	"github.com/matzehuels/selgraph/pkg/graph"
	"github.com/matzehuels/selgraph/pkg/render/nodelink"
	"github.com/matzehuels/selgraph/pkg/selection"
	"github.com/matzehuels/selgraph/pkg/session"
)

const sweepInterval = time.Minute

// Options configures a Server.
type Options struct {
	GraphPath string        // Graph document to serve (.json, .yaml)
	Store     session.Store // Session persistence; defaults to a memory store
	Cache     cache.Cache   // Rendered SVG cache; defaults to NullCache
	TTL       time.Duration // Session lifetime; defaults to session.DefaultTTL
	Logger    *log.Logger
	Render    nodelink.Options
	Gatherer  prometheus.Gatherer // Source for /metrics; defaults to the global registry
}

// Server serves one graph and any number of selection sessions over it.
type Server struct {
	opts     Options
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	graph *loadedGraph
	views map[string]*view
}

type loadedGraph struct {
	dag  *dag.DAG
	hash string
}

// New loads the graph at opts.GraphPath and returns a ready Server.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		opts.Store = session.NewMemoryStore()
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.TTL <= 0 {
		opts.TTL = session.DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	g, err := loadGraph(opts.GraphPath)
	if err != nil {
		return nil, err
	}
	return &Server{
		opts:   opts,
		logger: opts.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		graph: g,
		views: make(map[string]*view),
	}, nil
}

func loadGraph(path string) (*loadedGraph, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, selerrors.Wrap(selerrors.ErrCodeFileNotFound, err, "graph file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	d, err := graph.ReadGraph(bytes.NewReader(data), graph.FormatFromPath(path))
	if err != nil {
		return nil, err
	}
	return &loadedGraph{dag: d, hash: cache.Hash(data)}, nil
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.healthz)
	r.Get("/graph", s.getGraph)
	r.Get("/graph.svg", s.getGraphSVG)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/select", s.selectNode)
			r.Put("/selection", s.selectOnlyNodes)
			r.Get("/state/{kind}/{elem}", s.elementState)
			r.Get("/live", s.live)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	go s.sweepLoop(ctx)
	s.logger.Info("Listening", "addr", addr, "nodes", s.currentGraph().dag.NodeCount())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.closeViews()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

func (s *Server) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Server) currentGraph() *loadedGraph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph
}

// =============================================================================
// Views
// =============================================================================

// view is the in-memory half of a session: its tracker and live
// subscribers. mu guards every field.
type view struct {
	mu      sync.Mutex
	sess    *session.Session
	graph   *dag.DAG
	tracker *selection.Tracker
	subs    map[chan []byte]struct{}
}

// lookup returns the view for id, restoring it from the store when this
// process has not seen it yet.
func (s *Server) lookup(ctx context.Context, id string) (*view, error) {
	if err := selerrors.ValidateSessionID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	v, ok := s.views[id]
	g := s.graph
	s.mu.RUnlock()
	if ok {
		v.mu.Lock()
		expired := v.sess.IsExpired()
		v.mu.Unlock()
		if !expired {
			return v, nil
		}
		s.dropView(id)
		return nil, selerrors.New(selerrors.ErrCodeSessionNotFound, "session %s not found", id)
	}

	sess, err := s.opts.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, selerrors.New(selerrors.ErrCodeSessionNotFound, "session %s not found", id)
	}

	t := selection.New(g.dag)
	if _, err := session.RestoreChecked(t, sess, g.hash); err != nil {
		// Unknown IDs are inert, so a stale selection is still safe to apply.
		s.logger.Warn("Restoring session captured on another graph", "session", id)
		session.Restore(t, sess)
		sess.Graph = g.hash
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.views[id]; ok {
		return existing, nil
	}
	if s.graph != g {
		// Reloaded while the session was loading.
		g = s.graph
		t = selection.New(g.dag)
		session.Restore(t, sess)
		sess.Graph = g.hash
	}
	v = &view{sess: sess, graph: g.dag, tracker: t, subs: make(map[chan []byte]struct{})}
	s.views[id] = v
	return v, nil
}

func (s *Server) newView(ctx context.Context, ids []string) (*view, selection.ChangeSet, error) {
	g := s.currentGraph()
	sess := session.New(g.hash, s.opts.TTL)
	t := selection.New(g.dag)

	var cs selection.ChangeSet
	if len(ids) > 0 {
		cs = t.SelectOnlyNodes(ids)
	}
	sess.Capture(t, s.opts.TTL)
	if err := s.opts.Store.Set(ctx, sess); err != nil {
		return nil, cs, err
	}

	v := &view{sess: sess, graph: g.dag, tracker: t, subs: make(map[chan []byte]struct{})}
	s.mu.Lock()
	s.views[sess.ID] = v
	s.mu.Unlock()
	return v, cs, nil
}

func (s *Server) dropView(id string) {
	s.mu.Lock()
	v, ok := s.views[id]
	delete(s.views, id)
	s.mu.Unlock()
	if ok {
		v.mu.Lock()
		v.closeSubscribers()
		v.mu.Unlock()
	}
}

func (s *Server) closeViews() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.views {
		v.mu.Lock()
		v.closeSubscribers()
		v.mu.Unlock()
	}
}

// sweep drops every view whose session has expired and lets the store
// purge its own expired entries.
func (s *Server) sweep(ctx context.Context) {
	s.mu.RLock()
	var expired []string
	for id, v := range s.views {
		v.mu.Lock()
		if v.sess.IsExpired() {
			expired = append(expired, id)
		}
		v.mu.Unlock()
	}
	s.mu.RUnlock()

	for _, id := range expired {
		s.dropView(id)
	}
	if err := s.opts.Store.Cleanup(ctx); err != nil {
		s.logger.Warn("Session cleanup failed", "err", err)
	}
	if len(expired) > 0 {
		s.logger.Debug("Dropped expired sessions", "count", len(expired))
	}
}

// mutate applies fn to the view's tracker, persists the new selection and
// pushes the changeset to subscribers. A selection the store rejects is
// rolled back.
func (s *Server) mutate(ctx context.Context, v *view, fn func(*selection.Tracker) selection.ChangeSet) (selection.ChangeSet, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	prev := *v.sess
	cs := fn(v.tracker)
	v.sess.Capture(v.tracker, s.opts.TTL)
	if err := s.opts.Store.Set(ctx, v.sess); err != nil {
		v.tracker.SelectOnlyNodes(prev.Selected)
		*v.sess = prev
		return selection.ChangeSet{}, err
	}
	if !cs.Empty() {
		v.broadcast(changesMessage(cs))
	}
	return cs, nil
}

// =============================================================================
// Reload
// =============================================================================

// Reload re-reads the graph file, rebuilds every live tracker over the new
// graph and re-applies each session's selection to it. Subscribers receive
// a fresh snapshot.
func (s *Server) Reload(ctx context.Context) error {
	g, err := loadGraph(s.opts.GraphPath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.graph = g
	views := make([]*view, 0, len(s.views))
	for _, v := range s.views {
		views = append(views, v)
	}
	s.mu.Unlock()

	for _, v := range views {
		v.mu.Lock()
		t := selection.New(g.dag)
		session.Restore(t, v.sess)
		v.graph = g.dag
		v.tracker = t
		v.sess.Graph = g.hash
		v.sess.Capture(t, s.opts.TTL)
		if err := s.opts.Store.Set(ctx, v.sess); err != nil {
			s.logger.Warn("Persisting reloaded session failed", "session", v.sess.ID, "err", err)
		}
		v.broadcast(snapshotMessage(msgReload, t))
		v.mu.Unlock()
	}

	s.logger.Info("Reloaded graph", "path", s.opts.GraphPath, "nodes", g.dag.NodeCount(), "edges", g.dag.EdgeCount(), "sessions", len(views))
	return nil
}
